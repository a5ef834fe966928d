// Package fill backfills the ground under a freshly pasted structure a few
// cells per scheduler tick, so deep or wide structures never stall a tick.
package fill

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/scheduler"
	"github.com/udisondev/structgen/internal/world"
)

// DefaultQuota is the number of cells scanned per tick.
const DefaultQuota = 40

// ErrNotIdle is returned when starting a task that already ran or was cancelled.
var ErrNotIdle = errors.New("fill task is not idle")

// State is the task lifecycle: Idle → Running → {Exhausted, Cancelled}.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateExhausted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateExhausted:
		return "EXHAUSTED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Materials answers the material questions a scan needs. Pure lookups.
type Materials interface {
	IsIgnored(m model.Material) bool
	FillMaterialFor(biome model.Biome) (model.Material, bool)
}

// Scheduler is the host scheduler contract.
type Scheduler interface {
	ScheduleRepeating(task scheduler.Task, initialDelayTicks, periodTicks int) *scheduler.Handle
}

// Config describes one fill.
type Config struct {
	Structure string
	Anchor    model.Location
	Bounds    model.Bounds

	// Biome selects the fill material. It is the biome at the anchor, not at
	// the scanned column, so one structure gets one fill material.
	Biome model.Biome

	Blocks      world.BlockWriter
	Materials   Materials
	IgnoreWater bool // water counts as open space
	Quota       int
}

// Task is the resumable scan state (FillState) of one fill.
//
// Cells are visited x innermost, then z, with y descending per column. A
// solid cell continues the descent; an open cell abandons the column.
// A column that stays solid down to the floor gets the fill material written
// one cell below the floor, replacing whatever is there.
type Task struct {
	cfg Config

	state  atomic.Int32
	handle atomic.Pointer[scheduler.Handle]

	mu        sync.Mutex // guards cursor and counters; held for a whole tick
	x, y, z   int
	processed int
	written   int
}

// New creates an idle task positioned at the top of the first column.
func New(cfg Config) *Task {
	if cfg.Quota <= 0 {
		cfg.Quota = DefaultQuota
	}
	b := cfg.Bounds
	return &Task{
		cfg: cfg,
		x:   b.Min.X,
		y:   b.Max.Y,
		z:   b.Min.Z,
	}
}

// Start schedules the task every periodTicks after initialDelayTicks.
func (t *Task) Start(s Scheduler, initialDelayTicks, periodTicks int) error {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("%w: %s", ErrNotIdle, t.State())
	}

	h := s.ScheduleRepeating(func() { t.Tick() }, initialDelayTicks, periodTicks)
	t.handle.Store(h)

	// Cancel may have won the race between the CAS and Store.
	if t.State() != StateRunning {
		h.Cancel()
	}

	slog.Debug("fill task started",
		"structure", t.cfg.Structure,
		"anchor", t.cfg.Anchor,
		"volume", t.cfg.Bounds.Volume(),
		"quota", t.cfg.Quota)
	return nil
}

// Tick processes up to Quota cells and returns how many it processed.
func (t *Task) Tick() int {
	if t.State() != StateRunning {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.cfg.Bounds
	n := 0
	for n < t.cfg.Quota {
		if t.State() != StateRunning {
			break
		}

		pos := model.Pos(t.x, t.y, t.z)
		n++
		t.processed++

		if !t.solid(t.cfg.Blocks.BlockAt(pos)) {
			t.nextColumn()
		} else if t.y == b.Min.Y {
			t.backfill(pos.Below())
			t.nextColumn()
		} else {
			t.y--
		}

		if t.z > b.Max.Z {
			t.finish()
			break
		}
	}
	return n
}

// solid reports whether m is structure content the descent passes through.
func (t *Task) solid(m model.Material) bool {
	switch {
	case m.IsAir():
		return false
	case t.cfg.Materials.IsIgnored(m):
		return false
	case m.IsWater():
		return !t.cfg.IgnoreWater
	default:
		return true
	}
}

func (t *Task) backfill(pos model.BlockPos) {
	m, ok := t.cfg.Materials.FillMaterialFor(t.cfg.Biome)
	if !ok {
		return
	}
	if t.cfg.Blocks.SetBlock(pos, m) {
		t.written++
	}
}

// nextColumn moves the cursor to the top of the next column, wrapping x into z.
func (t *Task) nextColumn() {
	b := t.cfg.Bounds
	t.y = b.Max.Y
	t.x++
	if t.x > b.Max.X {
		t.x = b.Min.X
		t.z++
	}
}

func (t *Task) finish() {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(StateExhausted)) {
		return
	}
	if h := t.handle.Load(); h != nil {
		h.Cancel()
	}
	slog.Debug("fill task exhausted",
		"structure", t.cfg.Structure,
		"anchor", t.cfg.Anchor,
		"processed", t.processed,
		"written", t.written)
}

// Cancel stops the task and releases its handle. Idempotent; a no-op once
// exhausted. Blocks until an in-progress tick has stopped, so no cell is
// written after Cancel returns. Must not be called from inside Tick.
func (t *Task) Cancel() {
	for {
		s := t.State()
		if s == StateExhausted || s == StateCancelled {
			return
		}
		if t.state.CompareAndSwap(int32(s), int32(StateCancelled)) {
			break
		}
	}

	if h := t.handle.Load(); h != nil {
		h.Cancel()
	}

	// Barrier: wait for a concurrent tick to observe the new state.
	t.mu.Lock()
	processed := t.processed
	t.mu.Unlock()

	slog.Debug("fill task cancelled",
		"structure", t.cfg.Structure,
		"anchor", t.cfg.Anchor,
		"processed", processed)
}

// State returns the lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Done reports whether the task reached a terminal state.
func (t *Task) Done() bool {
	s := t.State()
	return s == StateExhausted || s == StateCancelled
}

// Processed returns total cells scanned so far.
func (t *Task) Processed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processed
}

// Written returns total fill blocks written so far.
func (t *Task) Written() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

// Anchor returns the structure anchor.
func (t *Task) Anchor() model.Location {
	return t.cfg.Anchor
}

// Bounds returns the scanned volume.
func (t *Task) Bounds() model.Bounds {
	return t.cfg.Bounds
}
