package fill

import (
	"log/slog"
	"sync"

	"github.com/udisondev/structgen/internal/world"
)

// Manager owns active fill tasks so they can be cancelled when their world or
// chunk unloads.
type Manager struct {
	sched        Scheduler
	initialDelay int
	period       int

	mu    sync.Mutex
	tasks []*Task
}

// NewManager creates a fill manager scheduling tasks on sched.
func NewManager(sched Scheduler, initialDelayTicks, periodTicks int) *Manager {
	return &Manager{
		sched:        sched,
		initialDelay: initialDelayTicks,
		period:       periodTicks,
	}
}

// Start starts t and tracks it until it finishes.
func (m *Manager) Start(t *Task) error {
	if err := t.Start(m.sched, m.initialDelay, m.period); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	m.tasks = append(m.tasks, t)
	return nil
}

// Active returns the number of running tasks.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	return len(m.tasks)
}

// CancelChunk cancels running tasks whose volume overlaps chunk cp of world.
func (m *Manager) CancelChunk(worldName string, cp world.ChunkPos) int {
	return m.cancelWhere(func(t *Task) bool {
		if t.cfg.Anchor.World != worldName {
			return false
		}
		b := t.cfg.Bounds
		minC := world.ChunkOf(b.Min.X, b.Min.Z)
		maxC := world.ChunkOf(b.Max.X, b.Max.Z)
		return cp.X >= minC.X && cp.X <= maxC.X && cp.Z >= minC.Z && cp.Z <= maxC.Z
	})
}

// CancelWorld cancels every running task in world.
func (m *Manager) CancelWorld(worldName string) int {
	return m.cancelWhere(func(t *Task) bool {
		return t.cfg.Anchor.World == worldName
	})
}

// CancelAll cancels every running task (shutdown).
func (m *Manager) CancelAll() int {
	return m.cancelWhere(func(*Task) bool { return true })
}

func (m *Manager) cancelWhere(match func(*Task) bool) int {
	m.mu.Lock()
	var victims []*Task
	for _, t := range m.tasks {
		if !t.Done() && match(t) {
			victims = append(victims, t)
		}
	}
	m.mu.Unlock()

	// Cancel outside the lock: it waits for an in-progress tick.
	for _, t := range victims {
		t.Cancel()
	}

	if len(victims) > 0 {
		slog.Info("fill tasks cancelled", "count", len(victims))
	}

	m.mu.Lock()
	m.prune()
	m.mu.Unlock()
	return len(victims)
}

// prune drops finished tasks. Caller holds mu.
func (m *Manager) prune() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.Done() {
			live = append(live, t)
		}
	}
	clear(m.tasks[len(live):])
	m.tasks = live
}
