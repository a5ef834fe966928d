// Package scheduler is a cooperative tick scheduler: one goroutine advances a
// tick counter at a fixed interval and runs due tasks in schedule order.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is 20 ticks per second.
const DefaultInterval = 50 * time.Millisecond

// Task is one unit of work run on the scheduler goroutine. It must be bounded
// in cost and must not block.
type Task func()

// Handle controls a scheduled task.
type Handle struct {
	id     uint64
	task   Task
	next   int64 // tick the task is due at
	period int64 // 0 = run once

	cancelled atomic.Bool
}

// Cancel stops future runs. Idempotent; safe from any goroutine, including
// from inside the task itself.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// Cancelled reports whether the handle was cancelled (or a one-shot task ran).
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// ID returns the handle's scheduler-unique id.
func (h *Handle) ID() uint64 {
	return h.id
}

// Scheduler runs tasks on tick boundaries.
type Scheduler struct {
	interval time.Duration

	mu     sync.Mutex
	tick   int64
	nextID uint64
	tasks  []*Handle // schedule order

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler ticking every interval (DefaultInterval if <= 0).
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// ScheduleRepeating runs task every periodTicks, first after initialDelayTicks.
// A delay of 0 or 1 means the next tick. periodTicks < 1 is treated as 1.
func (s *Scheduler) ScheduleRepeating(task Task, initialDelayTicks, periodTicks int) *Handle {
	if periodTicks < 1 {
		periodTicks = 1
	}
	return s.schedule(task, initialDelayTicks, int64(periodTicks))
}

// ScheduleOnce runs task once after delayTicks.
func (s *Scheduler) ScheduleOnce(task Task, delayTicks int) *Handle {
	return s.schedule(task, delayTicks, 0)
}

func (s *Scheduler) schedule(task Task, delay int, period int64) *Handle {
	if delay < 1 {
		delay = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := &Handle{
		id:     s.nextID,
		task:   task,
		next:   s.tick + int64(delay),
		period: period,
	}
	s.tasks = append(s.tasks, h)
	return h
}

// Tick advances one tick and runs every due task in schedule order.
// Tasks run without the scheduler lock held, so they may schedule or cancel.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.tick++
	now := s.tick

	due := make([]*Handle, 0, len(s.tasks))
	live := s.tasks[:0]
	for _, h := range s.tasks {
		if h.Cancelled() {
			continue
		}
		live = append(live, h)
		if h.next <= now {
			due = append(due, h)
		}
	}
	clear(s.tasks[len(live):])
	s.tasks = live
	s.mu.Unlock()

	for _, h := range due {
		if h.Cancelled() {
			continue
		}
		s.run(h)
		if h.period == 0 {
			h.Cancel()
		} else {
			h.next = now + h.period
		}
	}
}

func (s *Scheduler) run(h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			h.Cancel()
			slog.Error("scheduled task panicked, cancelled",
				"taskID", h.id,
				"panic", r)
		}
	}()
	h.task()
}

// Run drives Tick from a ticker (blocks until context is canceled or Stop).
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping")
			return ctx.Err()

		case <-s.stopCh:
			slog.Info("scheduler stopped")
			return nil

		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop stops Run.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Pending returns number of live (not cancelled) tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, h := range s.tasks {
		if !h.Cancelled() {
			n++
		}
	}
	return n
}

// CurrentTick returns the number of ticks run so far.
func (s *Scheduler) CurrentTick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}
