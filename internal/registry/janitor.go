package registry

import (
	"log/slog"
	"time"
)

// SweepStats describes one janitor pass.
type SweepStats struct {
	Scanned int
	Stale   int // older than TTL
	Excess  int // oldest live entries beyond MaxStored
	Removed int
}

// Janitor evicts registry entries that are older than TTL or exceed the
// capacity bound. Each pass marks first and applies one batch removal, so the
// map is never mutated while being iterated.
type Janitor struct {
	reg       *Registry
	ttl       time.Duration
	maxStored int
	now       func() time.Time
}

// NewJanitor creates a janitor for reg. Non-positive ttl/maxStored fall back to defaults.
func NewJanitor(reg *Registry, ttl time.Duration, maxStored int) *Janitor {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxStored <= 0 {
		maxStored = DefaultMaxStored
	}
	return &Janitor{
		reg:       reg,
		ttl:       ttl,
		maxStored: maxStored,
		now:       reg.now,
	}
}

// Tick runs one pass at the registry clock's current time.
// Scheduled as a repeating task on the host scheduler.
func (j *Janitor) Tick() {
	j.Sweep(j.now())
}

// Sweep runs one eviction pass as of now.
func (j *Janitor) Sweep(now time.Time) SweepStats {
	snap := j.reg.Snapshot() // oldest first
	stats := SweepStats{Scanned: len(snap)}

	cutoff := now.Add(-j.ttl).UnixMilli()
	marked := make(map[Key]struct{})

	live := make([]Entry, 0, len(snap))
	for _, e := range snap {
		if e.Key.Stamp < cutoff {
			marked[e.Key] = struct{}{}
			stats.Stale++
			continue
		}
		live = append(live, e)
	}

	if excess := len(live) - j.maxStored; excess > 0 {
		for _, e := range live[:excess] {
			marked[e.Key] = struct{}{}
		}
		stats.Excess = excess
	}

	stats.Removed = j.reg.RemoveAll(marked)

	if stats.Removed > 0 {
		slog.Debug("spawn registry swept",
			"scanned", stats.Scanned,
			"stale", stats.Stale,
			"excess", stats.Excess,
			"removed", stats.Removed)
	}

	// Records inserted concurrently with the pass may push the size over the
	// bound; they are handled next pass. A size far above it means eviction is broken.
	if size := j.reg.Len(); size > 2*j.maxStored {
		slog.Error("spawn registry above capacity after sweep",
			"size", size,
			"maxStored", j.maxStored)
	}

	return stats
}
