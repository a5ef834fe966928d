// Package registry tracks recently placed structures so spacing rules can be
// enforced, and evicts them by age and capacity.
package registry

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/structgen/internal/catalog"
	"github.com/udisondev/structgen/internal/model"
)

// Default bounds.
const (
	DefaultMaxStored = 100
	DefaultTTL       = 300_000 * time.Second
)

// Key identifies one placed structure instance.
type Key struct {
	World string
	Pos   model.BlockPos
	Stamp int64 // insertion time, unix milliseconds
}

// Entry is one snapshot row.
type Entry struct {
	Key       Key
	Structure *catalog.Definition

	seq uint64
}

type record struct {
	def *catalog.Definition
	seq uint64
}

// Registry maps placement keys to the structure placed there. In-memory only:
// a restart forgets all spacing history.
// All mutation goes through one exclusive lock.
type Registry struct {
	mu      sync.Mutex
	records map[Key]record
	seq     uint64

	now func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for insertion stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		records: make(map[Key]record, DefaultMaxStored),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KeyFor builds a key for loc stamped with the registry clock.
func (r *Registry) KeyFor(loc model.Location) Key {
	return Key{World: loc.World, Pos: loc.Pos, Stamp: r.now().UnixMilli()}
}

// Record inserts unconditionally. A duplicate key overwrites (last write wins).
func (r *Registry) Record(key Key, def *catalog.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.records[key] = record{def: def, seq: r.seq}
}

// Lookup returns the structure recorded under key.
func (r *Registry) Lookup(key Key) (*catalog.Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key]
	return rec.def, ok
}

// Len returns number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Snapshot copies all entries, oldest first (by stamp, then insertion order).
// The lock is held only for the copy.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.records))
	for k, rec := range r.records {
		out = append(out, Entry{Key: k, Structure: rec.def, seq: rec.seq})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(a.Key.Stamp, b.Key.Stamp); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

// RemoveAll deletes a batch of keys as one atomic operation.
// Returns how many keys were present.
func (r *Registry) RemoveAll(keys map[Key]struct{}) int {
	if len(keys) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for k := range keys {
		if _, ok := r.records[k]; ok {
			delete(r.records, k)
			removed++
		}
	}
	return removed
}

// HasNearby reports whether a structure with structureID was placed in world
// within radius blocks (horizontal) of pos. Implements catalog.Exclusion.
func (r *Registry) HasNearby(world string, pos model.BlockPos, radius int, structureID string) bool {
	r2 := int64(radius) * int64(radius)

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, rec := range r.records {
		if k.World != world || rec.def == nil || rec.def.ID != structureID {
			continue
		}
		if k.Pos.HorizontalDistanceSquared(pos) <= r2 {
			return true
		}
	}
	return false
}
