// Package catalog holds configured structure definitions and picks which one,
// if any, to place for a given location.
package catalog

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/selector"
)

// Exclusion answers spacing questions against already placed structures.
// Implemented by registry.Registry.
type Exclusion interface {
	HasNearby(world string, pos model.BlockPos, radius int, structureID string) bool
}

// SelectContext is the location a candidate is selected for.
type SelectContext struct {
	World string
	Biome model.Biome
	Pos   model.BlockPos

	// Exclusion is consulted for definitions with Spacing > 0. Optional.
	Exclusion Exclusion
}

// Catalog is the set of configured structure definitions.
// Safe for concurrent use; Replace swaps the whole set atomically.
type Catalog struct {
	defs atomic.Pointer[[]*Definition]
}

// New creates a catalog from already validated definitions.
func New(defs ...*Definition) *Catalog {
	c := &Catalog{}
	c.Replace(defs)
	return c
}

// Replace swaps the definition set. Readers see either the old or the new set.
func (c *Catalog) Replace(defs []*Definition) {
	cp := make([]*Definition, len(defs))
	copy(cp, defs)
	c.defs.Store(&cp)
}

// Definitions returns the current definition set (do not modify).
func (c *Catalog) Definitions() []*Definition {
	if p := c.defs.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns number of definitions.
func (c *Catalog) Len() int {
	return len(c.Definitions())
}

// Get returns the definition with the given ID.
func (c *Catalog) Get(id string) (*Definition, bool) {
	for _, d := range c.Definitions() {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

// SelectCandidate filters definitions by world/biome and spacing, rolls each
// survivor's chance independently and picks one of the passing definitions by
// weight. Returns false when nothing passes. Stateless across calls.
// Panics on a definition with a non-positive weight; Load rejects those.
func (c *Catalog) SelectCandidate(sc SelectContext, rng *rand.Rand) (*Definition, bool) {
	defs := c.Definitions()
	passed := selector.New[*Definition](len(defs))

	for _, d := range defs {
		if !d.AllowsWorld(sc.World) || !d.AllowsBiome(sc.Biome) {
			continue
		}
		if d.Spacing > 0 && sc.Exclusion != nil &&
			sc.Exclusion.HasNearby(sc.World, sc.Pos, d.Spacing, d.ID) {
			continue
		}
		if rng.Float64() >= d.Chance {
			continue
		}
		if err := passed.Add(d.Weight, d); err != nil {
			panic(fmt.Errorf("structure %q: %w", d.ID, err))
		}
	}

	if passed.Len() == 0 {
		return nil, false
	}

	d, err := passed.Pick(rng)
	if err != nil {
		panic(err)
	}
	return d, true
}
