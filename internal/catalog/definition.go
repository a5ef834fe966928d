package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/udisondev/structgen/internal/model"
)

// ErrInvalidDefinition marks a structure definition rejected at catalog build time.
// Fatal to that definition only.
var ErrInvalidDefinition = errors.New("invalid structure definition")

// Definition describes one configured structure and its placement rules.
// Immutable after the catalog is built; replaced wholesale on reload.
type Definition struct {
	ID        string
	Schematic string
	Chance    float64 // per-trigger placement probability in [0, 1]
	Weight    int     // relative weight among candidates that passed their chance roll
	Spacing   int     // min horizontal distance (blocks) to another placement of the same ID, 0 = none
	YOffset   int     // vertical shift applied to the ground anchor

	Biomes         []model.Biome // whitelist, empty = any
	BiomeBlacklist []model.Biome
	Worlds         []string // whitelist, empty = any

	Loot string // loot table used for chest markers
	Mob  string // mob type spawned at spawner markers

	Fill *FillConfig // nil = no bottom fill
}

// FillConfig is the bottom-fill material set for a structure.
type FillConfig struct {
	Materials   map[model.Biome]model.Material
	Default     model.Material
	IgnoreWater bool // treat water as open space while scanning
}

// FillMaterialFor returns the fill material for biome, falling back to Default.
func (f *FillConfig) FillMaterialFor(biome model.Biome) (model.Material, bool) {
	if f == nil {
		return "", false
	}
	if m, ok := f.Materials[biome]; ok && !m.IsAir() {
		return m, true
	}
	if !f.Default.IsAir() {
		return f.Default, true
	}
	return "", false
}

// Validate checks definition invariants.
func (d *Definition) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidDefinition)
	case d.Schematic == "":
		return fmt.Errorf("%w: %s: empty schematic", ErrInvalidDefinition, d.ID)
	case d.Chance < 0 || d.Chance > 1:
		return fmt.Errorf("%w: %s: chance %v outside [0,1]", ErrInvalidDefinition, d.ID, d.Chance)
	case d.Weight <= 0:
		return fmt.Errorf("%w: %s: weight %d must be positive", ErrInvalidDefinition, d.ID, d.Weight)
	case d.Spacing < 0:
		return fmt.Errorf("%w: %s: negative spacing %d", ErrInvalidDefinition, d.ID, d.Spacing)
	}
	return nil
}

// AllowsWorld reports whether the definition may spawn in world.
func (d *Definition) AllowsWorld(world string) bool {
	return len(d.Worlds) == 0 || slices.Contains(d.Worlds, world)
}

// AllowsBiome reports whether the definition may spawn in biome.
func (d *Definition) AllowsBiome(biome model.Biome) bool {
	if slices.Contains(d.BiomeBlacklist, biome) {
		return false
	}
	return len(d.Biomes) == 0 || slices.Contains(d.Biomes, biome)
}

// IgnoreSet is the set of materials skipped by ground detection and fill scans
// (leaves, grass, flowers and the like).
type IgnoreSet map[model.Material]struct{}

// NewIgnoreSet builds an IgnoreSet from configured names.
func NewIgnoreSet(names []string) IgnoreSet {
	s := make(IgnoreSet, len(names))
	for _, n := range names {
		s[model.ParseMaterial(n)] = struct{}{}
	}
	return s
}

// IsIgnored reports whether m is on the ignore list.
func (s IgnoreSet) IsIgnored(m model.Material) bool {
	_, ok := s[m]
	return ok
}
