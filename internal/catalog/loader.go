package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/structgen/internal/model"
)

// fileDef is the YAML shape of one structure entry.
type fileDef struct {
	ID             string   `yaml:"id"`
	Schematic      string   `yaml:"schematic"`
	Chance         float64  `yaml:"chance"`
	Weight         int      `yaml:"weight"`
	Spacing        int      `yaml:"spacing"`
	YOffset        int      `yaml:"y_offset"`
	Biomes         []string `yaml:"biomes"`
	BiomeBlacklist []string `yaml:"biome_blacklist"`
	Worlds         []string `yaml:"worlds"`
	Loot           string   `yaml:"loot"`
	Mob            string   `yaml:"mob"`

	Fill *struct {
		Default     string            `yaml:"default"`
		IgnoreWater bool              `yaml:"ignore_water"`
		Materials   map[string]string `yaml:"materials"`
	} `yaml:"fill"`
}

type file struct {
	Structures []fileDef `yaml:"structures"`
}

// Parse decodes a structures document. Invalid definitions are skipped with a
// warning; only a malformed document is an error.
func Parse(data []byte) ([]*Definition, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding structures: %w", err)
	}

	defs := make([]*Definition, 0, len(f.Structures))
	seen := make(map[string]struct{}, len(f.Structures))

	for i := range f.Structures {
		d := f.Structures[i].toDefinition()
		if err := d.Validate(); err != nil {
			slog.Warn("skipping structure definition", "index", i, "error", err)
			continue
		}
		if _, dup := seen[d.ID]; dup {
			slog.Warn("skipping duplicate structure definition", "index", i, "structure", d.ID)
			continue
		}
		seen[d.ID] = struct{}{}
		defs = append(defs, d)
	}

	return defs, nil
}

// Load reads and parses a structures file.
func Load(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading structures %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing structures %s: %w", path, err)
	}
	return defs, nil
}

// Reload replaces the catalog contents from path. On error the previous
// definitions stay in place.
func (c *Catalog) Reload(path string) error {
	defs, err := Load(path)
	if err != nil {
		return err
	}
	c.Replace(defs)
	slog.Info("structure catalog loaded", "path", path, "definitions", len(defs))
	return nil
}

func (fd *fileDef) toDefinition() *Definition {
	d := &Definition{
		ID:        fd.ID,
		Schematic: fd.Schematic,
		Chance:    fd.Chance,
		Weight:    fd.Weight,
		Spacing:   fd.Spacing,
		YOffset:   fd.YOffset,
		Worlds:    fd.Worlds,
		Loot:      fd.Loot,
		Mob:       fd.Mob,
	}
	if d.Schematic == "" {
		d.Schematic = fd.ID
	}
	for _, b := range fd.Biomes {
		d.Biomes = append(d.Biomes, model.ParseBiome(b))
	}
	for _, b := range fd.BiomeBlacklist {
		d.BiomeBlacklist = append(d.BiomeBlacklist, model.ParseBiome(b))
	}
	if fd.Fill != nil {
		d.Fill = &FillConfig{
			Default:     model.ParseMaterial(fd.Fill.Default),
			IgnoreWater: fd.Fill.IgnoreWater,
			Materials:   make(map[model.Biome]model.Material, len(fd.Fill.Materials)),
		}
		for biome, mat := range fd.Fill.Materials {
			d.Fill.Materials[model.ParseBiome(biome)] = model.ParseMaterial(mat)
		}
	}
	return d
}
