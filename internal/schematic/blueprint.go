// Package schematic loads structure blueprints and pastes them into a world.
package schematic

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/structgen/internal/model"
)

// Marker kinds with paste-time behavior.
const (
	MarkerChest   = "chest"
	MarkerSpawner = "spawner"
)

// Block is one blueprint cell, relative to the blueprint origin.
type Block struct {
	Pos      model.BlockPos
	Material model.Material
}

// Marker is a named point of interest, relative to the blueprint origin.
type Marker struct {
	Pos  model.BlockPos
	Kind string
}

// Blueprint is an immutable block layout. The origin is the minimum corner;
// the paste service centers it horizontally on the anchor.
type Blueprint struct {
	Name    string
	Size    model.BlockPos
	Blocks  []Block
	Markers []Marker
}

type vec [3]int

func (v vec) pos() model.BlockPos {
	return model.Pos(v[0], v[1], v[2])
}

type fileBlueprint struct {
	Name string `yaml:"name"`
	Size vec    `yaml:"size"`

	Boxes []struct {
		From  vec    `yaml:"from"`
		To    vec    `yaml:"to"`
		Block string `yaml:"block"`
	} `yaml:"boxes"`

	Blocks []struct {
		Pos   vec    `yaml:"pos"`
		Block string `yaml:"block"`
	} `yaml:"blocks"`

	Markers []struct {
		Pos  vec    `yaml:"pos"`
		Kind string `yaml:"kind"`
	} `yaml:"markers"`
}

// Parse decodes one blueprint document. Boxes expand before single blocks,
// so blocks can carve into boxes (air clears).
func Parse(name string, data []byte) (*Blueprint, error) {
	var f fileBlueprint
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding blueprint %s: %w", name, err)
	}
	if f.Name != "" {
		name = f.Name
	}

	bp := &Blueprint{Name: name, Size: f.Size.pos()}
	if bp.Size.X <= 0 || bp.Size.Y <= 0 || bp.Size.Z <= 0 {
		return nil, fmt.Errorf("blueprint %s: size %v must be positive", name, bp.Size)
	}
	inside := model.NewBounds(model.Pos(0, 0, 0), bp.Size.Add(-1, -1, -1))

	cells := make(map[model.BlockPos]int)
	put := func(p model.BlockPos, m model.Material) error {
		if !inside.Contains(p) {
			return fmt.Errorf("blueprint %s: block %v outside size %v", name, p, bp.Size)
		}
		if i, ok := cells[p]; ok {
			bp.Blocks[i].Material = m
			return nil
		}
		cells[p] = len(bp.Blocks)
		bp.Blocks = append(bp.Blocks, Block{Pos: p, Material: m})
		return nil
	}

	for _, box := range f.Boxes {
		b := model.NewBounds(box.From.pos(), box.To.pos())
		m := model.ParseMaterial(box.Block)
		for y := b.Min.Y; y <= b.Max.Y; y++ {
			for z := b.Min.Z; z <= b.Max.Z; z++ {
				for x := b.Min.X; x <= b.Max.X; x++ {
					if err := put(model.Pos(x, y, z), m); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	for _, blk := range f.Blocks {
		if err := put(blk.Pos.pos(), model.ParseMaterial(blk.Block)); err != nil {
			return nil, err
		}
	}
	for _, mk := range f.Markers {
		p := mk.Pos.pos()
		if !inside.Contains(p) {
			return nil, fmt.Errorf("blueprint %s: marker %v outside size %v", name, p, bp.Size)
		}
		bp.Markers = append(bp.Markers, Marker{Pos: p, Kind: strings.ToLower(strings.TrimSpace(mk.Kind))})
	}

	return bp, nil
}

// Library maps blueprint names to blueprints.
type Library map[string]*Blueprint

// Names returns blueprint names, sorted.
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir reads every *.yaml / *.yml blueprint in dir. The file name without
// extension is the default blueprint name. Invalid files are skipped with a
// warning; a missing directory yields an empty library.
func LoadDir(dir string) (Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("blueprint directory not found", "dir", dir)
			return Library{}, nil
		}
		return nil, fmt.Errorf("reading blueprint dir %s: %w", dir, err)
	}

	lib := make(Library, len(entries))
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading blueprint %s: %w", path, err)
		}
		bp, err := Parse(strings.TrimSuffix(e.Name(), ext), data)
		if err != nil {
			slog.Warn("skipping blueprint", "path", path, "error", err)
			continue
		}
		lib[bp.Name] = bp
	}

	slog.Info("blueprints loaded", "dir", dir, "count", len(lib))
	return lib, nil
}
