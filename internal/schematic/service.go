package schematic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/udisondev/structgen/internal/catalog"
	"github.com/udisondev/structgen/internal/loot"
	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/world"
)

// ErrPaste marks a failed paste. Nothing is recorded for a failed paste.
var ErrPaste = errors.New("schematic paste failed")

// Target is the world a service pastes into.
type Target interface {
	Name() string
	MinY() int
	MaxY() int
	SetBlock(pos model.BlockPos, m model.Material) bool
	SetContents(pos model.BlockPos, items []model.ItemStack)
}

// AuxLocation is an absolute marker position produced by a paste.
type AuxLocation struct {
	Kind string
	Pos  model.BlockPos
}

// PlacementResult describes a realized paste.
type PlacementResult struct {
	Bounds    model.Bounds
	Auxiliary []AuxLocation
}

// Service pastes blueprints into one world and fills chest markers from loot
// tables.
type Service struct {
	target     Target
	blueprints Library
	loot       loot.Tables
	seed       int64
}

// NewService creates a paste service.
func NewService(target Target, blueprints Library, tables loot.Tables, seed int64) *Service {
	if blueprints == nil {
		blueprints = Library{}
	}
	return &Service{target: target, blueprints: blueprints, loot: tables, seed: seed}
}

// Has reports whether a blueprint named name is loaded.
func (s *Service) Has(name string) bool {
	_, ok := s.blueprints[name]
	return ok
}

// Paste writes def's blueprint centered horizontally on anchor and shifted by
// def.YOffset. The realized volume is checked against the world height before
// any block is written, so a rejected paste leaves the world untouched.
// Retrying a paste rewrites the same blocks.
func (s *Service) Paste(ctx context.Context, def *catalog.Definition, anchor model.Location) (PlacementResult, error) {
	if err := ctx.Err(); err != nil {
		return PlacementResult{}, fmt.Errorf("%w: %s: %w", ErrPaste, def.ID, err)
	}
	if anchor.World != s.target.Name() {
		return PlacementResult{}, fmt.Errorf("%w: %s: world %q not served", ErrPaste, def.ID, anchor.World)
	}
	bp, ok := s.blueprints[def.Schematic]
	if !ok {
		return PlacementResult{}, fmt.Errorf("%w: %s: unknown blueprint %q", ErrPaste, def.ID, def.Schematic)
	}

	origin := anchor.Pos.Add(-bp.Size.X/2, def.YOffset, -bp.Size.Z/2)
	bounds := model.NewBounds(origin, origin.Add(bp.Size.X-1, bp.Size.Y-1, bp.Size.Z-1))
	if bounds.Min.Y < s.target.MinY() || bounds.Max.Y >= s.target.MaxY() {
		return PlacementResult{}, fmt.Errorf("%w: %s: volume %v..%v outside world height [%d,%d)",
			ErrPaste, def.ID, bounds.Min, bounds.Max, s.target.MinY(), s.target.MaxY())
	}

	for _, b := range bp.Blocks {
		s.target.SetBlock(origin.Add(b.Pos.X, b.Pos.Y, b.Pos.Z), b.Material)
	}

	res := PlacementResult{Bounds: bounds, Auxiliary: make([]AuxLocation, 0, len(bp.Markers))}
	rng := rand.New(rand.NewPCG(uint64(s.seed), world.Hash2(s.seed, origin.X, origin.Z)^uint64(origin.Y)))

	for _, mk := range bp.Markers {
		pos := origin.Add(mk.Pos.X, mk.Pos.Y, mk.Pos.Z)
		switch mk.Kind {
		case MarkerChest:
			s.target.SetBlock(pos, model.Chest)
			s.fillChest(def, pos, rng)
		case MarkerSpawner:
			s.target.SetBlock(pos, model.Spawner)
		}
		res.Auxiliary = append(res.Auxiliary, AuxLocation{Kind: mk.Kind, Pos: pos})
	}

	slog.Debug("structure pasted",
		"structure", def.ID,
		"blueprint", bp.Name,
		"min", bounds.Min,
		"max", bounds.Max,
		"blocks", len(bp.Blocks),
		"markers", len(res.Auxiliary))
	return res, nil
}

func (s *Service) fillChest(def *catalog.Definition, pos model.BlockPos, rng *rand.Rand) {
	if def.Loot == "" {
		return
	}
	t := s.loot.Get(def.Loot)
	if t == nil {
		slog.Warn("loot table not found, chest left empty", "structure", def.ID, "table", def.Loot)
		return
	}
	s.target.SetContents(pos, t.Roll(rng))
}
