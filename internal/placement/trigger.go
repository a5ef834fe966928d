// Package placement decides, for every generated region, whether and which
// structure to place there, and dispatches the paste.
package placement

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/udisondev/structgen/internal/catalog"
	"github.com/udisondev/structgen/internal/fill"
	"github.com/udisondev/structgen/internal/hooks"
	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/registry"
	"github.com/udisondev/structgen/internal/schematic"
	"github.com/udisondev/structgen/internal/world"
)

// Defaults.
const (
	DefaultProbeLimit   = 20
	DefaultRegionOffset = 8
)

// Outcome is the terminal state of one region event.
type Outcome int

const (
	OutcomeNoGround Outcome = iota
	OutcomeNoCandidate
	OutcomePasteFailed
	OutcomePlaced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoGround:
		return "no_ground"
	case OutcomeNoCandidate:
		return "no_candidate"
	case OutcomePasteFailed:
		return "paste_failed"
	case OutcomePlaced:
		return "placed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Paster writes a structure into the world.
type Paster interface {
	Paste(ctx context.Context, def *catalog.Definition, anchor model.Location) (schematic.PlacementResult, error)
}

// FillStarter starts bottom-fill tasks.
type FillStarter interface {
	Start(t *fill.Task) error
}

// Journal stores successful placements for operators.
type Journal interface {
	Insert(ctx context.Context, p model.Placement) error
}

// Terrain is the world a trigger reads and fills.
type Terrain interface {
	world.Terrain
	SetBlock(pos model.BlockPos, m model.Material) bool
}

// Config holds trigger tuning.
type Config struct {
	Seed         int64
	ProbeLimit   int
	RegionOffset int
	FillQuota    int
	Ignored      catalog.IgnoreSet
}

// Deps are the trigger collaborators. Fills, Mobs and Journal are optional.
type Deps struct {
	Terrain  Terrain
	Catalog  *catalog.Catalog
	Registry *registry.Registry
	Paster   Paster
	Fills    FillStarter
	Mobs     hooks.MobSpawner
	Journal  Journal
}

// Stats counts outcomes since start.
type Stats struct {
	NoGround    int64
	NoCandidate int64
	PasteFailed int64
	Placed      int64
}

// Trigger reacts to region-generated events. Each event runs
// GroundScan → CatalogSelect → Dispatch in one pass.
type Trigger struct {
	cfg  Config
	deps Deps

	outcomes [OutcomePlaced + 1]atomic.Int64
}

// New creates a placement trigger.
func New(cfg Config, deps Deps) *Trigger {
	if cfg.ProbeLimit <= 0 {
		cfg.ProbeLimit = DefaultProbeLimit
	}
	if cfg.RegionOffset < 0 || cfg.RegionOffset >= world.ChunkSize {
		cfg.RegionOffset = DefaultRegionOffset
	}
	if cfg.FillQuota <= 0 {
		cfg.FillQuota = fill.DefaultQuota
	}
	if deps.Mobs == nil {
		deps.Mobs = hooks.Resolve(hooks.ProviderNone)
	}
	return &Trigger{cfg: cfg, deps: deps}
}

// OnRegionGenerated handles one region event. Failures are local to the event:
// they are logged and never leave a registry entry or a fill task behind.
func (t *Trigger) OnRegionGenerated(ctx context.Context, ev world.RegionEvent) Outcome {
	o := t.handle(ctx, ev)
	t.outcomes[o].Add(1)
	return o
}

func (t *Trigger) handle(ctx context.Context, ev world.RegionEvent) Outcome {
	terrain := t.deps.Terrain
	if ev.World != terrain.Name() {
		slog.Debug("region event for unserved world", "world", ev.World, "chunk", ev.Chunk)
		return OutcomeNoGround
	}

	x, z := ev.Anchor(t.cfg.RegionOffset)
	groundY, ok := t.groundScan(x, z)
	if !ok {
		return OutcomeNoGround
	}

	anchor := model.NewLocation(ev.World, x, groundY+1, z)
	biome := terrain.BiomeAt(x, z)
	rng := t.rngFor(ev)

	def, ok := t.deps.Catalog.SelectCandidate(catalog.SelectContext{
		World:     ev.World,
		Biome:     biome,
		Pos:       anchor.Pos,
		Exclusion: t.deps.Registry,
	}, rng)
	if !ok {
		return OutcomeNoCandidate
	}

	res, err := t.paste(ctx, def, anchor)
	if err != nil {
		slog.Warn("structure paste failed",
			"structure", def.ID,
			"anchor", anchor,
			"error", err)
		return OutcomePasteFailed
	}

	t.deps.Registry.Record(t.deps.Registry.KeyFor(anchor), def)

	if def.Fill != nil && t.deps.Fills != nil {
		t.startFill(def, anchor, biome, res.Bounds)
	}
	t.spawnMobs(ctx, def, anchor.World, res.Auxiliary)

	slog.Info("structure placed",
		"structure", def.ID,
		"anchor", anchor,
		"biome", biome,
		"min", res.Bounds.Min,
		"max", res.Bounds.Max)

	if t.deps.Journal != nil {
		p := model.Placement{
			Structure: def.ID,
			Anchor:    anchor,
			Bounds:    res.Bounds,
			Biome:     biome,
			PlacedAt:  time.Now(),
		}
		if err := t.deps.Journal.Insert(ctx, p); err != nil {
			slog.Warn("placement journal insert failed", "structure", def.ID, "error", err)
		}
	}
	return OutcomePlaced
}

// groundScan walks down from the column top until it finds a block that is
// neither air nor ignored. It gives up silently after ProbeLimit probes.
func (t *Trigger) groundScan(x, z int) (int, bool) {
	y := t.deps.Terrain.HighestBlockY(x, z)
	for range t.cfg.ProbeLimit {
		m := t.deps.Terrain.BlockAt(model.Pos(x, y, z))
		if !m.IsAir() && !t.cfg.Ignored.IsIgnored(m) {
			return y, true
		}
		y--
	}
	return 0, false
}

// rngFor returns a generator seeded from the world seed and the region, so the
// same event always makes the same decision.
func (t *Trigger) rngFor(ev world.RegionEvent) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(t.cfg.Seed), world.Hash2(t.cfg.Seed, ev.Chunk.X, ev.Chunk.Z)))
}

// paste calls the paster, turning a panic into an error.
func (t *Trigger) paste(ctx context.Context, def *catalog.Definition, anchor model.Location) (res schematic.PlacementResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", schematic.ErrPaste, r)
		}
	}()
	return t.deps.Paster.Paste(ctx, def, anchor)
}

func (t *Trigger) startFill(def *catalog.Definition, anchor model.Location, biome model.Biome, bounds model.Bounds) {
	task := fill.New(fill.Config{
		Structure:   def.ID,
		Anchor:      anchor,
		Bounds:      bounds,
		Biome:       biome,
		Blocks:      t.deps.Terrain,
		Materials:   fillMaterials{ignored: t.cfg.Ignored, fill: def.Fill},
		IgnoreWater: def.Fill.IgnoreWater,
		Quota:       t.cfg.FillQuota,
	})
	if err := t.deps.Fills.Start(task); err != nil {
		slog.Warn("fill task not started", "structure", def.ID, "anchor", anchor, "error", err)
	}
}

func (t *Trigger) spawnMobs(ctx context.Context, def *catalog.Definition, worldName string, aux []schematic.AuxLocation) {
	if def.Mob == "" {
		return
	}
	for _, a := range aux {
		if a.Kind != schematic.MarkerSpawner {
			continue
		}
		loc := model.Location{World: worldName, Pos: a.Pos}
		if err := t.deps.Mobs.SpawnMob(ctx, def.ID, def.Mob, loc); err != nil {
			slog.Warn("mob spawn hook failed", "structure", def.ID, "mob", def.Mob, "location", loc, "error", err)
		}
	}
}

// Stats returns outcome counters.
func (t *Trigger) Stats() Stats {
	return Stats{
		NoGround:    t.outcomes[OutcomeNoGround].Load(),
		NoCandidate: t.outcomes[OutcomeNoCandidate].Load(),
		PasteFailed: t.outcomes[OutcomePasteFailed].Load(),
		Placed:      t.outcomes[OutcomePlaced].Load(),
	}
}

// fillMaterials combines the global ignore list with a structure's fill set.
type fillMaterials struct {
	ignored catalog.IgnoreSet
	fill    *catalog.FillConfig
}

func (m fillMaterials) IsIgnored(mat model.Material) bool {
	return m.ignored.IsIgnored(mat)
}

func (m fillMaterials) FillMaterialFor(biome model.Biome) (model.Material, bool) {
	return m.fill.FillMaterialFor(biome)
}
