package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/structgen/internal/catalog"
	"github.com/udisondev/structgen/internal/config"
	"github.com/udisondev/structgen/internal/db"
	"github.com/udisondev/structgen/internal/fill"
	"github.com/udisondev/structgen/internal/hooks"
	"github.com/udisondev/structgen/internal/loot"
	"github.com/udisondev/structgen/internal/placement"
	"github.com/udisondev/structgen/internal/registry"
	"github.com/udisondev/structgen/internal/scheduler"
	"github.com/udisondev/structgen/internal/schematic"
	"github.com/udisondev/structgen/internal/world"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := config.Path()
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("structd starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"world", cfg.WorldName,
		"seed", cfg.WorldSeed)

	w := world.New(cfg.WorldName, cfg.MinY, cfg.MaxY)

	// Structure data
	cat, err := loadCatalog(cfg.StructuresFile)
	if err != nil {
		return err
	}
	blueprints, err := schematic.LoadDir(cfg.BlueprintDir)
	if err != nil {
		return fmt.Errorf("loading blueprints: %w", err)
	}
	tables, err := loot.LoadTables(cfg.LootFile)
	if err != nil {
		return fmt.Errorf("loading loot tables: %w", err)
	}
	paster := schematic.NewService(w, blueprints, tables, cfg.WorldSeed)
	for _, def := range cat.Definitions() {
		if !paster.Has(def.Schematic) {
			slog.Warn("structure references unknown blueprint, pastes will fail",
				"structure", def.ID,
				"blueprint", def.Schematic)
		}
	}

	// Tick scheduler, registry janitor, fill manager
	sched := scheduler.New(cfg.TickInterval)
	reg := registry.New()
	janitor := registry.NewJanitor(reg, cfg.Registry.TTL, cfg.Registry.MaxStored)
	sched.ScheduleRepeating(janitor.Tick, cfg.Registry.JanitorPeriodTicks, cfg.Registry.JanitorPeriodTicks)
	fills := fill.NewManager(sched, cfg.Fill.InitialDelayTicks, cfg.Fill.PeriodTicks)

	// Optional placement journal
	var journal placement.Journal
	var placements *db.PlacementRepository
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		placements = db.NewPlacementRepository(database.Pool())
		journal = placements
	}

	trigger := placement.New(placement.Config{
		Seed:         cfg.WorldSeed,
		ProbeLimit:   cfg.Placement.ProbeLimit,
		RegionOffset: cfg.Placement.RegionOffset,
		FillQuota:    cfg.Fill.Quota,
		Ignored:      catalog.NewIgnoreSet(cfg.Placement.IgnoredMaterials),
	}, placement.Deps{
		Terrain:  w,
		Catalog:  cat,
		Registry: reg,
		Paster:   paster,
		Fills:    fills,
		Mobs:     hooks.Resolve(cfg.Hooks.MobSpawner),
		Journal:  journal,
	})

	gen := world.NewGenerator(cfg.WorldSeed)
	gen.OnRegionGenerated(func(ctx context.Context, ev world.RegionEvent) {
		trigger.OnRegionGenerated(ctx, ev)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := gen.Run(gctx, w, cfg.Generator.Radius, cfg.Generator.Interval)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("region generator: %w", err)
		}
		stats := trigger.Stats()
		slog.Info("placement summary",
			"placed", stats.Placed,
			"no_candidate", stats.NoCandidate,
			"no_ground", stats.NoGround,
			"paste_failed", stats.PasteFailed,
			"registry_size", reg.Len(),
			"active_fills", fills.Active())
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fills.CancelAll()

	if placements != nil {
		logJournal(placements)
	}
	return nil
}

// loadCatalog loads structure definitions. A missing file starts an empty catalog.
func loadCatalog(path string) (*catalog.Catalog, error) {
	cat := catalog.New()
	if err := cat.Reload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("structures file not found, no structures will be placed", "path", path)
			return cat, nil
		}
		return nil, fmt.Errorf("loading structures: %w", err)
	}
	return cat, nil
}

func logJournal(repo *db.PlacementRepository) {
	// Parent context is already cancelled at shutdown.
	ctx := context.Background()
	counts, err := repo.CountByStructure(ctx)
	if err != nil {
		slog.Warn("reading placement journal", "error", err)
		return
	}
	for id, n := range counts {
		slog.Info("journaled placements", "structure", id, "total", n)
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
