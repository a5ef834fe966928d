// Package hooks holds capability interfaces for third-party integrations.
// Each provider name (from config hooks.mob_spawner) maps to an implementation
// resolved once at startup; unknown names resolve to the no-op provider.
package hooks

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/udisondev/structgen/internal/model"
)

// Built-in provider names.
const (
	ProviderNone = "none"
	ProviderLog  = "log"
)

// MobSpawner spawns a mob at a structure's spawner marker.
type MobSpawner interface {
	// SpawnMob places mob at loc. Structure is the definition ID that owns the marker.
	SpawnMob(ctx context.Context, structure, mob string, loc model.Location) error
}

// MobSpawnerFunc adapts a function to MobSpawner.
type MobSpawnerFunc func(ctx context.Context, structure, mob string, loc model.Location) error

// SpawnMob calls f.
func (f MobSpawnerFunc) SpawnMob(ctx context.Context, structure, mob string, loc model.Location) error {
	return f(ctx, structure, mob, loc)
}

var (
	mu       sync.RWMutex
	spawners = map[string]MobSpawner{}
	initOnce sync.Once
)

// Register adds a mob spawner provider, replacing any previous one with the same name.
func Register(name string, s MobSpawner) {
	initOnce.Do(registerBuiltins)

	mu.Lock()
	defer mu.Unlock()
	spawners[name] = s
}

// Resolve returns the provider registered under name, or the no-op provider
// when name is empty or unknown.
func Resolve(name string) MobSpawner {
	initOnce.Do(registerBuiltins)

	mu.RLock()
	s, ok := spawners[name]
	mu.RUnlock()
	if ok {
		return s
	}
	if name != "" && name != ProviderNone {
		slog.Warn("unknown mob spawner provider, using none", "provider", name)
	}
	return noopSpawner{}
}

// Providers returns registered provider names, sorted.
func Providers() []string {
	initOnce.Do(registerBuiltins)

	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(spawners))
	for name := range spawners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registerBuiltins() {
	mu.Lock()
	defer mu.Unlock()
	spawners[ProviderNone] = noopSpawner{}
	spawners[ProviderLog] = logSpawner{}
}

type noopSpawner struct{}

func (noopSpawner) SpawnMob(context.Context, string, string, model.Location) error {
	return nil
}

// logSpawner only reports requests. Useful without a mob integration.
type logSpawner struct{}

func (logSpawner) SpawnMob(_ context.Context, structure, mob string, loc model.Location) error {
	slog.Info("mob spawn requested", "structure", structure, "mob", mob, "location", loc)
	return nil
}
