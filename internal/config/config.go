package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath overrides the config file path.
const EnvPath = "STRUCTGEN_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config/structd.yaml"

// Server holds all configuration for the structure daemon.
type Server struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// World
	WorldName    string        `yaml:"world_name"`
	WorldSeed    int64         `yaml:"world_seed"`
	MinY         int           `yaml:"min_y"`
	MaxY         int           `yaml:"max_y"`
	TickInterval time.Duration `yaml:"tick_interval"` // scheduler tick (default: 50ms)

	// Data files
	StructuresFile string `yaml:"structures_file"`
	BlueprintDir   string `yaml:"blueprint_dir"`
	LootFile       string `yaml:"loot_file"`

	Registry  RegistryConfig  `yaml:"registry"`
	Placement PlacementConfig `yaml:"placement"`
	Fill      FillConfig      `yaml:"fill"`
	Generator GeneratorConfig `yaml:"generator"`
	Hooks     HooksConfig     `yaml:"hooks"`

	// Database (placement journal)
	Database DatabaseConfig `yaml:"database"`
}

// RegistryConfig bounds the spawn registry.
type RegistryConfig struct {
	MaxStored          int           `yaml:"max_stored"`
	TTL                time.Duration `yaml:"ttl"`
	JanitorPeriodTicks int           `yaml:"janitor_period_ticks"`
}

// PlacementConfig tunes the region trigger.
type PlacementConfig struct {
	ProbeLimit       int      `yaml:"probe_limit"`
	RegionOffset     int      `yaml:"region_offset"` // column inside the region, 0..15
	IgnoredMaterials []string `yaml:"ignored_materials"`
}

// FillConfig tunes bottom-fill tasks.
type FillConfig struct {
	Quota             int `yaml:"quota"` // cells per tick
	PeriodTicks       int `yaml:"period_ticks"`
	InitialDelayTicks int `yaml:"initial_delay_ticks"`
}

// GeneratorConfig drives the built-in region generator.
type GeneratorConfig struct {
	Radius   int           `yaml:"radius"` // regions around origin
	Interval time.Duration `yaml:"interval"`
}

// HooksConfig selects integration providers by name.
type HooksConfig struct {
	MobSpawner string `yaml:"mob_spawner"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:       "info",
		WorldName:      "world",
		WorldSeed:      20240601,
		MinY:           0,
		MaxY:           128,
		TickInterval:   50 * time.Millisecond,
		StructuresFile: "config/structures.yaml",
		BlueprintDir:   "config/blueprints",
		LootFile:       "config/loot.yaml",
		Registry: RegistryConfig{
			MaxStored:          100,
			TTL:                300_000 * time.Second,
			JanitorPeriodTicks: 100,
		},
		Placement: PlacementConfig{
			ProbeLimit:   20,
			RegionOffset: 8,
			IgnoredMaterials: []string{
				"oak_leaves", "oak_log", "short_grass", "tall_grass", "snow",
			},
		},
		Fill: FillConfig{
			Quota:             40,
			PeriodTicks:       1,
			InitialDelayTicks: 1,
		},
		Generator: GeneratorConfig{
			Radius:   8,
			Interval: 5 * time.Millisecond,
		},
		Hooks: HooksConfig{
			MobSpawner: "log",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "structgen",
			Password: "structgen",
			DBName:   "structgen",
			SSLMode:  "disable",
		},
	}
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadServer loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
