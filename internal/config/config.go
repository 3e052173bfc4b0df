package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/pathfinder"
)

// DefaultPath is the config file read when TILEPATH_CONFIG is not set.
const DefaultPath = "config/tilepath.yaml"

// EnvPath names the environment variable overriding the config path.
const EnvPath = "TILEPATH_CONFIG"

// Tilepath holds all configuration for the pathfinder binaries.
type Tilepath struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Data       DataConfig          `yaml:"data"`
	Cache      CacheConfig         `yaml:"cache"`
	Pathfinder pathfinder.Settings `yaml:"pathfinder"`
	Database   DatabaseConfig      `yaml:"database"`
	Feed       FeedConfig          `yaml:"feed"`
}

// DataConfig locates the datasets.
type DataConfig struct {
	CollisionDir  string `yaml:"collision_dir"`
	TransportsDir string `yaml:"transports_dir"`

	// Optional hex blake2b-256 digest of the collision dataset.
	CollisionDigest string `yaml:"collision_digest"`
}

// CacheConfig bounds decoded collision regions kept in memory.
type CacheConfig struct {
	MaxBytes int `yaml:"max_bytes"`
}

// DatabaseConfig holds PostgreSQL connection parameters. The database is
// optional: it only supplies character capabilities.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	// Character whose levels and quests gate transports.
	Character string `yaml:"character"`
	// How often the character record is re-read.
	ReloadInterval time.Duration `yaml:"reload_interval"`
	// Store the outcome of every finished feed search.
	LogSearches bool `yaml:"log_searches"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// FeedConfig configures the live path websocket feed.
type FeedConfig struct {
	BindAddress  string        `yaml:"bind_address"`
	Port         int           `yaml:"port"`
	PushInterval time.Duration `yaml:"push_interval"`
	MaxSessions  int           `yaml:"max_sessions"`
}

// Addr returns host:port for listening.
func (f FeedConfig) Addr() string {
	return fmt.Sprintf("%s:%d", f.BindAddress, f.Port)
}

// Default returns config with sensible defaults.
func Default() Tilepath {
	return Tilepath{
		LogLevel: "info",
		Data: DataConfig{
			CollisionDir:  "data/collision",
			TransportsDir: "data/transports",
		},
		Cache: CacheConfig{
			MaxBytes: geo.DefaultCacheBytes,
		},
		Pathfinder: pathfinder.DefaultSettings(),
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "tilepath",
			Password: "tilepath",
			DBName:   "tilepath",
			SSLMode:  "disable",

			ReloadInterval: 30 * time.Second,
		},
		Feed: FeedConfig{
			BindAddress:  "0.0.0.0",
			Port:         7780,
			PushInterval: 100 * time.Millisecond,
			MaxSessions:  256,
		},
	}
}

// Path returns the config path from TILEPATH_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Tilepath, error) {
	cfg := Default()

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

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values no component can work with.
func (c Tilepath) Validate() error {
	if c.Pathfinder.CalculationCutoff < 0 {
		return fmt.Errorf("pathfinder.calculation_cutoff must not be negative, got %d", c.Pathfinder.CalculationCutoff)
	}
	if c.Cache.MaxBytes < 0 {
		return fmt.Errorf("cache.max_bytes must not be negative, got %d", c.Cache.MaxBytes)
	}
	if c.Feed.PushInterval <= 0 {
		return fmt.Errorf("feed.push_interval must be positive, got %s", c.Feed.PushInterval)
	}
	if c.Database.Enabled && c.Database.Character == "" {
		return fmt.Errorf("database.character is required when the database is enabled")
	}
	if c.Database.Enabled && c.Database.ReloadInterval <= 0 {
		return fmt.Errorf("database.reload_interval must be positive, got %s", c.Database.ReloadInterval)
	}
	if c.Feed.Port < 0 || c.Feed.Port > 65535 {
		return fmt.Errorf("feed.port out of range: %d", c.Feed.Port)
	}
	return nil
}
