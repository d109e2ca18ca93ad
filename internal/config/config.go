// Package config loads the triplestore configuration file.
//
// Config file locations (priority order):
//  1. $TRIPLESTORE_CONFIG
//  2. ./triplestore.yaml
//  3. $XDG_CONFIG_HOME/triplestore/config.yaml
//  4. ~/.config/triplestore/config.yaml
//
// $TRIPLESTORE_DB, when set, overrides database.path from any source.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/triplestore/internal/store"
)

// DefaultDatabasePath is used when neither the file nor the environment
// names a database.
const DefaultDatabasePath = "./triplestore.db"

// Config is the on-disk configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema,omitempty"`
}

// DatabaseConfig selects and tunes the backing store.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	Driver        string `yaml:"driver,omitempty"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms,omitempty"`
	// Pointers so that an absent key keeps the default rather than false.
	ForeignKeys  *bool `yaml:"foreign_keys,omitempty"`
	UniqueLabels *bool `yaml:"unique_labels,omitempty"`
}

// SchemaConfig points at optional payload validation.
type SchemaConfig struct {
	// Properties is a CUE file defining #Properties.
	Properties string `yaml:"properties,omitempty"`
}

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is empty when defaults were used.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Database.Driver == "" {
		c.Database.Driver = string(store.DriverCGO)
	}
	if c.Database.ForeignKeys == nil {
		c.Database.ForeignKeys = boolPtr(true)
	}
	if c.Database.UniqueLabels == nil {
		c.Database.UniqueLabels = boolPtr(true)
	}
}

func (c *Config) applyEnv() {
	if path := os.Getenv(EnvDatabasePath); path != "" {
		c.Database.Path = path
	}
}

// Validate reports settings the store cannot honour.
func (c *Config) Validate() error {
	switch store.Driver(c.Database.Driver) {
	case store.DriverCGO, store.DriverPureGo:
	default:
		return fmt.Errorf("database.driver: unknown driver %q (want %q or %q)",
			c.Database.Driver, store.DriverCGO, store.DriverPureGo)
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database.busy_timeout_ms: must not be negative, got %d", c.Database.BusyTimeoutMS)
	}
	return nil
}

// StoreOptions converts the database section into store options.
func (c *Config) StoreOptions(logger *slog.Logger) store.Options {
	return store.Options{
		Path:                 c.Database.Path,
		Driver:               store.Driver(c.Database.Driver),
		BusyTimeout:          time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond,
		DisableForeignKeys:   !boolOr(c.Database.ForeignKeys, true),
		AllowDuplicateLabels: !boolOr(c.Database.UniqueLabels, true),
		Logger:               logger,
	}
}

func boolPtr(b bool) *bool { return &b }

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
