// Package config loads the settings of the JSON-LD engine and its triple
// store from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/twinfer/ldbridge"
	"github.com/twinfer/ldbridge/jsonld"
)

// Config is the complete engine configuration. Environment variables take
// precedence over the YAML file, which takes precedence over defaults.
type Config struct {
	// Strict rejects documents with members their context does not define.
	Strict bool `yaml:"strict" env:"JSONLD_STRICT"`
	// PersistContext stores the context IRI alongside written resources.
	PersistContext bool `yaml:"persist_context" env:"JSONLD_PERSIST_CONTEXT"`
	// LimitCompaction drops compacted members the context does not declare.
	LimitCompaction bool `yaml:"limit_compaction" env:"JSONLD_CONTEXT_MINIMAL"`
	// DefaultContext is the context IRI used for compaction and for patches
	// that carry none.
	DefaultContext string `yaml:"compaction_uri" env:"COMPACTION_URI"`
	// Preload lists "iri|file" pairs served without network access.
	Preload []string `yaml:"preload" env:"COMPACTION_PRELOAD" envSeparator:","`
	// FetchTimeout bounds remote context fetches.
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"JSONLD_FETCH_TIMEOUT"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Store StoreConfig `yaml:"store"`
}

// StoreConfig selects the triple store backend.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"STORE_DRIVER"`
	// DSN is a SQLite path (":memory:" for a private in-memory database) or
	// a PostgreSQL connection string.
	DSN string `yaml:"dsn" env:"STORE_DSN"`
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		FetchTimeout: 10 * time.Second,
		LogLevel:     "info",
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.PreloadTable(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch_timeout must not be negative")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return errors.New("store.dsn is required")
	}
	return nil
}

// PreloadTable parses Preload into a map from context IRI to file path.
func (c *Config) PreloadTable() (map[string]string, error) {
	table := make(map[string]string, len(c.Preload))
	for _, entry := range c.Preload {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		iri, path, ok := strings.Cut(entry, "|")
		iri, path = strings.TrimSpace(iri), strings.TrimSpace(path)
		if !ok || iri == "" || path == "" {
			return nil, fmt.Errorf("invalid preload entry %q: want iri|file", entry)
		}
		if prev, dup := table[iri]; dup && prev != path {
			return nil, fmt.Errorf("context %s preloaded from both %s and %s", iri, prev, path)
		}
		table[iri] = path
	}
	return table, nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// NewLoader returns a context loader holding the preloaded documents and
// fetching everything else over HTTP.
func (c *Config) NewLoader() (*jsonld.Loader, error) {
	table, err := c.PreloadTable()
	if err != nil {
		return nil, err
	}
	loader := jsonld.NewLoader(&http.Client{Timeout: c.FetchTimeout})
	if err := loader.Preload(table); err != nil {
		return nil, err
	}
	return loader, nil
}

// EngineOptions returns the options shared by the engine components.
func (c *Config) EngineOptions(loader *jsonld.Loader, logger *slog.Logger, metrics *jsonld.Metrics) *jsonld.Options {
	opts := &jsonld.Options{
		Strict:          c.Strict,
		PersistContext:  c.PersistContext,
		LimitCompaction: c.LimitCompaction,
		Logger:          logger,
		Metrics:         metrics,
	}
	if loader != nil {
		opts.Loader = loader
	}
	return opts
}

// OpenStore opens the configured triple store.
func (c *Config) OpenStore(logger *slog.Logger) (*ldbridge.TripleStore, error) {
	var opts []ldbridge.StoreOption
	if logger != nil {
		opts = append(opts, ldbridge.WithLogger(logger))
	}
	switch c.Store.Driver {
	case "sqlite":
		return ldbridge.NewTripleStoreSQLite(c.Store.DSN, opts...)
	case "postgres":
		return ldbridge.NewTripleStorePostgreSQL(c.Store.DSN, opts...)
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
}
