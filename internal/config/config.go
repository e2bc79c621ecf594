// Package config loads techninja.yaml.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/techninja/techninja/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the data directory.
const DefaultPath = "techninja.yaml"

// Source kinds.
const (
	SourceDir    = "dir"
	SourceRemote = "remote"
	SourceLoam   = "loam"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config is the full CLI configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" json:"source"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Session SessionConfig `yaml:"session" json:"session"`
	Log     LogConfig     `yaml:"log" json:"log"`
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
}

// SourceConfig selects where machine documents come from.
type SourceConfig struct {
	Kind  string `yaml:"kind" json:"kind"`
	Dir   string `yaml:"dir" json:"dir"`
	URL   string `yaml:"url" json:"url"`
	Index string `yaml:"index" json:"index"`
}

// StoreConfig selects the snapshot backend.
type StoreConfig struct {
	Kind     string `yaml:"kind" json:"kind"`
	Path     string `yaml:"path" json:"path"`
	RedisURL string `yaml:"redisURL" json:"redisURL"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	TTL      string `yaml:"ttl" json:"ttl"`
}

// SessionConfig names the stored session.
type SessionConfig struct {
	Key string `yaml:"key" json:"key"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// HTTPConfig controls `techninja serve`.
type HTTPConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Source:  SourceConfig{Kind: SourceDir, Dir: ".", Index: domain.DefaultIndexPath},
		Store:   StoreConfig{Kind: StoreFile, Path: filepath.Join(".techninja", "sessions")},
		Session: SessionConfig{Key: domain.DefaultSessionKey},
		Log:     LogConfig{Level: "info", Format: "text"},
		HTTP:    HTTPConfig{Addr: ":8080", Metrics: true},
	}
}

// Load reads a configuration file (YAML or JSON). A missing file yields the defaults.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks kinds and required fields.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDir, SourceLoam:
	case SourceRemote:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for the remote source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redisURL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}

	if _, err := c.Store.TTLDuration(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// TTLDuration parses Store.TTL. An empty TTL means no expiry.
func (s StoreConfig) TTLDuration() (time.Duration, error) {
	if s.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid store.ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid store.ttl: %s is negative", s.TTL)
	}
	return d, nil
}

// Resolve makes relative paths relative to base.
func (c *Config) Resolve(base string) {
	if c.Source.Dir != "" && !filepath.IsAbs(c.Source.Dir) {
		c.Source.Dir = filepath.Join(base, c.Source.Dir)
	}
	if c.Store.Path != "" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(base, c.Store.Path)
	}
}
