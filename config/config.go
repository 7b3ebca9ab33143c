// Package config loads service settings from a YAML file, then applies
// environment overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvPort     = "CANVASBABEL_PORT"
	EnvStore    = "CANVASBABEL_STORE"
	EnvDBPath   = "CANVASBABEL_DB"
	EnvAPIToken = "CANVASBABEL_API_TOKEN"
	EnvBaseURL  = "CANVASBABEL_BASE_URL"
)

// Config is the top-level service configuration.
type Config struct {
	Port           int           `yaml:"port"`
	BaseURL        string        `yaml:"base_url"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	APIToken       string        `yaml:"api_token"`
	Store          StoreConfig   `yaml:"store"`
	Upload         UploadConfig  `yaml:"upload"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

// StoreConfig selects the bookmark backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite | memory
	Path   string `yaml:"path"`
}

// UploadConfig bounds image uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path if it is non-empty, then applies env overrides and
// defaults. A missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Port = p
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d/", c.Port)
	}
	if c.AllowedOrigins == nil {
		c.AllowedOrigins = []string{"http://localhost:3000", fmt.Sprintf("http://localhost:%d", c.Port)}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Path == "" && c.Store.Driver == "sqlite" {
		c.Store.Path = DefaultDBPath()
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 10 << 20
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 5 * time.Second
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store driver %q (want sqlite or memory)", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return errors.New("store.path is required for the sqlite driver")
	}
	return nil
}

// DefaultDBPath is ~/.canvasbabel/bookmarks.db, or a relative path when the
// home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".canvasbabel", "bookmarks.db")
	}
	return filepath.Join(home, ".canvasbabel", "bookmarks.db")
}
