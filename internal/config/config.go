// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Rooms   RoomsConfig   `yaml:"rooms"`
	Remote  RemoteConfig  `yaml:"remote"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxRequestSize int           `yaml:"max_request_size"`
	Concurrency    int           `yaml:"concurrency"`
	Warmup         bool          `yaml:"warmup"`
}

type LogConfig struct {
	File string `yaml:"file"`
	JSON bool   `yaml:"json"`
}

type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type RoomsConfig struct {
	ResultTTL     time.Duration `yaml:"result_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type RemoteConfig struct {
	Enabled   bool          `yaml:"enabled"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheSize int           `yaml:"cache_size"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxRequestSize: 1024 * 1024,
			Warmup:         true,
		},
		Store: StoreConfig{SQLitePath: "./data/rooms.db"},
		Rooms: RoomsConfig{
			ResultTTL:     2 * time.Minute,
			SweepInterval: 30 * time.Second,
		},
		Remote: RemoteConfig{
			BaseURL:   "https://generativelanguage.googleapis.com",
			Model:     "models/gemini-2.5-flash",
			APIKey:    "env:AI_STUDIO_KEY",
			Timeout:   20 * time.Second,
			CacheSize: 256,
		},
		Tracing: TracingConfig{ServiceName: "go-compatibility"},
	}
}

// Load reads path on top of the defaults, expands env references and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandEnv() {
	c.Remote.APIKey = expandEnvValue(c.Remote.APIKey)
	c.Tracing.Endpoint = expandEnvValue(c.Tracing.Endpoint)
}

// expandEnvValue resolves "env:NAME" to the value of the NAME variable.
func expandEnvValue(value string) string {
	const prefix = "env:"
	if !strings.HasPrefix(value, prefix) {
		return value
	}
	key := strings.TrimSpace(strings.TrimPrefix(value, prefix))
	if key == "" {
		return ""
	}
	return os.Getenv(key)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.MaxRequestSize <= 0 {
		return errors.New("config: server.max_request_size must be positive")
	}
	if c.Store.SQLitePath == "" {
		return errors.New("config: store.sqlite_path is required")
	}
	if c.Rooms.ResultTTL <= 0 {
		return errors.New("config: rooms.result_ttl must be positive")
	}
	if c.Rooms.SweepInterval <= 0 {
		return errors.New("config: rooms.sweep_interval must be positive")
	}
	if c.Remote.Enabled {
		if c.Remote.APIKey == "" {
			return errors.New("config: remote.api_key is required when remote.enabled is true")
		}
		if c.Remote.Timeout <= 0 {
			return errors.New("config: remote.timeout must be positive")
		}
	}
	if c.Remote.CacheSize < 0 {
		return fmt.Errorf("config: remote.cache_size must not be negative, got %d", c.Remote.CacheSize)
	}
	return nil
}
