// Package config loads the application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/wizvis/pkg/adapters/file"
	"github.com/aretw0/wizvis/pkg/adapters/memory"
	"github.com/aretw0/wizvis/pkg/adapters/redis"
	"github.com/aretw0/wizvis/pkg/ports"
	"github.com/aretw0/wizvis/pkg/recent"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "wizvis.yaml"

// Config is the application configuration.
type Config struct {
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	Recent   RecentConfig `mapstructure:"recent" yaml:"recent"`
	HTTP     HTTPConfig   `mapstructure:"http" yaml:"http"`
}

// RecentConfig selects where the recent definitions list lives.
type RecentConfig struct {
	// Backend is one of memory, file or redis.
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"`
	Limit   int         `mapstructure:"limit" yaml:"limit"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis recent store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Port    int  `mapstructure:"port" yaml:"port"`
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Recent: RecentConfig{
			Backend: "file",
			Path:    defaultRecentPath(),
			Limit:   recent.DefaultLimit,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "wizvis:",
			},
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Metrics: true,
		},
	}
}

func defaultRecentPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return file.DefaultPath
	}
	return filepath.Join(dir, "wizvis", "recent.yaml")
}

// Load reads the configuration at path over the defaults.
// With an empty path, DefaultFile is used if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Recent.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown recent backend %q (want memory, file or redis)", c.Recent.Backend)
	}
	if c.Recent.Limit <= 0 {
		return fmt.Errorf("recent limit must be positive, got %d", c.Recent.Limit)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	return nil
}

// Store builds the configured recent store.
func (c RecentConfig) Store() (ports.RecentStore, error) {
	switch c.Backend {
	case "memory":
		return memory.NewRecentStore(), nil
	case "file":
		return file.New(c.Path), nil
	case "redis":
		return redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, redis.WithPrefix(c.Redis.Prefix)), nil
	default:
		return nil, fmt.Errorf("unknown recent backend %q", c.Backend)
	}
}
