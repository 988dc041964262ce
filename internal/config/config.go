// Package config loads the service configuration from TOML files, a .env file
// and NUNC_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/nunc/internal/engine"
	"github.com/JaimeStill/nunc/internal/tasks"
	"github.com/JaimeStill/nunc/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvNuncEnv             = "NUNC_ENV"
	EnvNuncShutdownTimeout = "NUNC_SHUTDOWN_TIMEOUT"
	EnvNuncVersion         = "NUNC_VERSION"
)

var engineEnv = &engine.Env{
	Provider:     "NUNC_ENGINE_PROVIDER",
	Model:        "NUNC_ENGINE_MODEL",
	BaseURL:      "NUNC_ENGINE_BASE_URL",
	Temperature:  "NUNC_ENGINE_TEMPERATURE",
	Timeout:      "NUNC_ENGINE_TIMEOUT",
	InlineErrors: "NUNC_ENGINE_INLINE_ERRORS",
}

var tasksEnv = &tasks.Env{
	MaxConcurrent: "NUNC_TASKS_MAX_CONCURRENT",
	Capacity:      "NUNC_TASKS_CAPACITY",
	Retention:     "NUNC_TASKS_RETENTION",
}

var storageEnv = &storage.Env{
	Enabled:          "NUNC_STORAGE_ENABLED",
	ContainerName:    "NUNC_STORAGE_CONTAINER_NAME",
	ConnectionString: "NUNC_STORAGE_CONNECTION_STRING",
	AccountURL:       "NUNC_STORAGE_ACCOUNT_URL",
}

// Config is the root configuration for the NUNC service. It never carries a
// generation service credential: those arrive with each request.
type Config struct {
	Server          ServerConfig   `toml:"server"`
	API             APIConfig      `toml:"api"`
	Engine          engine.Config  `toml:"engine"`
	Tasks           tasks.Config   `toml:"tasks"`
	Storage         storage.Config `toml:"storage"`
	ShutdownTimeout string         `toml:"shutdown_timeout"`
	Version         string         `toml:"version"`
}

// Env returns the NUNC_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvNuncEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads a .env file and the base config (when present), applies any
// environment overlay, and finalizes all values. Without config.toml,
// defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Finalize applies defaults, environment overrides and validation to every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Engine.Finalize(engineEnv); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Tasks.Finalize(tasksEnv); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Tasks.Merge(&overlay.Tasks)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvNuncShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvNuncVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// loadDotEnv exports variables from .env without replacing ones already set.
func loadDotEnv() error {
	if _, err := os.Stat(DotEnvFile); err != nil {
		return nil
	}
	if err := godotenv.Load(DotEnvFile); err != nil {
		return fmt.Errorf("load %s: %w", DotEnvFile, err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvNuncEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
