package tasks

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config bounds concurrency and retention of asynchronous tasks.
type Config struct {
	MaxConcurrent int    `toml:"max_concurrent"`
	Capacity      int    `toml:"capacity"`
	Retention     string `toml:"retention"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxConcurrent string
	Capacity      string
	Retention     string
}

// RetentionDuration returns Retention as a time.Duration.
func (c *Config) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.Capacity != 0 {
		c.Capacity = overlay.Capacity
	}
	if overlay.Retention != "" {
		c.Retention = overlay.Retention
	}
}

func (c *Config) loadDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
	if c.Capacity == 0 {
		c.Capacity = 256
	}
	if c.Retention == "" {
		c.Retention = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrent = n
			}
		}
	}
	if env.Capacity != "" {
		if v := os.Getenv(env.Capacity); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Capacity = n
			}
		}
	}
	if env.Retention != "" {
		if v := os.Getenv(env.Retention); v != "" {
			c.Retention = v
		}
	}
}

func (c *Config) validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive: %d", c.MaxConcurrent)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be positive: %d", c.Capacity)
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return fmt.Errorf("invalid retention: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("retention must be positive: %s", c.Retention)
	}
	return nil
}
