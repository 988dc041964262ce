package engine

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultTemperature float32 = 0.1

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o",
	ProviderGemini: "gemini-2.0-flash",
}

// Config holds generation service settings. Credentials are never part of
// the configuration; they are supplied with each request.
//
// Temperature and InlineErrors are pointers so that an explicit 0 or false
// is told apart from an absent setting.
type Config struct {
	Provider     string   `toml:"provider"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	Temperature  *float32 `toml:"temperature"`
	Timeout      string   `toml:"timeout"`
	InlineErrors *bool    `toml:"inline_errors"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider     string
	Model        string
	BaseURL      string
	Temperature  string
	Timeout      string
	InlineErrors string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// TemperatureValue returns the decoding temperature, or the default when unset.
func (c *Config) TemperatureValue() float32 {
	if c.Temperature == nil {
		return defaultTemperature
	}
	return *c.Temperature
}

// InlineErrorsEnabled reports whether generation errors are written into the
// updated text.
func (c *Config) InlineErrorsEnabled() bool {
	return c.InlineErrors != nil && *c.InlineErrors
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Temperature and InlineErrors
// apply whenever the overlay sets them.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Temperature != nil {
		t := *overlay.Temperature
		c.Temperature = &t
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.InlineErrors != nil {
		inline := *overlay.InlineErrors
		c.InlineErrors = &inline
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.Temperature == nil {
		t := defaultTemperature
		c.Temperature = &t
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Temperature != "" {
		if v := os.Getenv(env.Temperature); v != "" {
			if t, err := strconv.ParseFloat(v, 32); err == nil {
				temperature := float32(t)
				c.Temperature = &temperature
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.InlineErrors != "" {
		if v := os.Getenv(env.InlineErrors); v != "" {
			if inline, err := strconv.ParseBool(v); err == nil {
				c.InlineErrors = &inline
			}
		}
	}
}

func (c *Config) validate() error {
	if !validProvider(c.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if t := c.TemperatureValue(); t < 0 || t > 2 {
		return fmt.Errorf("invalid temperature: %v", t)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
