package tasks

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds background task queue settings.
type Config struct {
	MaxConcurrent int    `toml:"max_concurrent"`
	TaskTimeout   string `toml:"task_timeout"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	MaxConcurrent string
	TaskTimeout   string
}

// TaskTimeoutDuration returns TaskTimeout as a time.Duration.
func (c *Config) TaskTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.TaskTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
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
	if overlay.TaskTimeout != "" {
		c.TaskTimeout = overlay.TaskTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 16
	}
	if c.TaskTimeout == "" {
		c.TaskTimeout = "30s"
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrent = n
			}
		}
	}
	if env.TaskTimeout != "" {
		if v := os.Getenv(env.TaskTimeout); v != "" {
			c.TaskTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be positive: %d", c.MaxConcurrent)
	}
	if _, err := time.ParseDuration(c.TaskTimeout); err != nil {
		return fmt.Errorf("invalid task_timeout: %w", err)
	}
	return nil
}
