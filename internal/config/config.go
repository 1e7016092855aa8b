// Package config loads and finalizes service configuration from TOML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/SixtySecondsApp/use60-sub018/pkg/database"
	"github.com/SixtySecondsApp/use60-sub018/pkg/tasks"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSixtyEnv             = "SIXTY_ENV"
	EnvSixtyShutdownTimeout = "SIXTY_SHUTDOWN_TIMEOUT"
	EnvSixtyVersion         = "SIXTY_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SIXTY_DB_HOST",
	Port:            "SIXTY_DB_PORT",
	Name:            "SIXTY_DB_NAME",
	User:            "SIXTY_DB_USER",
	Password:        "SIXTY_DB_PASSWORD",
	SSLMode:         "SIXTY_DB_SSL_MODE",
	MaxOpenConns:    "SIXTY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SIXTY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SIXTY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SIXTY_DB_CONN_TIMEOUT",
}

var tasksEnv = &tasks.ConfigEnv{
	MaxConcurrent: "SIXTY_TASKS_MAX_CONCURRENT",
	TaskTimeout:   "SIXTY_TASKS_TASK_TIMEOUT",
}

// Config is the root configuration for the autonomy engine service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Auth            AuthConfig      `toml:"auth"`
	API             APIConfig       `toml:"api"`
	Engine          EngineConfig    `toml:"engine"`
	Tasks           tasks.Config    `toml:"tasks"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SIXTY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSixtyEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
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

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
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
	c.Database.Merge(&overlay.Database)
	c.Auth.Merge(&overlay.Auth)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Tasks.Merge(&overlay.Tasks)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Engine.Finalize(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Tasks.Finalize(tasksEnv); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	return nil
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
	if v := os.Getenv(EnvSixtyShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSixtyVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
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
	if env := os.Getenv(EnvSixtyEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
