package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvAuthIssuer   = "SIXTY_AUTH_ISSUER"
	EnvAuthAudience = "SIXTY_AUTH_AUDIENCE"
	EnvAuthEnabled  = "SIXTY_AUTH_ENABLED"
)

// AuthConfig holds OIDC token verification settings. When disabled the API
// accepts a caller-supplied subject header, which is only suitable for local
// development.
type AuthConfig struct {
	Enabled  bool   `toml:"enabled"`
	Issuer   string `toml:"issuer"`
	Audience string `toml:"audience"`
}

// Finalize applies environment variable overrides and validation.
func (c *AuthConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled

	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvAuthIssuer); v != "" {
		c.Issuer = v
	}
	if v := os.Getenv(EnvAuthAudience); v != "" {
		c.Audience = v
	}
}

func (c *AuthConfig) validate() error {
	if c.Enabled && c.Issuer == "" {
		return fmt.Errorf("auth enabled without issuer")
	}
	if c.Enabled && c.Audience == "" {
		return fmt.Errorf("auth enabled without audience")
	}
	return nil
}
