package config

import (
	"fmt"
	"os"

	"github.com/SixtySecondsApp/use60-sub018/pkg/middleware"
	"github.com/SixtySecondsApp/use60-sub018/pkg/openapi"
	"github.com/SixtySecondsApp/use60-sub018/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SIXTY_CORS_ENABLED",
	Origins:          "SIXTY_CORS_ORIGINS",
	AllowedMethods:   "SIXTY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SIXTY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SIXTY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SIXTY_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SIXTY_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SIXTY_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "SIXTY_OPENAPI_TITLE",
	Description: "SIXTY_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
	OpenAPI    openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, pagination, and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("SIXTY_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}
