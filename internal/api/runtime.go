package api

import (
	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/internal/infrastructure"
	"github.com/SixtySecondsApp/use60-sub018/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Engine     *config.EngineConfig
	Auth       *config.AuthConfig
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Tasks:     infra.Tasks,
		},
		Engine:     &cfg.Engine,
		Auth:       &cfg.Auth,
		Pagination: cfg.API.Pagination,
	}
}
