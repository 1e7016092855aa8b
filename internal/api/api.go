// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"net/http"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/internal/infrastructure"
	"github.com/SixtySecondsApp/use60-sub018/pkg/middleware"
	"github.com/SixtySecondsApp/use60-sub018/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route behind the module prefix requires a resolved identity.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(ctx, runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(identity.Authenticate(domain.Identity, runtime.Logger))

	return m, nil
}
