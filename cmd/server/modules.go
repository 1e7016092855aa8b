package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SixtySecondsApp/use60-sub018/internal/api"
	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/internal/infrastructure"
	"github.com/SixtySecondsApp/use60-sub018/pkg/module"
	"github.com/SixtySecondsApp/use60-sub018/pkg/openapi"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(context.Background(), cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) (*module.Router, error) {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	router.HandleNative("GET /metrics", promhttp.Handler().ServeHTTP)

	spec, err := api.BuildSpec(cfg)
	if err != nil {
		return nil, err
	}
	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	router.HandleNative("GET /openapi.json", openapi.ServeSpec(specBytes))

	return router, nil
}
