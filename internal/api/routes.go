package api

import (
	"net/http"

	"github.com/SixtySecondsApp/use60-sub018/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	trustHandler := domain.Trust.Handler()

	routes.Register(
		mux,
		domain.Signals.Handler(domain.Engine).Routes(),
		trustHandler.NudgeRoutes(),
		trustHandler.Routes(),
		domain.Audit.Handler().Routes(),
	)
}
