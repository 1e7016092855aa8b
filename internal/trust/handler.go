package trust

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/pkg/handlers"
	"github.com/SixtySecondsApp/use60-sub018/pkg/routes"
)

// Handler provides the HTTP surface for trust state inspection, promotion
// decisions, and the one-shot nudge read.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "trust"),
	}
}

// Routes returns the route group definition for trust state endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/trust",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{actionType}", Handler: h.Find},
			{Method: "POST", Pattern: "/{actionType}/promotion", Handler: h.Decide},
		},
	}
}

// NudgeRoutes returns the nudge retrieval route, mounted under the signals
// prefix so that recording feedback and polling for nudges share a resource.
func (h *Handler) NudgeRoutes() routes.Group {
	return routes.Group{
		Prefix: "/signals",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/nudge", Handler: h.Nudge},
		},
	}
}

// List returns every trust state for the authenticated caller.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthorized)
		return
	}

	states, err := h.sys.States(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"states": states})
}

// Find returns the trust state for one action type.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthorized)
		return
	}

	state, err := h.sys.Find(r.Context(), id.UserID, r.PathValue("actionType"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

type decideRequest struct {
	Decision Decision `json:"decision"`
}

// Decide applies the caller's response to a promotion proposal.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthorized)
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	state, err := h.sys.Decide(r.Context(), id.UserID, r.PathValue("actionType"), req.Decision)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// Nudge returns and clears the caller's first pending promotion nudge.
// Responds {"nudge": null} when none is pending.
func (h *Handler) Nudge(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthorized)
		return
	}

	nudge, err := h.sys.ConsumeNudge(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{"nudge": nudge})
}
