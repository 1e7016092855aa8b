package signals

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/pkg/handlers"
	"github.com/SixtySecondsApp/use60-sub018/pkg/routes"
)

// Handler provides the HTTP ingestion endpoint for feedback signals.
type Handler struct {
	sys        System
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewHandler creates a Handler with the given system and background dispatcher.
func NewHandler(sys System, dispatcher Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		sys:        sys,
		dispatcher: dispatcher,
		logger:     logger.With("handler", "signals"),
	}
}

// Routes returns the route group definition for signal ingestion.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/signals",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Record},
		},
	}
}

// Record appends one feedback signal for the authenticated caller and
// dispatches recomputation in the background. The response reflects only
// whether the signal itself was durably recorded.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthorized)
		return
	}

	var cmd RecordCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	key := Key{UserID: id.UserID, OrgID: id.OrgID, ActionType: cmd.ActionType}

	sig, err := h.sys.Record(r.Context(), key, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.dispatcher != nil {
		h.dispatcher.AfterSignal(*sig)
	}

	handlers.RespondJSON(w, http.StatusCreated, map[string]any{"signal_id": sig.ID})
}
