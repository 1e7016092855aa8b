package trust_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
	"github.com/SixtySecondsApp/use60-sub018/pkg/routes"
)

type mockSystem struct {
	findFn    func(ctx context.Context, userID uuid.UUID, actionType string) (*trust.State, error)
	statesFn  func(ctx context.Context, userID uuid.UUID) ([]trust.State, error)
	consumeFn func(ctx context.Context, userID uuid.UUID) (*trust.Nudge, error)
	decideFn  func(ctx context.Context, userID uuid.UUID, actionType string, decision trust.Decision) (*trust.State, error)
}

func (m *mockSystem) Handler() *trust.Handler {
	return trust.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Find(ctx context.Context, userID uuid.UUID, actionType string) (*trust.State, error) {
	return m.findFn(ctx, userID, actionType)
}

func (m *mockSystem) States(ctx context.Context, userID uuid.UUID) ([]trust.State, error) {
	return m.statesFn(ctx, userID)
}

func (m *mockSystem) Recalculate(context.Context, signals.Key) (*trust.State, error) {
	return nil, nil
}

func (m *mockSystem) ProposeIfEligible(context.Context, signals.Key) (*trust.PromotionCandidate, error) {
	return nil, nil
}

func (m *mockSystem) ConsumeNudge(ctx context.Context, userID uuid.UUID) (*trust.Nudge, error) {
	return m.consumeFn(ctx, userID)
}

func (m *mockSystem) Demote(context.Context, signals.Key, string, string) (*trust.State, error) {
	return nil, nil
}

func (m *mockSystem) Decide(ctx context.Context, userID uuid.UUID, actionType string, decision trust.Decision) (*trust.State, error) {
	return m.decideFn(ctx, userID, actionType, decision)
}

func TestHandlerNudge(t *testing.T) {
	userID := uuid.New()

	t.Run("returns pending nudge", func(t *testing.T) {
		sys := &mockSystem{
			consumeFn: func(_ context.Context, id uuid.UUID) (*trust.Nudge, error) {
				if id != userID {
					t.Errorf("userID = %s, want %s", id, userID)
				}
				return &trust.Nudge{ActionType: "draft_email", Message: "ready for approve"}, nil
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("GET", "/signals/nudge", "", userID))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp struct {
			Nudge *trust.Nudge `json:"nudge"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Nudge == nil || resp.Nudge.ActionType != "draft_email" {
			t.Fatalf("nudge = %+v, want draft_email nudge", resp.Nudge)
		}
	})

	t.Run("null when none pending", func(t *testing.T) {
		sys := &mockSystem{
			consumeFn: func(context.Context, uuid.UUID) (*trust.Nudge, error) {
				return nil, nil
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("GET", "/signals/nudge", "", userID))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp map[string]json.RawMessage
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if string(resp["nudge"]) != "null" {
			t.Fatalf("nudge = %s, want null", resp["nudge"])
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		sys := &mockSystem{}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/signals/nudge", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestHandlerDecide(t *testing.T) {
	userID := uuid.New()

	t.Run("applies decision", func(t *testing.T) {
		sys := &mockSystem{
			decideFn: func(_ context.Context, id uuid.UUID, actionType string, decision trust.Decision) (*trust.State, error) {
				if actionType != "draft_email" {
					t.Errorf("actionType = %q, want draft_email", actionType)
				}
				if decision != trust.DecisionAccept {
					t.Errorf("decision = %q, want accept", decision)
				}
				return &trust.State{UserID: id, ActionType: actionType, Tier: trust.TierApprove}, nil
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("POST", "/trust/draft_email/promotion", `{"decision":"accept"}`, userID))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var state trust.State
		if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if state.Tier != trust.TierApprove {
			t.Errorf("tier = %s, want approve", state.Tier)
		}
	})

	t.Run("invalid decision", func(t *testing.T) {
		sys := &mockSystem{
			decideFn: func(_ context.Context, _ uuid.UUID, _ string, decision trust.Decision) (*trust.State, error) {
				return nil, trust.ErrInvalidDecision
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("POST", "/trust/draft_email/promotion", `{"decision":"maybe"}`, userID))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("accept at ceiling conflicts", func(t *testing.T) {
		sys := &mockSystem{
			decideFn: func(context.Context, uuid.UUID, string, trust.Decision) (*trust.State, error) {
				return nil, trust.ErrAtCeiling
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("POST", "/trust/draft_email/promotion", `{"decision":"accept"}`, userID))

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	userID := uuid.New()

	t.Run("unknown action type", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID, string) (*trust.State, error) {
				return nil, trust.ErrNotFound
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("GET", "/trust/unknown_action", "", userID))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("lists states", func(t *testing.T) {
		sys := &mockSystem{
			statesFn: func(context.Context, uuid.UUID) ([]trust.State, error) {
				return []trust.State{
					{ActionType: "draft_email", Tier: trust.TierApprove},
					{ActionType: "schedule_meeting", Tier: trust.TierSuggest},
				}, nil
			},
		}
		mux := buildMux(sys.Handler())

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authed("GET", "/trust", "", userID))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp struct {
			States []trust.State `json:"states"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.States) != 2 {
			t.Fatalf("len(states) = %d, want 2", len(resp.States))
		}
	})
}

func buildMux(h *trust.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	for _, group := range []routes.Group{h.Routes(), h.NudgeRoutes()} {
		for _, route := range group.Routes {
			pattern := route.Method + " " + group.Prefix + route.Pattern
			mux.HandleFunc(pattern, route.Handler)
		}
	}
	return mux
}

func authed(method, target, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	id := &identity.Identity{UserID: userID, OrgID: uuid.New()}
	return req.WithContext(identity.WithIdentity(req.Context(), id))
}
