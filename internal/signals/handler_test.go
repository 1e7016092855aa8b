package signals_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/internal/identity"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
)

type mockSystem struct {
	recordFn func(ctx context.Context, key signals.Key, cmd signals.RecordCommand) (*signals.Signal, error)
}

func (m *mockSystem) Handler(d signals.Dispatcher) *signals.Handler {
	return signals.NewHandler(m, d, testLogger())
}

func (m *mockSystem) Record(ctx context.Context, key signals.Key, cmd signals.RecordCommand) (*signals.Signal, error) {
	return m.recordFn(ctx, key, cmd)
}

func (m *mockSystem) Window(context.Context, signals.Key, time.Time) ([]signals.Signal, error) {
	return nil, nil
}

func (m *mockSystem) Recent(context.Context, signals.Key, int) ([]signals.Signal, error) {
	return nil, nil
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*signals.Signal, error) {
	return nil, nil
}

type mockDispatcher struct {
	dispatched []signals.Signal
}

func (m *mockDispatcher) AfterSignal(sig signals.Signal) {
	m.dispatched = append(m.dispatched, sig)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMux(h *signals.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	id := &identity.Identity{UserID: uuid.New(), OrgID: uuid.New(), Email: "dev@example.com"}
	return req.WithContext(identity.WithIdentity(req.Context(), id))
}

func TestHandlerRecord(t *testing.T) {
	body := `{"action_type":"draft_email","agent_name":"inbox-agent","signal":"approved","autonomy_tier_at_time":"suggest"}`

	t.Run("records and dispatches", func(t *testing.T) {
		stored := signals.Signal{ID: uuid.New(), ActionType: "draft_email", Kind: signals.KindApproved}
		sys := &mockSystem{
			recordFn: func(_ context.Context, key signals.Key, cmd signals.RecordCommand) (*signals.Signal, error) {
				if key.ActionType != "draft_email" {
					t.Errorf("key.ActionType = %q, want draft_email", key.ActionType)
				}
				if cmd.Signal != "approved" {
					t.Errorf("cmd.Signal = %q, want approved", cmd.Signal)
				}
				return &stored, nil
			},
		}
		dispatcher := &mockDispatcher{}
		mux := setupMux(sys.Handler(dispatcher))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest("POST", "/signals", body))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["signal_id"] != stored.ID.String() {
			t.Errorf("signal_id = %q, want %q", resp["signal_id"], stored.ID)
		}

		if len(dispatcher.dispatched) != 1 {
			t.Fatalf("dispatched %d signals, want 1", len(dispatcher.dispatched))
		}
		if dispatcher.dispatched[0].ID != stored.ID {
			t.Errorf("dispatched signal ID = %s, want %s", dispatcher.dispatched[0].ID, stored.ID)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys.Handler(&mockDispatcher{}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/signals", strings.NewReader(body)))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys.Handler(&mockDispatcher{}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest("POST", "/signals", "{not json"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		sys := &mockSystem{
			recordFn: func(context.Context, signals.Key, signals.RecordCommand) (*signals.Signal, error) {
				return nil, fmt.Errorf("%w: unknown signal kind", signals.ErrValidation)
			},
		}
		dispatcher := &mockDispatcher{}
		mux := setupMux(sys.Handler(dispatcher))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest("POST", "/signals", body))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if len(dispatcher.dispatched) != 0 {
			t.Error("dispatcher invoked for a failed record")
		}
	})

	t.Run("persistence failure", func(t *testing.T) {
		sys := &mockSystem{
			recordFn: func(context.Context, signals.Key, signals.RecordCommand) (*signals.Signal, error) {
				return nil, fmt.Errorf("%w: connection reset", signals.ErrPersistence)
			},
		}
		mux := setupMux(sys.Handler(&mockDispatcher{}))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, authedRequest("POST", "/signals", body))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}
