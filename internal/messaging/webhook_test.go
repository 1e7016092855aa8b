package messaging_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SixtySecondsApp/use60-sub018/internal/messaging"
)

func sampleMessage() messaging.Message {
	return messaging.Message{
		Recipient: "U123",
		Sections:  []messaging.Section{{Text: "Ready for more autonomy?"}},
		Buttons: []messaging.Button{
			{Label: "Yes", Payload: `{"action":"accept"}`},
		},
	}
}

func TestWebhookSender(t *testing.T) {
	t.Run("posts JSON payload", func(t *testing.T) {
		var received messaging.Message
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %s, want application/json", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sender := messaging.NewWebhookSender(5 * time.Second)
		if err := sender.Send(context.Background(), srv.URL, sampleMessage()); err != nil {
			t.Fatalf("Send() = %v", err)
		}

		if received.Recipient != "U123" {
			t.Errorf("recipient = %q, want U123", received.Recipient)
		}
		if len(received.Buttons) != 1 {
			t.Errorf("len(buttons) = %d, want 1", len(received.Buttons))
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		sender := messaging.NewWebhookSender(5 * time.Second)
		if err := sender.Send(context.Background(), srv.URL, sampleMessage()); err == nil {
			t.Fatal("Send() = nil, want error for 503")
		}
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		sender := messaging.NewWebhookSender(500 * time.Millisecond)
		err := sender.Send(context.Background(), "http://127.0.0.1:1/hook", sampleMessage())
		if err == nil {
			t.Fatal("Send() = nil, want transport error")
		}
	})
}
