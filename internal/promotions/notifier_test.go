package promotions_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/internal/audit"
	"github.com/SixtySecondsApp/use60-sub018/internal/confidence"
	"github.com/SixtySecondsApp/use60-sub018/internal/messaging"
	"github.com/SixtySecondsApp/use60-sub018/internal/promotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
	"github.com/SixtySecondsApp/use60-sub018/pkg/pagination"
)

type mockDirectory struct {
	chatUserID string
	err        error
}

func (m *mockDirectory) ChatUserID(context.Context, uuid.UUID) (string, error) {
	return m.chatUserID, m.err
}

type mockCredentials struct {
	webhookURL string
	err        error
}

func (m *mockCredentials) WebhookURL(context.Context, uuid.UUID) (string, error) {
	return m.webhookURL, m.err
}

type mockSender struct {
	sent []messaging.Message
	err  error
}

func (m *mockSender) Send(_ context.Context, _ string, msg messaging.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockAudit struct {
	recorded []audit.Event
	err      error
}

func (m *mockAudit) Handler() *audit.Handler { return nil }

func (m *mockAudit) Record(_ context.Context, event audit.Event) (*audit.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.recorded = append(m.recorded, event)
	return &event, nil
}

func (m *mockAudit) List(context.Context, pagination.PageRequest, audit.Filters) (*pagination.PageResult[audit.Event], error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleCandidates() []trust.PromotionCandidate {
	return []trust.PromotionCandidate{{
		UserID:         uuid.New(),
		OrgID:          uuid.New(),
		ActionType:     "draft_email",
		FromTier:       trust.TierSuggest,
		ToTier:         trust.TierApprove,
		CleanApprovals: 10,
		Confidence:     confidence.Aggregate{Score: 0.8, TotalSignals: 20},
		Reason:         "10 clean approvals for draft_email with confidence 0.80",
	}}
}

func TestNotifyDelivers(t *testing.T) {
	sender := &mockSender{}
	audits := &mockAudit{}
	n := promotions.NewNotifier(
		&mockDirectory{chatUserID: "U123"},
		&mockCredentials{webhookURL: "https://chat.example.com/hook"},
		sender,
		audits,
		testLogger(),
	)

	result, err := n.Notify(context.Background(), sampleCandidates())
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !result.Sent {
		t.Fatal("result.Sent = false, want true")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if sender.sent[0].Recipient != "U123" {
		t.Errorf("recipient = %q, want U123", sender.sent[0].Recipient)
	}

	if len(audits.recorded) != 1 {
		t.Fatalf("recorded %d audit events, want 1", len(audits.recorded))
	}
	if audits.recorded[0].Type != audit.EventPromotionProposed {
		t.Errorf("event type = %s, want promotion_proposed", audits.recorded[0].Type)
	}
}

func TestNotifySoftFailures(t *testing.T) {
	tests := []struct {
		name        string
		directory   *mockDirectory
		credentials *mockCredentials
	}{
		{
			"user not linked",
			&mockDirectory{err: messaging.ErrNotLinked},
			&mockCredentials{webhookURL: "https://chat.example.com/hook"},
		},
		{
			"org without credential",
			&mockDirectory{chatUserID: "U123"},
			&mockCredentials{err: messaging.ErrNoCredential},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{}
			audits := &mockAudit{}
			n := promotions.NewNotifier(tt.directory, tt.credentials, sender, audits, testLogger())

			result, err := n.Notify(context.Background(), sampleCandidates())
			if err != nil {
				t.Fatalf("Notify() error = %v, want nil soft failure", err)
			}
			if result.Sent {
				t.Fatal("result.Sent = true, want false")
			}
			if len(sender.sent) != 0 {
				t.Errorf("sent %d messages, want 0", len(sender.sent))
			}

			// Nothing was delivered, so nothing was proposed.
			if len(audits.recorded) != 0 {
				t.Errorf("recorded %d audit events, want 0", len(audits.recorded))
			}
		})
	}
}

func TestNotifyDeliveryFailure(t *testing.T) {
	sender := &mockSender{err: errors.New("webhook responded 503")}
	audits := &mockAudit{}
	n := promotions.NewNotifier(
		&mockDirectory{chatUserID: "U123"},
		&mockCredentials{webhookURL: "https://chat.example.com/hook"},
		sender,
		audits,
		testLogger(),
	)

	_, err := n.Notify(context.Background(), sampleCandidates())
	if err == nil {
		t.Fatal("Notify() error = nil, want transport error")
	}
	if len(audits.recorded) != 0 {
		t.Errorf("recorded %d audit events after failed delivery, want 0", len(audits.recorded))
	}
}

func TestNotifyAuditFailureIsBestEffort(t *testing.T) {
	sender := &mockSender{}
	n := promotions.NewNotifier(
		&mockDirectory{chatUserID: "U123"},
		&mockCredentials{webhookURL: "https://chat.example.com/hook"},
		sender,
		&mockAudit{err: errors.New("audit table locked")},
		testLogger(),
	)

	result, err := n.Notify(context.Background(), sampleCandidates())
	if err != nil {
		t.Fatalf("Notify() error = %v, want nil despite audit failure", err)
	}
	if !result.Sent {
		t.Fatal("result.Sent = false, want true despite audit failure")
	}
}

func TestNotifyEmptyCandidates(t *testing.T) {
	n := promotions.NewNotifier(&mockDirectory{}, &mockCredentials{}, &mockSender{}, &mockAudit{}, testLogger())

	result, err := n.Notify(context.Background(), nil)
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if result.Sent {
		t.Fatal("result.Sent = true for empty candidates")
	}
}
