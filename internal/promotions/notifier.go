package promotions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SixtySecondsApp/use60-sub018/internal/audit"
	"github.com/SixtySecondsApp/use60-sub018/internal/messaging"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

var nudgesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "promotion_nudges_delivered_total",
	Help: "Promotion nudge delivery attempts, by outcome.",
}, []string{"outcome"})

// Result reports whether a chat delivery actually happened. Sent=false with
// a nil error means the user or org has no chat surface, which is expected.
type Result struct {
	Sent   bool
	Reason string
}

// Notifier renders and delivers promotion proposals over chat.
type Notifier struct {
	directory   messaging.Directory
	credentials messaging.Credentials
	sender      messaging.Sender
	audits      audit.System
	logger      *slog.Logger
}

// NewNotifier creates a Notifier with the given messaging collaborators.
func NewNotifier(
	directory messaging.Directory,
	credentials messaging.Credentials,
	sender messaging.Sender,
	audits audit.System,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		directory:   directory,
		credentials: credentials,
		sender:      sender,
		audits:      audits,
		logger:      logger.With("system", "promotions"),
	}
}

// Notify delivers one chat message covering all the given candidates, which
// must belong to the same user. Missing chat identity or credentials is a
// soft outcome, not an error; only unexpected resolution or transport
// failures return one. The promotion_proposed audit events are written
// only after a successful delivery.
func (n *Notifier) Notify(ctx context.Context, candidates []trust.PromotionCandidate) (Result, error) {
	if len(candidates) == 0 {
		return Result{Sent: false, Reason: "no candidates"}, nil
	}

	userID, orgID := candidates[0].UserID, candidates[0].OrgID

	chatUserID, err := n.directory.ChatUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, messaging.ErrNotLinked) {
			nudgesDelivered.WithLabelValues("not_linked").Inc()
			n.logger.Info("skipping chat nudge", "user_id", userID, "reason", "no linked chat identity")
			return Result{Sent: false, Reason: "user not linked to chat"}, nil
		}
		nudgesDelivered.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("resolve chat identity: %w", err)
	}

	webhookURL, err := n.credentials.WebhookURL(ctx, orgID)
	if err != nil {
		if errors.Is(err, messaging.ErrNoCredential) {
			nudgesDelivered.WithLabelValues("no_credential").Inc()
			n.logger.Info("skipping chat nudge", "org_id", orgID, "reason", "no messaging credential")
			return Result{Sent: false, Reason: "org has no messaging credential"}, nil
		}
		nudgesDelivered.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("resolve messaging credential: %w", err)
	}

	msg := BuildMessage(chatUserID, candidates)
	if err := n.sender.Send(ctx, webhookURL, msg); err != nil {
		nudgesDelivered.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("deliver promotion nudge: %w", err)
	}

	nudgesDelivered.WithLabelValues("sent").Inc()
	n.logger.Info("promotion nudge delivered",
		"user_id", userID,
		"candidates", len(candidates),
	)
	n.recordProposals(ctx, candidates)
	return Result{Sent: true}, nil
}

// recordProposals writes one promotion_proposed event per candidate, each
// carrying the triggering confidence snapshot. Best-effort: failures are
// logged and never affect the notify outcome.
func (n *Notifier) recordProposals(ctx context.Context, candidates []trust.PromotionCandidate) {
	if n.audits == nil {
		return
	}

	for _, c := range candidates {
		_, err := n.audits.Record(ctx, audit.Event{
			UserID:     c.UserID,
			OrgID:      c.OrgID,
			ActionType: c.ActionType,
			Type:       audit.EventPromotionProposed,
			Reason:     c.Reason,
			Snapshot: map[string]any{
				"from_tier":       c.FromTier,
				"to_tier":         c.ToTier,
				"clean_approvals": c.CleanApprovals,
				"confidence":      c.Confidence,
			},
		})
		if err != nil {
			n.logger.Warn("audit write failed",
				"event_type", audit.EventPromotionProposed,
				"user_id", c.UserID,
				"action_type", c.ActionType,
				"error", err,
			)
		}
	}
}
