package trust

import (
	"context"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
)

// System defines the public contract for the tier state machine.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, userID uuid.UUID, actionType string) (*State, error)
	States(ctx context.Context, userID uuid.UUID) ([]State, error)

	// Recalculate rebuilds the confidence aggregate for a key from its
	// trailing signal window and upserts the scored fields. Control-plane
	// fields are never written by this path.
	Recalculate(ctx context.Context, key signals.Key) (*State, error)

	// ProposeIfEligible checks the promotion gates for a key and, when a
	// clean-approval milestone has been crossed with all gates open, sets
	// the pending nudge (idempotently) and returns the candidate for
	// notification. Returns nil when no proposal is due.
	ProposeIfEligible(ctx context.Context, key signals.Key) (*PromotionCandidate, error)

	// ConsumeNudge returns the first pending nudge for a user and clears it
	// in the same atomic statement. Returns nil when none is pending.
	ConsumeNudge(ctx context.Context, userID uuid.UUID) (*Nudge, error)

	// Demote lowers the tier one step, starts the demotion cooldown, clears
	// any pending nudge, and writes a demotion audit event.
	Demote(ctx context.Context, key signals.Key, severity, reason string) (*State, error)

	// Decide applies a human response to a promotion proposal.
	Decide(ctx context.Context, userID uuid.UUID, actionType string, decision Decision) (*State, error)
}
