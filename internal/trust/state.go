package trust

import (
	"time"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/internal/confidence"
)

// State is the persisted row for one (user, action-type) key. It merges two
// logically separate concerns at the persistence boundary: the rebuildable
// confidence cache (scored fields, overwritten on every recalculation) and
// the control plane (tier, cooldown, opt-out, nudge), which recalculation
// must never touch.
type State struct {
	UserID     uuid.UUID `json:"user_id"`
	OrgID      uuid.UUID `json:"org_id"`
	ActionType string    `json:"action_type"`

	Tier Tier `json:"tier"`

	// Scored fields, rebuilt from the signal window.
	Score              float64    `json:"score"`
	ApprovalRate       float64    `json:"approval_rate"`
	CleanApprovalRate  float64    `json:"clean_approval_rate"`
	EditRate           float64    `json:"edit_rate"`
	RejectionRate      float64    `json:"rejection_rate"`
	UndoRate           float64    `json:"undo_rate"`
	TotalSignals       int        `json:"total_signals"`
	ApprovedCount      int        `json:"approved_count"`
	CleanApprovedCount int        `json:"clean_approved_count"`
	RejectedCount      int        `json:"rejected_count"`
	UndoneCount        int        `json:"undone_count"`
	RecentScore        float64    `json:"recent_score"`
	AvgResponseMs      *float64   `json:"avg_response_ms,omitempty"`
	FirstSignalAt      *time.Time `json:"first_signal_at,omitempty"`
	LastSignalAt       *time.Time `json:"last_signal_at,omitempty"`
	DaysActive         int        `json:"days_active"`
	PromotionEligible  bool       `json:"promotion_eligible"`

	// Control-plane fields, governed by explicit transitions only.
	CooldownUntil        *time.Time `json:"cooldown_until,omitempty"`
	NeverPromote         bool       `json:"never_promote"`
	ExtraRequiredSignals int        `json:"extra_required_signals"`
	PendingNudge         bool       `json:"pending_nudge"`
	NudgeMessage         *string    `json:"nudge_message,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// InCooldown reports whether re-proposal is currently suppressed.
func (s *State) InCooldown(now time.Time) bool {
	return s.CooldownUntil != nil && s.CooldownUntil.After(now)
}

// canPropose reports whether the control plane permits raising a promotion
// proposal at the given instant. The same gates are re-checked inside the
// nudge-setting statement, since this read may be stale by write time.
func canPropose(s *State, now time.Time) bool {
	if _, hasNext := s.Tier.Next(); !hasNext {
		return false
	}
	return !s.NeverPromote && !s.InCooldown(now) && s.PromotionEligible
}

// Nudge is the one-shot promotion prompt returned to the client. Reading it
// clears the pending flag atomically.
type Nudge struct {
	ActionType string `json:"action_type"`
	Message    string `json:"message"`
}

// PromotionCandidate is the ephemeral tuple handed from the state machine to
// the notifier when a key becomes eligible for promotion. It is computed,
// never persisted.
type PromotionCandidate struct {
	UserID         uuid.UUID            `json:"user_id"`
	OrgID          uuid.UUID            `json:"org_id"`
	ActionType     string               `json:"action_type"`
	FromTier       Tier                 `json:"from_tier"`
	ToTier         Tier                 `json:"to_tier"`
	CleanApprovals int                  `json:"clean_approvals"`
	Confidence     confidence.Aggregate `json:"confidence"`
	Reason         string               `json:"reason"`
}
