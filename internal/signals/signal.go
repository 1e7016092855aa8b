// Package signals implements the feedback signal ledger: the append-only
// record of every human response to an agent-proposed action. Signals are
// immutable once written; every other trust computation derives from them.
package signals

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of human (or automatic) response captured by a signal.
type Kind string

const (
	KindApproved       Kind = "approved"
	KindApprovedEdited Kind = "approved_edited"
	KindRejected       Kind = "rejected"
	KindExpired        Kind = "expired"
	KindUndone         Kind = "undone"
	KindAutoExecuted   Kind = "auto_executed"
	KindAutoUndone     Kind = "auto_undone"
)

// Kinds lists every valid signal kind.
var Kinds = []Kind{
	KindApproved,
	KindApprovedEdited,
	KindRejected,
	KindExpired,
	KindUndone,
	KindAutoExecuted,
	KindAutoUndone,
}

// Valid reports whether k is one of the enumerated signal kinds.
func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsApproval reports whether k represents an explicit human approval.
// Only approvals are eligible for the rubber-stamp flag.
func (k Kind) IsApproval() bool {
	return k == KindApproved || k == KindApprovedEdited
}

// IsUndo reports whether k represents a reversal of an executed action.
func (k Kind) IsUndo() bool {
	return k == KindUndone || k == KindAutoUndone
}

// Key identifies the (user, org, action-type) scope a signal belongs to.
type Key struct {
	UserID     uuid.UUID
	OrgID      uuid.UUID
	ActionType string
}

// Signal is one recorded human reaction to one proposed agent action.
// Rows are created exactly once by Record and never updated or deleted.
type Signal struct {
	ID                   uuid.UUID         `json:"id"`
	UserID               uuid.UUID         `json:"user_id"`
	OrgID                uuid.UUID         `json:"org_id"`
	ActionType           string            `json:"action_type"`
	AgentName            string            `json:"agent_name"`
	Kind                 Kind              `json:"signal"`
	EditDistance         *int              `json:"edit_distance,omitempty"`
	EditFields           []string          `json:"edit_fields,omitempty"`
	ResponseLatencyMs    *int              `json:"time_to_respond_ms,omitempty"`
	ConfidenceAtProposal *float64          `json:"confidence_at_proposal,omitempty"`
	LinkedEntityIDs      map[string]string `json:"linked_entity_ids,omitempty"`
	TierAtTime           string            `json:"autonomy_tier_at_time"`
	RubberStamp          bool              `json:"rubber_stamp"`
	Backfill             bool              `json:"is_backfill"`
	CreatedAt            time.Time         `json:"created_at"`
}

// Key returns the signal's (user, org, action-type) key.
func (s *Signal) Key() Key {
	return Key{UserID: s.UserID, OrgID: s.OrgID, ActionType: s.ActionType}
}

// RecordCommand carries the ingestion payload for a new signal. The caller's
// user and org come from the authenticated identity, never from the body.
type RecordCommand struct {
	ActionType           string            `json:"action_type" validate:"required,max=128"`
	AgentName            string            `json:"agent_name" validate:"required,max=128"`
	Signal               string            `json:"signal" validate:"required"`
	EditDistance         *int              `json:"edit_distance,omitempty" validate:"omitempty,min=0"`
	EditFields           []string          `json:"edit_fields,omitempty"`
	TimeToRespondMs      *int              `json:"time_to_respond_ms,omitempty" validate:"omitempty,min=0"`
	ConfidenceAtProposal *float64          `json:"confidence_at_proposal,omitempty" validate:"omitempty,min=0,max=1"`
	LinkedEntityIDs      map[string]string `json:"linked_entity_ids,omitempty"`
	AutonomyTierAtTime   string            `json:"autonomy_tier_at_time" validate:"required"`
	IsBackfill           bool              `json:"is_backfill,omitempty"`
}

// Dispatcher receives a freshly recorded signal for background processing.
// Implementations must return immediately; all downstream work (scoring,
// demotion evaluation, promotion checks, projection) runs detached from the
// recording request.
type Dispatcher interface {
	AfterSignal(sig Signal)
}
