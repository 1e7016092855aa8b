// Package audit implements the append-only audit trail for trust engine
// decisions. Events capture who, what, and why for every proposed or executed
// tier change and are never mutated after the fact; operational dashboards
// read them through the list endpoint.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the engine decision an audit event records.
type EventType string

const (
	EventPromotionProposed EventType = "promotion_proposed"
	EventPromotionAccepted EventType = "promotion_accepted"
	EventPromotionDeferred EventType = "promotion_deferred"
	EventPromotionOptedOut EventType = "promotion_opted_out"
	EventDemotionExecuted  EventType = "demotion_executed"
)

// Event is one append-only audit log entry.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	OrgID      uuid.UUID      `json:"org_id"`
	ActionType string         `json:"action_type"`
	Type       EventType      `json:"event_type"`
	Reason     string         `json:"reason"`
	Snapshot   map[string]any `json:"snapshot,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
