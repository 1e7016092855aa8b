package audit

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/SixtySecondsApp/use60-sub018/pkg/query"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audit_events", "a").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("org_id", "OrgID").
	Project("action_type", "ActionType").
	Project("event_type", "Type").
	Project("reason", "Reason").
	Project("snapshot", "Snapshot").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for audit event queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	ActionType *string    `json:"action_type,omitempty"`
	EventType  *string    `json:"event_type,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ActionType", f.ActionType).
		WhereEquals("Type", f.EventType).
		WhereEquals("UserID", f.UserID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("action_type"); a != "" {
		f.ActionType = &a
	}

	if e := values.Get("event_type"); e != "" {
		f.EventType = &e
	}

	if u := values.Get("user_id"); u != "" {
		if id, err := uuid.Parse(u); err == nil {
			f.UserID = &id
		}
	}

	return f
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	var snapshotRaw []byte

	err := s.Scan(
		&e.ID,
		&e.UserID,
		&e.OrgID,
		&e.ActionType,
		&e.Type,
		&e.Reason,
		&snapshotRaw,
		&e.CreatedAt,
	)

	if err != nil {
		return e, err
	}

	if len(snapshotRaw) > 0 {
		if err := json.Unmarshal(snapshotRaw, &e.Snapshot); err != nil {
			return e, fmt.Errorf("unmarshal snapshot: %w", err)
		}
	}

	return e, nil
}
