package signals

import (
	"encoding/json"
	"fmt"

	"github.com/SixtySecondsApp/use60-sub018/pkg/query"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "action_signals", "s").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("org_id", "OrgID").
	Project("action_type", "ActionType").
	Project("agent_name", "AgentName").
	Project("signal", "Kind").
	Project("edit_distance", "EditDistance").
	Project("edit_fields", "EditFields").
	Project("time_to_respond_ms", "ResponseLatencyMs").
	Project("confidence_at_proposal", "ConfidenceAtProposal").
	Project("linked_entity_ids", "LinkedEntityIDs").
	Project("tier_at_time", "TierAtTime").
	Project("rubber_stamp", "RubberStamp").
	Project("is_backfill", "Backfill").
	Project("created_at", "CreatedAt")

func scanSignal(s repository.Scanner) (Signal, error) {
	var sig Signal
	var editFieldsRaw, linkedRaw []byte

	err := s.Scan(
		&sig.ID,
		&sig.UserID,
		&sig.OrgID,
		&sig.ActionType,
		&sig.AgentName,
		&sig.Kind,
		&sig.EditDistance,
		&editFieldsRaw,
		&sig.ResponseLatencyMs,
		&sig.ConfidenceAtProposal,
		&linkedRaw,
		&sig.TierAtTime,
		&sig.RubberStamp,
		&sig.Backfill,
		&sig.CreatedAt,
	)

	if err != nil {
		return sig, err
	}

	if len(editFieldsRaw) > 0 {
		if err := json.Unmarshal(editFieldsRaw, &sig.EditFields); err != nil {
			return sig, fmt.Errorf("unmarshal edit_fields: %w", err)
		}
	}

	if len(linkedRaw) > 0 {
		if err := json.Unmarshal(linkedRaw, &sig.LinkedEntityIDs); err != nil {
			return sig, fmt.Errorf("unmarshal linked_entity_ids: %w", err)
		}
	}

	return sig, nil
}
