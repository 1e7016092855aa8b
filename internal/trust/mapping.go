package trust

import (
	"github.com/SixtySecondsApp/use60-sub018/pkg/query"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "trust_states", "t").
	Project("user_id", "UserID").
	Project("org_id", "OrgID").
	Project("action_type", "ActionType").
	Project("tier", "Tier").
	Project("score", "Score").
	Project("approval_rate", "ApprovalRate").
	Project("clean_approval_rate", "CleanApprovalRate").
	Project("edit_rate", "EditRate").
	Project("rejection_rate", "RejectionRate").
	Project("undo_rate", "UndoRate").
	Project("total_signals", "TotalSignals").
	Project("approved_count", "ApprovedCount").
	Project("clean_approved_count", "CleanApprovedCount").
	Project("rejected_count", "RejectedCount").
	Project("undone_count", "UndoneCount").
	Project("recent_score", "RecentScore").
	Project("avg_response_ms", "AvgResponseMs").
	Project("first_signal_at", "FirstSignalAt").
	Project("last_signal_at", "LastSignalAt").
	Project("days_active", "DaysActive").
	Project("promotion_eligible", "PromotionEligible").
	Project("cooldown_until", "CooldownUntil").
	Project("never_promote", "NeverPromote").
	Project("extra_required_signals", "ExtraRequiredSignals").
	Project("pending_nudge", "PendingNudge").
	Project("nudge_message", "NudgeMessage").
	Project("updated_at", "UpdatedAt")

func scanState(s repository.Scanner) (State, error) {
	var st State

	err := s.Scan(
		&st.UserID,
		&st.OrgID,
		&st.ActionType,
		&st.Tier,
		&st.Score,
		&st.ApprovalRate,
		&st.CleanApprovalRate,
		&st.EditRate,
		&st.RejectionRate,
		&st.UndoRate,
		&st.TotalSignals,
		&st.ApprovedCount,
		&st.CleanApprovedCount,
		&st.RejectedCount,
		&st.UndoneCount,
		&st.RecentScore,
		&st.AvgResponseMs,
		&st.FirstSignalAt,
		&st.LastSignalAt,
		&st.DaysActive,
		&st.PromotionEligible,
		&st.CooldownUntil,
		&st.NeverPromote,
		&st.ExtraRequiredSignals,
		&st.PendingNudge,
		&st.NudgeMessage,
		&st.UpdatedAt,
	)

	return st, err
}
