// Package promotions delivers promotion proposals to users over chat. The
// notifier resolves messaging collaborators, renders a deterministic
// scorecard message, and records the proposal in the audit trail. Delivery
// problems are soft failures: the proposal stays pending in the trust state
// and the in-app nudge still reaches the user.
package promotions

import (
	"fmt"
	"strings"

	"github.com/SixtySecondsApp/use60-sub018/internal/messaging"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

// Chat provider caps. Content over a cap is truncated with an ellipsis
// rather than failing delivery.
const (
	maxSectionRunes  = 3000
	maxLabelRunes    = 75
	maxPayloadBytes  = 2000
	truncationMarker = "…"
)

// BuildMessage renders the chat message for one or more promotion candidates
// belonging to the same user. A single candidate gets three response
// affordances; a batch gets two.
func BuildMessage(recipient string, candidates []trust.PromotionCandidate) messaging.Message {
	msg := messaging.Message{Recipient: recipient}

	if len(candidates) == 1 {
		c := candidates[0]
		msg.Sections = []messaging.Section{
			{Text: truncateRunes(singleHeader(c), maxSectionRunes)},
			{Text: truncateRunes(scorecard(c), maxSectionRunes)},
		}
		msg.Buttons = []messaging.Button{
			button(fmt.Sprintf("Yes, switch to %s", c.ToTier), payload("accept", c.ActionType)),
			button("Not yet (ask again in 30 days)", payload("defer", c.ActionType)),
			button("Never for this action", payload("never", c.ActionType)),
		}
		return msg
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d of your action types are ready for more autonomy:\n", len(candidates))
	for _, c := range candidates {
		fmt.Fprintf(&b, "\n• %s (%s → %s)\n%s\n", c.ActionType, c.FromTier, c.ToTier, scorecard(c))
	}

	msg.Sections = []messaging.Section{{Text: truncateRunes(b.String(), maxSectionRunes)}}
	msg.Buttons = []messaging.Button{
		button("Accept all", payload("accept_all", "")),
		button("Let me pick individually", payload("pick", "")),
	}
	return msg
}

func singleHeader(c trust.PromotionCandidate) string {
	return fmt.Sprintf(
		"You've approved %d %s actions without edits. Ready to move from %s to %s?",
		c.CleanApprovals, c.ActionType, c.FromTier, c.ToTier,
	)
}

// scorecard renders the confidence summary backing a proposal. Output is
// deterministic for a given candidate so re-deliveries are byte-identical.
func scorecard(c trust.PromotionCandidate) string {
	agg := c.Confidence
	edited := int(agg.EditRate*float64(agg.TotalSignals) + 0.5)
	return fmt.Sprintf(
		"Signals: %d | Clean approvals: %.0f%% | Edits: %d | Rejections: %d | Undos: %d | Active days: %d | Confidence: %.2f",
		agg.TotalSignals,
		agg.CleanApprovalRate*100,
		edited,
		agg.RejectedCount,
		agg.UndoneCount,
		agg.DaysActive,
		agg.Score,
	)
}

func button(label, payload string) messaging.Button {
	return messaging.Button{
		Label:   truncateRunes(label, maxLabelRunes),
		Payload: truncateBytes(payload, maxPayloadBytes),
	}
}

func payload(action, actionType string) string {
	if actionType == "" {
		return fmt.Sprintf(`{"action":%q}`, action)
	}
	return fmt.Sprintf(`{"action":%q,"action_type":%q}`, action, actionType)
}

// truncateRunes caps s at limit runes, replacing the tail with an ellipsis.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + truncationMarker
}

// truncateBytes caps s at limit bytes, backing up to a rune boundary before
// appending the ellipsis.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len(truncationMarker)
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
