// Package trust owns the per-(user, action-type) autonomy tier: the cached
// confidence aggregate, the control-plane fields governing promotion and
// demotion, and every transition between them. Tiers only move up through an
// explicit human accept of a proposal and only move down through the demotion
// path or an explicit opt-out.
package trust

// Tier is the autonomy level granted for one action type.
type Tier string

const (
	// TierSuggest: the agent drafts, the human executes.
	TierSuggest Tier = "suggest"
	// TierApprove: the agent executes after explicit human approval.
	TierApprove Tier = "approve"
	// TierAuto: the agent executes without asking; the human can undo.
	TierAuto Tier = "auto"
)

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t == TierSuggest || t == TierApprove || t == TierAuto
}

// Next returns the tier above t. The second return is false at the ceiling.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierSuggest:
		return TierApprove, true
	case TierApprove:
		return TierAuto, true
	default:
		return t, false
	}
}

// Previous returns the tier below t. The second return is false at the floor.
func (t Tier) Previous() (Tier, bool) {
	switch t {
	case TierAuto:
		return TierApprove, true
	case TierApprove:
		return TierSuggest, true
	default:
		return t, false
	}
}

// Decision is a human response to a promotion proposal.
type Decision string

const (
	// DecisionAccept raises the tier immediately.
	DecisionAccept Decision = "accept"
	// DecisionDefer suppresses re-proposal for the defer cooldown window.
	DecisionDefer Decision = "defer"
	// DecisionNever permanently opts the key out of promotion proposals.
	DecisionNever Decision = "never"
)

// Valid reports whether d is one of the defined decisions.
func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionDefer || d == DecisionNever
}
