package confidence

import (
	"slices"
	"time"

	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
)

// Params bundles the scoring tunables used when building aggregates.
type Params struct {
	Weights           Weights
	DecayHalfLifeDays float64
	SampleFloor       int
	RecentWindow      int
	EligibleScore     float64
	EligibleSignals   int
}

// Aggregate is the derived confidence summary for one (user, org, action-type)
// key. It is rebuilt in full from the signal window on every recomputation.
type Aggregate struct {
	Score             float64    `json:"score"`
	ApprovalRate      float64    `json:"approval_rate"`
	CleanApprovalRate float64    `json:"clean_approval_rate"`
	EditRate          float64    `json:"edit_rate"`
	RejectionRate     float64    `json:"rejection_rate"`
	UndoRate          float64    `json:"undo_rate"`

	TotalSignals       int `json:"total_signals"`
	ApprovedCount      int `json:"approved_count"`
	CleanApprovedCount int `json:"clean_approved_count"`
	RejectedCount      int `json:"rejected_count"`
	UndoneCount        int `json:"undone_count"`

	// RecentScore is the score of the trailing RecentWindow signals only,
	// surfacing trajectory separate from the full-window composite.
	RecentScore float64 `json:"recent_score"`

	AvgResponseMs *float64   `json:"avg_response_ms,omitempty"`
	FirstSignalAt *time.Time `json:"first_signal_at,omitempty"`
	LastSignalAt  *time.Time `json:"last_signal_at,omitempty"`
	DaysActive    int        `json:"days_active"`

	PromotionEligible bool `json:"promotion_eligible"`
}

// BuildAggregate computes the full confidence aggregate for a signal window.
// Input order does not matter; signals are sorted by timestamp internally so
// the output is identical for any permutation of the same window.
func BuildAggregate(sigs []signals.Signal, p Params, now time.Time) Aggregate {
	ordered := make([]signals.Signal, len(sigs))
	copy(ordered, sigs)
	slices.SortStableFunc(ordered, func(a, b signals.Signal) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	var agg Aggregate
	agg.TotalSignals = len(ordered)

	days := make(map[string]struct{})
	var latencySum float64
	var latencyCount int

	for _, sig := range ordered {
		switch {
		case sig.Kind.IsApproval():
			agg.ApprovedCount++
			if !sig.RubberStamp {
				agg.CleanApprovedCount++
			}
		case sig.Kind == signals.KindRejected:
			agg.RejectedCount++
		case sig.Kind.IsUndo():
			agg.UndoneCount++
		}

		if sig.ResponseLatencyMs != nil {
			latencySum += float64(*sig.ResponseLatencyMs)
			latencyCount++
		}

		days[sig.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
	}

	total := float64(agg.TotalSignals)
	agg.ApprovalRate = rate(float64(agg.ApprovedCount), total)
	agg.CleanApprovalRate = rate(float64(agg.CleanApprovedCount), total)
	agg.EditRate = rate(float64(count(ordered, signals.KindApprovedEdited)), total)
	agg.RejectionRate = rate(float64(agg.RejectedCount), total)
	agg.UndoRate = rate(float64(agg.UndoneCount), total)

	agg.Score = Score(ordered, p.Weights, p.DecayHalfLifeDays, p.SampleFloor, now)

	recent := ordered
	if len(recent) > p.RecentWindow {
		recent = recent[len(recent)-p.RecentWindow:]
	}
	agg.RecentScore = Score(recent, p.Weights, p.DecayHalfLifeDays, p.SampleFloor, now)

	if latencyCount > 0 {
		avg := latencySum / float64(latencyCount)
		agg.AvgResponseMs = &avg
	}

	if len(ordered) > 0 {
		first := ordered[0].CreatedAt
		last := ordered[len(ordered)-1].CreatedAt
		agg.FirstSignalAt = &first
		agg.LastSignalAt = &last
	}
	agg.DaysActive = len(days)

	agg.PromotionEligible = agg.Score > p.EligibleScore && agg.TotalSignals >= p.EligibleSignals

	return agg
}

func rate(n, total float64) float64 {
	if total == 0 {
		return 0
	}
	return n / total
}

func count(sigs []signals.Signal, kind signals.Kind) int {
	n := 0
	for _, sig := range sigs {
		if sig.Kind == kind {
			n++
		}
	}
	return n
}
