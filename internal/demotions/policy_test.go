package demotions_test

import (
	"testing"

	"github.com/SixtySecondsApp/use60-sub018/internal/demotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

func window(kinds ...signals.Kind) []signals.Signal {
	sigs := make([]signals.Signal, len(kinds))
	for i, kind := range kinds {
		sigs[i] = signals.Signal{Kind: kind}
	}
	return sigs
}

func TestThresholdPolicy(t *testing.T) {
	policy := demotions.ThresholdPolicy{UndoClusterThreshold: 2}

	tests := []struct {
		name      string
		tier      trust.Tier
		recent    []signals.Signal
		triggered bool
		severity  demotions.Severity
	}{
		{
			name:      "isolated undo tolerated",
			tier:      trust.TierApprove,
			recent:    window(signals.KindApproved, signals.KindApproved, signals.KindUndone, signals.KindApproved),
			triggered: false,
		},
		{
			name:      "auto undo triggers immediately",
			tier:      trust.TierAuto,
			recent:    window(signals.KindAutoExecuted, signals.KindAutoUndone),
			triggered: true,
			severity:  demotions.SeverityHigh,
		},
		{
			name:      "undo cluster triggers",
			tier:      trust.TierApprove,
			recent:    window(signals.KindApproved, signals.KindUndone, signals.KindApproved, signals.KindUndone),
			triggered: true,
			severity:  demotions.SeverityCluster,
		},
		{
			name:      "clean window",
			tier:      trust.TierApprove,
			recent:    window(signals.KindApproved, signals.KindApproved, signals.KindApproved),
			triggered: false,
		},
		{
			name:      "empty window",
			tier:      trust.TierSuggest,
			recent:    nil,
			triggered: false,
		},
		{
			name:      "auto undo outranks cluster severity",
			tier:      trust.TierAuto,
			recent:    window(signals.KindUndone, signals.KindAutoUndone, signals.KindUndone),
			triggered: true,
			severity:  demotions.SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := policy.Evaluate(tt.tier, tt.recent)

			if assessment.Triggered != tt.triggered {
				t.Fatalf("Triggered = %v, want %v", assessment.Triggered, tt.triggered)
			}
			if tt.triggered && assessment.Severity != tt.severity {
				t.Errorf("Severity = %s, want %s", assessment.Severity, tt.severity)
			}
			if tt.triggered && assessment.Reason == "" {
				t.Error("triggered assessment missing reason")
			}
		})
	}
}
