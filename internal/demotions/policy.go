// Package demotions decides when a key loses autonomy. A pluggable Policy
// classifies the recent signal window after an undo; the Evaluator executes
// the tier decrease when the policy triggers. The whole path runs in the
// background after ingestion and never surfaces failures to the caller.
package demotions

import (
	"fmt"

	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

// Severity classifies how concerning an assessment is.
type Severity string

const (
	// SeverityHigh: an autonomous execution had to be undone.
	SeverityHigh Severity = "high"
	// SeverityCluster: repeated undos suggest a systematic error.
	SeverityCluster Severity = "cluster"
)

// Assessment is a policy's verdict on a recent signal window.
type Assessment struct {
	Triggered bool
	Severity  Severity
	Reason    string
}

// Policy classifies the recent signal window for a key that just received an
// undo signal.
type Policy interface {
	Evaluate(tier trust.Tier, recent []signals.Signal) Assessment
}

// ThresholdPolicy is the default policy. An auto-executed action that had to
// be undone triggers immediately; otherwise undos must cluster within the
// window to trigger. An isolated manual undo is normal feedback, not a
// demotion cause.
type ThresholdPolicy struct {
	// UndoClusterThreshold is the number of undo signals within the recent
	// window that constitutes a cluster.
	UndoClusterThreshold int
}

func (p ThresholdPolicy) Evaluate(tier trust.Tier, recent []signals.Signal) Assessment {
	undos := 0
	autoUndone := false

	for _, sig := range recent {
		if sig.Kind.IsUndo() {
			undos++
		}
		if sig.Kind == signals.KindAutoUndone {
			autoUndone = true
		}
	}

	if autoUndone {
		return Assessment{
			Triggered: true,
			Severity:  SeverityHigh,
			Reason:    "an autonomously executed action was undone",
		}
	}

	if undos >= p.UndoClusterThreshold {
		return Assessment{
			Triggered: true,
			Severity:  SeverityCluster,
			Reason:    fmt.Sprintf("%d undone actions in the last %d signals", undos, len(recent)),
		}
	}

	return Assessment{}
}
