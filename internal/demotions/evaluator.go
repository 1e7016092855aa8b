package demotions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

// Evaluator inspects a key after an undo signal and executes a demotion when
// the policy triggers.
type Evaluator struct {
	sigs   signals.System
	trusts trust.System
	policy Policy
	window int
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator with the default threshold policy drawn
// from the engine config.
func NewEvaluator(sigs signals.System, trusts trust.System, engine *config.EngineConfig, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		sigs:   sigs,
		trusts: trusts,
		policy: ThresholdPolicy{UndoClusterThreshold: engine.UndoClusterThreshold},
		window: engine.DemotionWindow,
		logger: logger.With("system", "demotions"),
	}
}

// WithPolicy replaces the evaluation policy.
func (e *Evaluator) WithPolicy(p Policy) *Evaluator {
	e.policy = p
	return e
}

// Evaluate classifies the key's recent window and demotes when triggered.
// It returns the assessment so callers can log the outcome; a non-triggering
// assessment with a nil error means the undo was tolerable.
func (e *Evaluator) Evaluate(ctx context.Context, key signals.Key) (Assessment, error) {
	state, err := e.trusts.Find(ctx, key.UserID, key.ActionType)
	if err != nil {
		return Assessment{}, fmt.Errorf("load trust state: %w", err)
	}

	recent, err := e.sigs.Recent(ctx, key, e.window)
	if err != nil {
		return Assessment{}, fmt.Errorf("load recent signals: %w", err)
	}

	assessment := e.policy.Evaluate(state.Tier, recent)
	if !assessment.Triggered {
		e.logger.Debug("undo tolerated",
			"user_id", key.UserID,
			"action_type", key.ActionType,
		)
		return assessment, nil
	}

	if _, err := e.trusts.Demote(ctx, key, string(assessment.Severity), assessment.Reason); err != nil {
		return assessment, fmt.Errorf("execute demotion: %w", err)
	}
	return assessment, nil
}
