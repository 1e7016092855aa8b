// Package engine coordinates the background pipeline that follows every
// recorded feedback signal: confidence recalculation, demotion evaluation,
// promotion proposal and delivery, and rep-memory projection. The pipeline
// is dispatched fire-and-forget from the ingestion request; nothing in it
// can fail the request, and stages are error-isolated so a broken notifier
// never blocks a recalculation.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SixtySecondsApp/use60-sub018/internal/demotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/promotions"
	"github.com/SixtySecondsApp/use60-sub018/internal/repmemory"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
	"github.com/SixtySecondsApp/use60-sub018/pkg/tasks"
)

// Engine implements signals.Dispatcher: it reacts to each recorded signal by
// scheduling one sequential pipeline task for the signal's key.
type Engine struct {
	queue     *tasks.Queue
	trusts    trust.System
	demotions *demotions.Evaluator
	notifier  *promotions.Notifier
	projector *repmemory.Projector
	logger    *slog.Logger
}

// New creates the pipeline coordinator.
func New(
	queue *tasks.Queue,
	trusts trust.System,
	evaluator *demotions.Evaluator,
	notifier *promotions.Notifier,
	projector *repmemory.Projector,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		queue:     queue,
		trusts:    trusts,
		demotions: evaluator,
		notifier:  notifier,
		projector: projector,
		logger:    logger.With("system", "engine"),
	}
}

// AfterSignal schedules the post-ingestion pipeline for the signal's key and
// returns immediately. Stages run in order within one task so a recorded
// approval observes its own recalculation; concurrent signals for the same
// key race safely because every stage is an idempotent read-then-upsert.
func (e *Engine) AfterSignal(sig signals.Signal) {
	key := signals.Key{UserID: sig.UserID, OrgID: sig.OrgID, ActionType: sig.ActionType}

	e.queue.Dispatch(tasks.Task{
		Name: "signal-pipeline",
		Run: func(ctx context.Context) error {
			return e.runPipeline(ctx, key, sig)
		},
	})
}

// runPipeline executes the pipeline stages. Each stage's failure is logged
// and the remaining stages still run; the returned error aggregates stage
// failures purely for the task queue's failure counter.
func (e *Engine) runPipeline(ctx context.Context, key signals.Key, sig signals.Signal) error {
	var failed []error

	if _, err := e.trusts.Recalculate(ctx, key); err != nil {
		e.stageFailed("recalculate", key, err)
		failed = append(failed, err)
	}

	if sig.Kind.IsUndo() {
		if _, err := e.demotions.Evaluate(ctx, key); err != nil {
			e.stageFailed("demotion", key, err)
			failed = append(failed, err)
		}
	}

	if sig.Kind.IsApproval() && !sig.RubberStamp {
		if err := e.checkPromotion(ctx, key); err != nil {
			e.stageFailed("promotion", key, err)
			failed = append(failed, err)
		}
	}

	if err := e.projector.Project(ctx, key.UserID); err != nil {
		e.stageFailed("projection", key, err)
		failed = append(failed, err)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d pipeline stage(s) failed, first: %w", len(failed), failed[0])
	}
	return nil
}

// checkPromotion raises a proposal when a milestone was crossed and hands it
// to the notifier. A soft delivery outcome (unlinked user, missing
// credential) is not a stage failure; the in-app nudge is already pending.
func (e *Engine) checkPromotion(ctx context.Context, key signals.Key) error {
	candidate, err := e.trusts.ProposeIfEligible(ctx, key)
	if err != nil {
		return err
	}
	if candidate == nil {
		return nil
	}

	result, err := e.notifier.Notify(ctx, []trust.PromotionCandidate{*candidate})
	if err != nil {
		return err
	}
	if !result.Sent {
		e.logger.Info("promotion nudge not delivered over chat",
			"user_id", key.UserID,
			"action_type", key.ActionType,
			"reason", result.Reason,
		)
	}
	return nil
}

func (e *Engine) stageFailed(stage string, key signals.Key, err error) {
	e.logger.Error("pipeline stage failed",
		"stage", stage,
		"user_id", key.UserID,
		"action_type", key.ActionType,
		"error", err,
	)
}
