package trust

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SixtySecondsApp/use60-sub018/internal/audit"
	"github.com/SixtySecondsApp/use60-sub018/internal/confidence"
	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/internal/signals"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

var (
	promotionsProposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trust_promotions_proposed_total",
		Help: "Promotion proposals raised by the tier state machine.",
	})
	demotionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trust_demotions_executed_total",
		Help: "Demotions executed, by severity.",
	}, []string{"severity"})
)

type repo struct {
	db     *sql.DB
	sigs   signals.System
	audits audit.System
	engine *config.EngineConfig
	logger *slog.Logger
}

// New creates the tier state machine backed by the trust_states table.
func New(db *sql.DB, sigs signals.System, audits audit.System, engine *config.EngineConfig, logger *slog.Logger) System {
	return &repo{
		db:     db,
		sigs:   sigs,
		audits: audits,
		engine: engine,
		logger: logger.With("system", "trust"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, userID uuid.UUID, actionType string) (*State, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE t.user_id = $1 AND t.action_type = $2`,
		projection.Columns(), projection.Table(),
	)

	st, err := repository.QueryOne(ctx, r.db, q, []any{userID, actionType}, scanState)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s for user %s", ErrNotFound, actionType, userID)
		}
		return nil, fmt.Errorf("query trust state: %w", err)
	}
	return &st, nil
}

func (r *repo) States(ctx context.Context, userID uuid.UUID) ([]State, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE t.user_id = $1
		ORDER BY t.action_type ASC`,
		projection.Columns(), projection.Table(),
	)

	items, err := repository.QueryMany(ctx, r.db, q, []any{userID}, scanState)
	if err != nil {
		return nil, fmt.Errorf("query trust states: %w", err)
	}
	return items, nil
}

// Recalculate rebuilds the scored fields from the trailing signal window.
// The upsert writes only scored columns so that concurrent recalculations
// for the same key can never clobber tier, cooldown, opt-out, or nudge state.
func (r *repo) Recalculate(ctx context.Context, key signals.Key) (*State, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -r.engine.WindowDays)

	window, err := r.sigs.Window(ctx, key, since)
	if err != nil {
		return nil, fmt.Errorf("load signal window: %w", err)
	}

	agg := confidence.BuildAggregate(window, confidence.Params{
		Weights:           confidence.WeightsFromConfig(r.engine.SignalWeights),
		DecayHalfLifeDays: r.engine.DecayHalfLifeDays,
		SampleFloor:       r.engine.SampleFloor,
		RecentWindow:      r.engine.RecentWindow,
		EligibleScore:     r.engine.EligibleScore,
		EligibleSignals:   r.engine.EligibleSignals,
	}, now)

	upsertQ := `
		INSERT INTO trust_states(
			user_id, org_id, action_type, tier,
			score, approval_rate, clean_approval_rate, edit_rate, rejection_rate, undo_rate,
			total_signals, approved_count, clean_approved_count, rejected_count, undone_count,
			recent_score, avg_response_ms, first_signal_at, last_signal_at, days_active,
			promotion_eligible, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, now())
		ON CONFLICT (user_id, action_type) DO UPDATE SET
			score = EXCLUDED.score,
			approval_rate = EXCLUDED.approval_rate,
			clean_approval_rate = EXCLUDED.clean_approval_rate,
			edit_rate = EXCLUDED.edit_rate,
			rejection_rate = EXCLUDED.rejection_rate,
			undo_rate = EXCLUDED.undo_rate,
			total_signals = EXCLUDED.total_signals,
			approved_count = EXCLUDED.approved_count,
			clean_approved_count = EXCLUDED.clean_approved_count,
			rejected_count = EXCLUDED.rejected_count,
			undone_count = EXCLUDED.undone_count,
			recent_score = EXCLUDED.recent_score,
			avg_response_ms = EXCLUDED.avg_response_ms,
			first_signal_at = EXCLUDED.first_signal_at,
			last_signal_at = EXCLUDED.last_signal_at,
			days_active = EXCLUDED.days_active,
			promotion_eligible = EXCLUDED.promotion_eligible,
			updated_at = now()`

	_, err = r.db.ExecContext(ctx, upsertQ,
		key.UserID, key.OrgID, key.ActionType, TierSuggest,
		agg.Score, agg.ApprovalRate, agg.CleanApprovalRate, agg.EditRate, agg.RejectionRate, agg.UndoRate,
		agg.TotalSignals, agg.ApprovedCount, agg.CleanApprovedCount, agg.RejectedCount, agg.UndoneCount,
		agg.RecentScore, agg.AvgResponseMs, agg.FirstSignalAt, agg.LastSignalAt, agg.DaysActive,
		agg.PromotionEligible,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert trust state: %w", err)
	}

	return r.Find(ctx, key.UserID, key.ActionType)
}

// setPendingNudgeQuery raises the nudge only if no unconsumed nudge exists
// and the control plane still allows a proposal at write time. The gates are
// repeated here because the row read by ProposeIfEligible may be stale: a
// concurrent opt-out or demotion cooldown must win over an in-flight
// proposal.
const setPendingNudgeQuery = `
	UPDATE trust_states
	SET pending_nudge = true, nudge_message = $3, updated_at = now()
	WHERE user_id = $1 AND action_type = $2
		AND pending_nudge = false
		AND never_promote = false
		AND (cooldown_until IS NULL OR cooldown_until <= now())`

func (r *repo) ProposeIfEligible(ctx context.Context, key signals.Key) (*PromotionCandidate, error) {
	st, err := r.Find(ctx, key.UserID, key.ActionType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !canPropose(st, now) {
		return nil, nil
	}
	next, _ := st.Tier.Next()

	required, crossed := r.milestoneCrossed(st.CleanApprovedCount, st.ExtraRequiredSignals)
	if !crossed {
		return nil, nil
	}

	candidate := &PromotionCandidate{
		UserID:         st.UserID,
		OrgID:          st.OrgID,
		ActionType:     st.ActionType,
		FromTier:       st.Tier,
		ToTier:         next,
		CleanApprovals: st.CleanApprovedCount,
		Confidence:     st.aggregate(),
		Reason: fmt.Sprintf("%d clean approvals for %s with confidence %.2f",
			required, st.ActionType, st.Score),
	}

	if err := repository.ExecExpectOne(ctx, r.db, setPendingNudgeQuery,
		key.UserID, key.ActionType, renderNudgeMessage(candidate)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set pending nudge: %w", err)
	}

	promotionsProposed.Inc()
	r.logger.Info("promotion proposed",
		"user_id", key.UserID,
		"action_type", key.ActionType,
		"from_tier", candidate.FromTier,
		"to_tier", candidate.ToTier,
		"clean_approvals", candidate.CleanApprovals,
	)
	return candidate, nil
}

func (r *repo) ConsumeNudge(ctx context.Context, userID uuid.UUID) (*Nudge, error) {
	// Read-and-clear in one statement. The CTE captures the message before
	// the update nulls it; SKIP LOCKED keeps concurrent readers from
	// returning the same nudge twice.
	q := `
		WITH picked AS (
			SELECT user_id, action_type, nudge_message
			FROM trust_states
			WHERE user_id = $1 AND pending_nudge = true
			ORDER BY updated_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE trust_states t
		SET pending_nudge = false, nudge_message = NULL, updated_at = now()
		FROM picked p
		WHERE t.user_id = p.user_id AND t.action_type = p.action_type
		RETURNING p.action_type, p.nudge_message`

	var nudge Nudge
	var message *string

	row := r.db.QueryRowContext(ctx, q, userID)
	if err := row.Scan(&nudge.ActionType, &message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume nudge: %w", err)
	}

	if message != nil {
		nudge.Message = *message
	}
	return &nudge, nil
}

func (r *repo) Demote(ctx context.Context, key signals.Key, severity, reason string) (*State, error) {
	st, err := r.Find(ctx, key.UserID, key.ActionType)
	if err != nil {
		return nil, err
	}

	target := st.Tier
	if prev, ok := st.Tier.Previous(); ok {
		target = prev
	}
	cooldownUntil := time.Now().UTC().Add(r.engine.DemotionCooldownDuration())

	// The demotion lands regardless of a pending nudge; the nudge is cleared
	// because its proposal no longer reflects reality.
	q := `
		UPDATE trust_states
		SET tier = $3, cooldown_until = $4,
			pending_nudge = false, nudge_message = NULL, updated_at = now()
		WHERE user_id = $1 AND action_type = $2`

	if err := repository.ExecExpectOne(ctx, r.db, q,
		key.UserID, key.ActionType, target, cooldownUntil); err != nil {
		return nil, fmt.Errorf("demote trust state: %w", err)
	}

	demotionsExecuted.WithLabelValues(severity).Inc()
	r.logger.Warn("tier demoted",
		"user_id", key.UserID,
		"action_type", key.ActionType,
		"from_tier", st.Tier,
		"to_tier", target,
		"severity", severity,
		"reason", reason,
	)

	r.recordAudit(ctx, audit.Event{
		UserID:     st.UserID,
		OrgID:      st.OrgID,
		ActionType: st.ActionType,
		Type:       audit.EventDemotionExecuted,
		Reason:     reason,
		Snapshot: map[string]any{
			"from_tier":  st.Tier,
			"to_tier":    target,
			"severity":   severity,
			"score":      st.Score,
			"undo_rate":  st.UndoRate,
			"undo_count": st.UndoneCount,
		},
	})

	return r.Find(ctx, key.UserID, key.ActionType)
}

func (r *repo) Decide(ctx context.Context, userID uuid.UUID, actionType string, decision Decision) (*State, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}

	st, err := r.Find(ctx, userID, actionType)
	if err != nil {
		return nil, err
	}

	var (
		q         string
		args      []any
		eventType audit.EventType
	)

	switch decision {
	case DecisionAccept:
		next, ok := st.Tier.Next()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAtCeiling, actionType)
		}
		q = `
			UPDATE trust_states
			SET tier = $3, pending_nudge = false, nudge_message = NULL, updated_at = now()
			WHERE user_id = $1 AND action_type = $2`
		args = []any{userID, actionType, next}
		eventType = audit.EventPromotionAccepted

	case DecisionDefer:
		until := time.Now().UTC().Add(r.engine.DeferCooldownDuration())
		q = `
			UPDATE trust_states
			SET cooldown_until = $3, pending_nudge = false, nudge_message = NULL, updated_at = now()
			WHERE user_id = $1 AND action_type = $2`
		args = []any{userID, actionType, until}
		eventType = audit.EventPromotionDeferred

	case DecisionNever:
		q = `
			UPDATE trust_states
			SET never_promote = true, pending_nudge = false, nudge_message = NULL, updated_at = now()
			WHERE user_id = $1 AND action_type = $2`
		args = []any{userID, actionType}
		eventType = audit.EventPromotionOptedOut
	}

	if err := repository.ExecExpectOne(ctx, r.db, q, args...); err != nil {
		return nil, fmt.Errorf("apply promotion decision: %w", err)
	}

	r.logger.Info("promotion decision applied",
		"user_id", userID,
		"action_type", actionType,
		"decision", decision,
	)

	r.recordAudit(ctx, audit.Event{
		UserID:     st.UserID,
		OrgID:      st.OrgID,
		ActionType: st.ActionType,
		Type:       eventType,
		Reason:     fmt.Sprintf("user responded %q to promotion proposal", decision),
		Snapshot: map[string]any{
			"tier_at_decision": st.Tier,
			"score":            st.Score,
			"clean_approvals":  st.CleanApprovedCount,
		},
	})

	return r.Find(ctx, userID, actionType)
}

// milestoneCrossed reports whether the clean-approval count sits exactly on a
// configured milestone, shifted by the per-user friction adjustment. Exact
// equality is the crossing test: each clean approval raises the count by one,
// so the nth approval observes the count at n exactly once.
func (r *repo) milestoneCrossed(cleanCount, extraRequired int) (int, bool) {
	for _, m := range r.engine.Milestones {
		required := m + extraRequired
		if cleanCount == required {
			return required, true
		}
	}
	return 0, false
}

// recordAudit appends an engine decision to the audit trail. Audit writes are
// best-effort and never fail the transition that produced them.
func (r *repo) recordAudit(ctx context.Context, event audit.Event) {
	if r.audits == nil {
		return
	}
	if _, err := r.audits.Record(ctx, event); err != nil {
		r.logger.Warn("audit write failed",
			"event_type", event.Type,
			"user_id", event.UserID,
			"action_type", event.ActionType,
			"error", err,
		)
	}
}

// aggregate reconstitutes the cached confidence summary from the stored row.
func (s *State) aggregate() confidence.Aggregate {
	return confidence.Aggregate{
		Score:              s.Score,
		ApprovalRate:       s.ApprovalRate,
		CleanApprovalRate:  s.CleanApprovalRate,
		EditRate:           s.EditRate,
		RejectionRate:      s.RejectionRate,
		UndoRate:           s.UndoRate,
		TotalSignals:       s.TotalSignals,
		ApprovedCount:      s.ApprovedCount,
		CleanApprovedCount: s.CleanApprovedCount,
		RejectedCount:      s.RejectedCount,
		UndoneCount:        s.UndoneCount,
		RecentScore:        s.RecentScore,
		AvgResponseMs:      s.AvgResponseMs,
		FirstSignalAt:      s.FirstSignalAt,
		LastSignalAt:       s.LastSignalAt,
		DaysActive:         s.DaysActive,
		PromotionEligible:  s.PromotionEligible,
	}
}

func renderNudgeMessage(c *PromotionCandidate) string {
	return fmt.Sprintf(
		"You've approved %d %s actions without edits. Want to move %s from %s to %s?",
		c.CleanApprovals, c.ActionType, c.ActionType, c.FromTier, c.ToTier,
	)
}
