// Package repmemory projects trust state into the rep_memory table consumed
// by the agent runtime. The projection is a denormalized convenience copy;
// the engine never reads it back, and a missing destination table is a soft
// no-op rather than an error so the engine can run ahead of its consumers.
package repmemory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SixtySecondsApp/use60-sub018/internal/trust"
)

const pgUndefinedTableCode = "42P01"

// LevelEntry is the per-action-type value in the autonomy map.
type LevelEntry struct {
	Level      string `json:"level"`
	Confidence string `json:"confidence"`
}

// ScoreEntry is the per-action-type value in the score map.
type ScoreEntry struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// Projector rebuilds a user's rep-memory row from their trust states.
type Projector struct {
	db     *sql.DB
	trusts trust.System
	logger *slog.Logger
}

// NewProjector creates a Projector with the given trust system.
func NewProjector(db *sql.DB, trusts trust.System, logger *slog.Logger) *Projector {
	return &Projector{
		db:     db,
		trusts: trusts,
		logger: logger.With("system", "repmemory"),
	}
}

// Project rebuilds both maps across all of the user's keys and upserts them.
// Missing destination table is treated as "consumer not installed yet" and
// logged at debug, never returned.
func (p *Projector) Project(ctx context.Context, userID uuid.UUID) error {
	states, err := p.trusts.States(ctx, userID)
	if err != nil {
		return fmt.Errorf("load trust states: %w", err)
	}
	if len(states) == 0 {
		return nil
	}

	levels := make(map[string]LevelEntry, len(states))
	scores := make(map[string]ScoreEntry, len(states))
	for _, st := range states {
		levels[st.ActionType] = LevelEntry{
			Level:      string(st.Tier),
			Confidence: confidenceLabel(st.Score),
		}
		scores[st.ActionType] = ScoreEntry{
			Level: string(st.Tier),
			Score: st.Score,
		}
	}

	levelsJSON, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("marshal autonomy map: %w", err)
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("marshal score map: %w", err)
	}

	q := `
		INSERT INTO rep_memory(user_id, org_id, autonomy_levels, autonomy_scores, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			autonomy_levels = EXCLUDED.autonomy_levels,
			autonomy_scores = EXCLUDED.autonomy_scores,
			updated_at = now()`

	if _, err := p.db.ExecContext(ctx, q, userID, states[0].OrgID, levelsJSON, scoresJSON); err != nil {
		if missingDestination(err) {
			p.logger.Debug("rep_memory table absent, skipping projection", "user_id", userID)
			return nil
		}
		return fmt.Errorf("upsert rep memory: %w", err)
	}

	p.logger.Debug("rep memory projected", "user_id", userID, "action_types", len(states))
	return nil
}

// confidenceLabel buckets a numeric score into the coarse label the agent
// missingDestination reports whether the projection target does not exist
// yet. The projection is best-effort; an absent destination is tolerated as
// a no-op rather than an error.
func missingDestination(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTableCode
}

// runtime prefers over raw floats.
func confidenceLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
