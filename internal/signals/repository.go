package signals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SixtySecondsApp/use60-sub018/internal/config"
	"github.com/SixtySecondsApp/use60-sub018/pkg/query"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

var signalsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedback_signals_recorded_total",
	Help: "Feedback signals durably recorded, by signal kind.",
}, []string{"signal"})

type repo struct {
	db       *sql.DB
	engine   *config.EngineConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a signal ledger backed by the action_signals table.
func New(db *sql.DB, engine *config.EngineConfig, logger *slog.Logger) System {
	return &repo{
		db:       db,
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("system", "signals"),
	}
}

func (r *repo) Handler(dispatcher Dispatcher) *Handler {
	return NewHandler(r, dispatcher, r.logger)
}

func (r *repo) Record(ctx context.Context, key Key, cmd RecordCommand) (*Signal, error) {
	if err := r.validateCommand(key, cmd); err != nil {
		return nil, err
	}

	kind := Kind(cmd.Signal)
	rubberStamp := r.isRubberStamp(kind, cmd)

	editFieldsJSON, linkedJSON, err := marshalMetadata(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	insertQ := `
		INSERT INTO action_signals(
			user_id, org_id, action_type, agent_name, signal,
			edit_distance, edit_fields, time_to_respond_ms,
			confidence_at_proposal, linked_entity_ids,
			tier_at_time, rubber_stamp, is_backfill
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	sig := Signal{
		UserID:               key.UserID,
		OrgID:                key.OrgID,
		ActionType:           cmd.ActionType,
		AgentName:            cmd.AgentName,
		Kind:                 kind,
		EditDistance:         cmd.EditDistance,
		EditFields:           cmd.EditFields,
		ResponseLatencyMs:    cmd.TimeToRespondMs,
		ConfidenceAtProposal: cmd.ConfidenceAtProposal,
		LinkedEntityIDs:      cmd.LinkedEntityIDs,
		TierAtTime:           cmd.AutonomyTierAtTime,
		RubberStamp:          rubberStamp,
		Backfill:             cmd.IsBackfill,
	}

	row := r.db.QueryRowContext(ctx, insertQ,
		key.UserID, key.OrgID, cmd.ActionType, cmd.AgentName, cmd.Signal,
		cmd.EditDistance, editFieldsJSON, cmd.TimeToRespondMs,
		cmd.ConfidenceAtProposal, linkedJSON,
		cmd.AutonomyTierAtTime, rubberStamp, cmd.IsBackfill,
	)

	if err := row.Scan(&sig.ID, &sig.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	signalsRecorded.WithLabelValues(string(kind)).Inc()
	r.logger.Info("signal recorded",
		"id", sig.ID,
		"user_id", key.UserID,
		"action_type", cmd.ActionType,
		"signal", kind,
		"rubber_stamp", rubberStamp,
	)
	return &sig, nil
}

func (r *repo) Window(ctx context.Context, key Key, since time.Time) ([]Signal, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE s.user_id = $1 AND s.org_id = $2 AND s.action_type = $3 AND s.created_at >= $4
		ORDER BY s.created_at ASC`,
		projection.Columns(), projection.Table(),
	)

	items, err := repository.QueryMany(ctx, r.db, q,
		[]any{key.UserID, key.OrgID, key.ActionType, since}, scanSignal)
	if err != nil {
		return nil, fmt.Errorf("query signal window: %w", err)
	}
	return items, nil
}

func (r *repo) Recent(ctx context.Context, key Key, limit int) ([]Signal, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE s.user_id = $1 AND s.org_id = $2 AND s.action_type = $3
		ORDER BY s.created_at DESC
		LIMIT $4`,
		projection.Columns(), projection.Table(),
	)

	items, err := repository.QueryMany(ctx, r.db, q,
		[]any{key.UserID, key.OrgID, key.ActionType, limit}, scanSignal)
	if err != nil {
		return nil, fmt.Errorf("query recent signals: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Signal, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sig, err := repository.QueryOne(ctx, r.db, q, args, scanSignal)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrPersistence)
	}
	return &sig, nil
}

func (r *repo) validateCommand(key Key, cmd RecordCommand) error {
	if key.UserID == uuid.Nil || key.OrgID == uuid.Nil {
		return fmt.Errorf("%w: missing user or org", ErrValidation)
	}
	if !Kind(cmd.Signal).Valid() {
		return fmt.Errorf("%w: unknown signal kind %q", ErrValidation, cmd.Signal)
	}
	if err := r.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return nil
}

// isRubberStamp derives the rubber-stamp flag from response latency against
// the action type's threshold. Only approvals are eligible; a missing latency
// is never a rubber stamp.
func (r *repo) isRubberStamp(kind Kind, cmd RecordCommand) bool {
	if !kind.IsApproval() || cmd.TimeToRespondMs == nil {
		return false
	}
	return *cmd.TimeToRespondMs < r.engine.RubberStampThresholdMs(cmd.ActionType)
}

func marshalMetadata(cmd RecordCommand) ([]byte, []byte, error) {
	var editFieldsJSON, linkedJSON []byte
	var err error

	if cmd.EditFields != nil {
		if editFieldsJSON, err = json.Marshal(cmd.EditFields); err != nil {
			return nil, nil, fmt.Errorf("marshal edit_fields: %w", err)
		}
	}
	if cmd.LinkedEntityIDs != nil {
		if linkedJSON, err = json.Marshal(cmd.LinkedEntityIDs); err != nil {
			return nil, nil, fmt.Errorf("marshal linked_entity_ids: %w", err)
		}
	}
	return editFieldsJSON, linkedJSON, nil
}
