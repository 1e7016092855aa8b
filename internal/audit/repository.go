package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SixtySecondsApp/use60-sub018/pkg/pagination"
	"github.com/SixtySecondsApp/use60-sub018/pkg/query"
	"github.com/SixtySecondsApp/use60-sub018/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, event Event) (*Event, error) {
	var snapshotJSON []byte
	if event.Snapshot != nil {
		var err error
		if snapshotJSON, err = json.Marshal(event.Snapshot); err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
	}

	insertQ := `
		INSERT INTO audit_events(user_id, org_id, action_type, event_type, reason, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	row := r.db.QueryRowContext(ctx, insertQ,
		event.UserID, event.OrgID, event.ActionType, event.Type, event.Reason, snapshotJSON,
	)

	if err := row.Scan(&event.ID, &event.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert audit event: %w", err)
	}

	r.logger.Info("audit event recorded",
		"id", event.ID,
		"event_type", event.Type,
		"user_id", event.UserID,
		"action_type", event.ActionType,
	)
	return &event, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Event], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reason", "ActionType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}
