package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store resolves chat identities and credentials from the users and
// organizations tables. It implements both Directory and Credentials.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ChatUserID(ctx context.Context, userID uuid.UUID) (string, error) {
	var chatUserID *string

	row := s.db.QueryRowContext(ctx,
		`SELECT chat_user_id FROM users WHERE id = $1`, userID)
	if err := row.Scan(&chatUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: user %s", ErrNotLinked, userID)
		}
		return "", fmt.Errorf("resolve chat identity: %w", err)
	}

	if chatUserID == nil || *chatUserID == "" {
		return "", fmt.Errorf("%w: user %s", ErrNotLinked, userID)
	}
	return *chatUserID, nil
}

func (s *Store) WebhookURL(ctx context.Context, orgID uuid.UUID) (string, error) {
	var webhookURL *string

	row := s.db.QueryRowContext(ctx,
		`SELECT chat_webhook_url FROM organizations WHERE id = $1`, orgID)
	if err := row.Scan(&webhookURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: org %s", ErrNoCredential, orgID)
		}
		return "", fmt.Errorf("resolve messaging credential: %w", err)
	}

	if webhookURL == nil || *webhookURL == "" {
		return "", fmt.Errorf("%w: org %s", ErrNoCredential, orgID)
	}
	return *webhookURL, nil
}
