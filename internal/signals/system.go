package signals

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// System defines the public contract for the signal ledger.
type System interface {
	Handler(dispatcher Dispatcher) *Handler

	// Record validates and durably appends one signal, returning the stored
	// row. The write is atomic; no downstream recomputation happens here.
	Record(ctx context.Context, key Key, cmd RecordCommand) (*Signal, error)

	// Window returns all signals for the key created at or after since,
	// oldest first.
	Window(ctx context.Context, key Key, since time.Time) ([]Signal, error)

	// Recent returns up to limit signals for the key, newest first.
	Recent(ctx context.Context, key Key, limit int) ([]Signal, error)

	// Find returns a single signal by id.
	Find(ctx context.Context, id uuid.UUID) (*Signal, error)
}
