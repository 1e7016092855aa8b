package audit

import (
	"context"

	"github.com/SixtySecondsApp/use60-sub018/pkg/pagination"
)

// System defines the public contract for the audit trail.
type System interface {
	Handler() *Handler

	// Record appends one audit event, assigning its id and timestamp.
	Record(ctx context.Context, event Event) (*Event, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Event], error)
}
