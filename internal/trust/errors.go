package trust

import (
	"errors"
	"net/http"
)

// Domain errors for trust state operations.
var (
	ErrNotFound        = errors.New("trust state not found")
	ErrInvalidDecision = errors.New("unknown promotion decision")
	ErrAtCeiling       = errors.New("already at the highest autonomy tier")
)

// MapHTTPStatus maps trust domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidDecision) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrAtCeiling) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
