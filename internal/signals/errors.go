package signals

import (
	"errors"
	"net/http"
)

// Domain errors for signal operations.
var (
	ErrValidation  = errors.New("invalid signal payload")
	ErrNotFound    = errors.New("signal not found")
	ErrPersistence = errors.New("signal write failed")
)

// MapHTTPStatus maps signal domain errors to appropriate HTTP status codes.
// A failed ledger write is the one failure that must surface as 5xx: the
// signal is the source of truth and cannot be silently dropped.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
