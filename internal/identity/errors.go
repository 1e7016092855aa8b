package identity

import (
	"errors"
	"net/http"
)

// Domain errors for caller resolution.
var (
	ErrUnauthorized = errors.New("caller could not be authenticated")
	ErrNoMembership = errors.New("caller has no active organization membership")
)

// MapHTTPStatus maps identity domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNoMembership) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
