package httpapi

import (
	"errors"
	"net/http"

	"github.com/goliatone/go-userboard/components/userboard"
)

// StatusFor maps store and gateway errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, userboard.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, userboard.ErrInvalidUser), errors.Is(err, userboard.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, userboard.ErrDeleteNotConfirmed),
		errors.Is(err, userboard.ErrNoFileSelected),
		errors.Is(err, userboard.ErrNotCSV):
		return http.StatusBadRequest
	case errors.Is(err, userboard.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsConfirmed reads a confirmation form or query value.
func IsConfirmed(value string) bool {
	switch value {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
