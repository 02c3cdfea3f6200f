// Package httpx provides HTTP response utilities.
package httpx

import (
	"net/http"

	"github.com/meridian-id/meridian-id/internal/shared"
)

// StatusOf maps a domain error kind to an HTTP status code.
func StatusOf(err error) int {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps classified domain errors to RFC7807 responses.
// Internal causes are masked; their details never reach the caller.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	Problem(w, status, http.StatusText(status), shared.UserSafeMessage(err))
}
