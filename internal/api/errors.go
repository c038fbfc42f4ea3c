package api

import (
	"errors"
	"net/http"

	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

// StatusFromError maps domain errors onto HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAuthenticationFailed), errors.Is(err, types.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with its mapped status. Only client-safe messages
// are exposed; everything else is replaced by fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := StatusFromError(err)
	msg, ok := types.PublicMessage(err)
	if !ok || status == http.StatusInternalServerError {
		msg = fallback
	}
	ErrorResponse(w, r, status, msg)
}
