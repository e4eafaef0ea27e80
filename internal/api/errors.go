// Package api provides HTTP handlers for the API.
package api

import (
	"errors"
	"net/http"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/service/auth"
	"github.com/ali-aktas/hocalingo/internal/service/selection"
	"github.com/ali-aktas/hocalingo/internal/service/study"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the session or flow is not in a state that
	// accepts the request.
	case errors.Is(err, study.ErrSessionActive),
		errors.Is(err, study.ErrNotInSession),
		errors.Is(err, study.ErrPausedAtBreak),
		errors.Is(err, study.ErrNotReloadable),
		errors.Is(err, selection.ErrNoCandidates),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, study.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal
// details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, store.ErrProgressNotFound):
		return "Card progress not found"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrSelectionNotFound):
		return "Selection not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, study.ErrSessionActive):
		return "A study session is already active"

	case errors.Is(err, study.ErrNotInSession):
		return "No active study session"

	case errors.Is(err, study.ErrPausedAtBreak):
		return "Session is paused at a breakpoint"

	case errors.Is(err, study.ErrNotReloadable):
		return "Session cannot be reloaded from its current state"

	case errors.Is(err, selection.ErrNoCandidates):
		return "No candidates remaining"

	case errors.Is(err, study.ErrInvalidQuality),
		errors.Is(err, domain.ErrInvalidQuality):
		return "Invalid answer quality"

	case errors.Is(err, domain.ErrInvalidDecision):
		return "Invalid selection decision"

	case errors.Is(err, domain.ErrInvalidDirection):
		return "Invalid study direction"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
