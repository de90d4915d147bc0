// Package handler provides the HTTP API for the Athenaeum server.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps service and domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()

	// Keep wrapped internals out of client responses.
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		message = "internal server error"
	}

	var details string
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Unwrap().Error()
		details = domainErr.Message
	}

	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrIssueNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrBookNotAvailable),
		errors.Is(err, domain.ErrBookAvailable),
		errors.Is(err, domain.ErrAlreadyReturned):
		return http.StatusConflict

	case errors.Is(err, service.ErrBookBusy):
		return http.StatusServiceUnavailable

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, service.ErrInvalidAuthor),
		errors.Is(err, service.ErrInvalidSearchField),
		errors.Is(err, service.ErrInvalidFineAmount),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest wraps malformed-input failures from request decoding.
var errBadRequest = errors.New("bad request")

// decodeJSON decodes a request body into dst. An empty body leaves dst
// at its zero value, which matters for requests with all-optional fields.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		return errBadRequest
	}
	return nil
}
