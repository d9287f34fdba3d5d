// Package apperrors defines the error taxonomy shared by all handlers:
// validation problems surface to the user, not-found and authorization
// failures map to their HTTP statuses, and upstream failures (Slack API,
// chart renderer, blob store) degrade without leaking internals.
package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError carries one or more user-input problems. Messages are safe
// to show verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidation builds a ValidationError from a formatted message.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Messages: []string{fmt.Sprintf(format, args...)}}
}

// UpstreamError wraps a failure from an external collaborator.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError for the named service.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

// Write sends err as a JSON error response with the mapped status.
func Write(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": Message(err)})
}

// Message returns the body for an error response. Validation messages pass
// through; everything else gets a generic line so internals never leak.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch Status(err) {
	case http.StatusNotFound:
		return "not found"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadGateway:
		return "upstream service unavailable"
	default:
		return "internal error"
	}
}
