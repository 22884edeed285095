package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnavailable means the backend could not be reached (network error,
	// timeout, gateway failure). Callers may offer a retry.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized means the backend rejected the bearer credential as
	// expired or invalid. Receiving it mid-session forces a logout.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials means login or OTP verification was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden means the credential is valid but lacks the role for the call.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrUnknown covers unexpected statuses and malformed responses.
	ErrUnknown = errors.New("unknown error")
)

// ValidationError carries field-level messages from client-side validation
// or from a 400/409/422 backend response.
type ValidationError struct {
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Message == "" {
			return ErrValidation.Error()
		}
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
