package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the apiclient package.
//
// These can be checked with errors.Is() regardless of whether the concrete
// error is an *APIError or a wrapped transport failure:
//
//	if errors.Is(err, apiclient.ErrUnauthorized) {
//	    // session was already invalidated centrally
//	}
var (
	// ErrUnauthorized is matched by any 401 response. By the time a caller
	// sees it, the session has already been invalidated.
	ErrUnauthorized = errors.New("apiclient: unauthorised")

	// ErrForbidden is matched by any 403 response (privileged action
	// rejected server-side). Not session-invalidating.
	ErrForbidden = errors.New("apiclient: forbidden")

	// ErrNetwork indicates no response was received (DNS, refused
	// connection, timeout). The server state is unknown.
	ErrNetwork = errors.New("apiclient: network failure")
)

// APIError is a structured error decoded from a backend error response.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Code is the machine-readable error code from the payload, if any.
	Code string

	// Message is the human-readable message from the payload. Validation
	// and business errors (400, 422) surface this verbatim to the user.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (%d)", e.Status)
}

// Is maps status codes onto the package sentinels so callers can branch
// without inspecting status codes directly.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// UserMessage returns the text suitable for direct display. Transient
// validation messages pass through; everything else gets a generic line.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return "session expired, please log in again"
	case http.StatusForbidden:
		return "you do not have permission to do that"
	default:
		return "request failed, please try again"
	}
}
