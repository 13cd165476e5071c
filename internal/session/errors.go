package session

import "errors"

// Domain errors for the session package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, session.ErrNoCredential) {
//	    // prompt for login
//	}
var (
	// ErrNoCredential is returned when an operation requires an established
	// session but none is present.
	ErrNoCredential = errors.New("session: no credential")

	// ErrInvalidCredential is returned when a credential fails validation
	// before being saved (empty token or profile).
	ErrInvalidCredential = errors.New("session: invalid credential")
)
