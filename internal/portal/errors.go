package portal

import "errors"

// Domain errors for the portal services.
var (
	// ErrEmptyTokenName is returned when creating an API token without a name.
	ErrEmptyTokenName = errors.New("portal: token name must not be empty")

	// ErrInvalidAmount is returned when a purchase amount is not positive.
	ErrInvalidAmount = errors.New("portal: purchase amount must be positive")
)
