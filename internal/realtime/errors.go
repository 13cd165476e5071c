package realtime

import "errors"

// Domain errors for the realtime package.
var (
	// ErrNoToken is returned by Connect when the session holds no bearer
	// token; the channel is only meaningful for an authenticated session.
	ErrNoToken = errors.New("realtime: no session token")

	// ErrClosed is returned by Connect after Close has been called.
	ErrClosed = errors.New("realtime: channel closed")

	// ErrDialFailed wraps handshake failures on the initial connect.
	ErrDialFailed = errors.New("realtime: dial failed")
)
