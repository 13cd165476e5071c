package guard

import (
	"context"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// Route identifies a navigation target.
type Route string

// Well-known routes.
const (
	// RouteLogin is where unauthenticated (or invalidated) sessions land.
	RouteLogin Route = "/login"

	// RouteHome is the default authenticated landing view, and where denied
	// privileged navigations are sent.
	RouteHome Route = "/home"
)

// Navigator abstracts forced navigation. The CLI prints a redirect notice;
// tests record the target.
type Navigator interface {
	GoTo(route Route)
}

// AuthState is the authenticated gate's resolution.
type AuthState int

const (
	// AuthUnknown is the initial state, before the gate has resolved.
	AuthUnknown AuthState = iota

	// Authenticated allows descent into nested routes.
	Authenticated

	// Unauthenticated redirects to the login route.
	Unauthenticated
)

// String returns the state name for logging.
func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AuthGate gates authenticated views on credential presence.
// Resolution is synchronous: no network round-trip is involved.
type AuthGate struct {
	session *session.Session
	nav     Navigator
	logger  *logging.Logger
}

// NewAuthGate creates the authenticated gate.
func NewAuthGate(sess *session.Session, nav Navigator, logger *logging.Logger) *AuthGate {
	return &AuthGate{session: sess, nav: nav, logger: logger}
}

// Resolve returns the gate state for the current session.
func (g *AuthGate) Resolve(ctx context.Context) AuthState {
	if _, ok := g.session.Current(ctx); !ok {
		return Unauthenticated
	}
	return Authenticated
}

// Allow resolves the gate and performs the login redirect on failure.
// It returns true when the caller may proceed.
func (g *AuthGate) Allow(ctx context.Context) bool {
	if g.Resolve(ctx) == Unauthenticated {
		g.logger.Debug("no credential, redirecting to login")
		g.nav.GoTo(RouteLogin)
		return false
	}
	return true
}
