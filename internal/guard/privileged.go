package guard

import (
	"context"
	"sync"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// Verdict is the authoritative answer to a privileged-role check. Unlike
// session.RoleHint it is only ever produced by a server round-trip, so it is
// safe to gate access on.
type Verdict struct {
	IsAdmin bool
}

// RoleChecker performs the server round-trip behind the privileged gate.
// Implemented by the portal admin service against GET /support/check-admin.
type RoleChecker interface {
	CheckAdmin(ctx context.Context) (Verdict, error)
}

// CheckState is the privileged gate's resolution.
type CheckState int

const (
	// Checking is the initial state: the round-trip is in flight and
	// nothing privileged may be shown.
	Checking CheckState = iota

	// Granted allows the privileged view.
	Granted

	// Denied redirects to the authenticated landing view. Covers both an
	// explicit server denial and a failed check — callers cannot tell the
	// two apart, and there is no retry.
	Denied
)

// String returns the state name for logging.
func (s CheckState) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "checking"
	}
}

// PrivilegedGate protects the admin subtree behind a server-confirmed role
// check. A fresh gate is created per privileged navigation, mirroring the
// check-on-mount behaviour of the views it guards.
//
// Thread Safety: State may be read concurrently with Resolve.
type PrivilegedGate struct {
	checker RoleChecker
	nav     Navigator
	logger  *logging.Logger

	mu    sync.RWMutex
	state CheckState
}

// NewPrivilegedGate creates a gate in the Checking state.
func NewPrivilegedGate(checker RoleChecker, nav Navigator, logger *logging.Logger) *PrivilegedGate {
	return &PrivilegedGate{
		checker: checker,
		nav:     nav,
		logger:  logger,
		state:   Checking,
	}
}

// State returns the gate's current resolution. While the check is in
// flight this stays Checking, which callers render as a loading indicator
// and nothing else.
func (g *PrivilegedGate) State() CheckState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Resolve issues the role check and settles the gate. The cached role flag
// is deliberately not consulted: a stale "admin" in the local snapshot must
// not grant access. A check failure is treated exactly like a denial.
func (g *PrivilegedGate) Resolve(ctx context.Context) CheckState {
	verdict, err := g.checker.CheckAdmin(ctx)

	state := Denied
	switch {
	case err != nil:
		g.logger.Warn("privileged role check failed, denying", "error", err)
	case verdict.IsAdmin:
		state = Granted
	}

	g.mu.Lock()
	g.state = state
	g.mu.Unlock()

	if state == Denied {
		g.nav.GoTo(RouteHome)
	}
	return state
}
