package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
	"github.com/swaroop-labs/portalctl/internal/session"
)

// recordingNavigator captures forced navigations.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []Route
}

func (n *recordingNavigator) GoTo(route Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) last() (Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return "", false
	}
	return n.routes[len(n.routes)-1], true
}

// stubChecker is a scriptable RoleChecker.
type stubChecker struct {
	verdict Verdict
	err     error
	delay   time.Duration
	started chan struct{}
	release chan struct{}
}

func (c *stubChecker) CheckAdmin(ctx context.Context) (Verdict, error) {
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.verdict, c.err
}

func authedSession(t *testing.T, isAdmin bool) *session.Session {
	t.Helper()
	sess := session.New(session.NewMemoryStore(), logging.Default())
	err := sess.Establish(context.Background(), session.Credential{
		Token: "abc",
		Profile: session.Profile{
			ID:       "usr-1",
			Username: "asha",
			Email:    "asha@example.com",
			IsAdmin:  isAdmin,
		},
	})
	if err != nil {
		t.Fatalf("establishing session: %v", err)
	}
	return sess
}

func TestAuthGate_EmptyStoreRedirectsToLogin(t *testing.T) {
	sess := session.New(session.NewMemoryStore(), logging.Default())
	nav := &recordingNavigator{}
	gate := NewAuthGate(sess, nav, logging.Default())

	if state := gate.Resolve(context.Background()); state != Unauthenticated {
		t.Errorf("Resolve() = %v, want Unauthenticated", state)
	}
	if gate.Allow(context.Background()) {
		t.Error("Allow() = true without a credential")
	}
	if route, ok := nav.last(); !ok || route != RouteLogin {
		t.Errorf("navigation target = %v, want login", route)
	}
}

func TestAuthGate_PresentCredentialAllows(t *testing.T) {
	nav := &recordingNavigator{}
	gate := NewAuthGate(authedSession(t, false), nav, logging.Default())

	if !gate.Allow(context.Background()) {
		t.Error("Allow() = false with a credential")
	}
	if _, ok := nav.last(); ok {
		t.Error("unexpected navigation for an authenticated session")
	}
}

func TestPrivilegedGate_GrantOnServerYes(t *testing.T) {
	nav := &recordingNavigator{}
	gate := NewPrivilegedGate(&stubChecker{verdict: Verdict{IsAdmin: true}}, nav, logging.Default())

	if state := gate.Resolve(context.Background()); state != Granted {
		t.Errorf("Resolve() = %v, want Granted", state)
	}
	if _, ok := nav.last(); ok {
		t.Error("unexpected redirect on grant")
	}
}

func TestPrivilegedGate_DenyOnServerNo(t *testing.T) {
	nav := &recordingNavigator{}
	gate := NewPrivilegedGate(&stubChecker{verdict: Verdict{IsAdmin: false}}, nav, logging.Default())

	if state := gate.Resolve(context.Background()); state != Denied {
		t.Errorf("Resolve() = %v, want Denied", state)
	}
	if route, ok := nav.last(); !ok || route != RouteHome {
		t.Errorf("navigation target = %v, want home", route)
	}
}

func TestPrivilegedGate_DenyOnCheckFailure(t *testing.T) {
	// A failed round-trip is indistinguishable from an explicit denial.
	nav := &recordingNavigator{}
	gate := NewPrivilegedGate(&stubChecker{err: errors.New("backend down")}, nav, logging.Default())

	if state := gate.Resolve(context.Background()); state != Denied {
		t.Errorf("Resolve() = %v, want Denied", state)
	}
	if route, ok := nav.last(); !ok || route != RouteHome {
		t.Errorf("navigation target = %v, want home", route)
	}
}

func TestPrivilegedGate_CheckingWhilePending(t *testing.T) {
	checker := &stubChecker{
		verdict: Verdict{IsAdmin: true},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	gate := NewPrivilegedGate(checker, &recordingNavigator{}, logging.Default())

	if gate.State() != Checking {
		t.Fatalf("initial State() = %v, want Checking", gate.State())
	}

	done := make(chan CheckState)
	go func() {
		done <- gate.Resolve(context.Background())
	}()

	// While the round-trip is in flight nothing privileged may be exposed,
	// however long the server takes.
	<-checker.started
	if gate.State() != Checking {
		t.Errorf("State() during check = %v, want Checking", gate.State())
	}

	close(checker.release)
	if state := <-done; state != Granted {
		t.Errorf("Resolve() = %v, want Granted", state)
	}
	if gate.State() != Granted {
		t.Errorf("State() after resolve = %v, want Granted", gate.State())
	}
}

func TestPrivilegedGate_IgnoresCachedAdminFlag(t *testing.T) {
	// The session caches isAdmin=true, but the server says no: the gate
	// must deny. The cached flag is cosmetic only.
	sess := authedSession(t, true)
	if hint := sess.Hint(context.Background()); !hint.IsAdmin {
		t.Fatal("test setup: cached hint should claim admin")
	}

	nav := &recordingNavigator{}
	gate := NewPrivilegedGate(&stubChecker{verdict: Verdict{IsAdmin: false}}, nav, logging.Default())

	if state := gate.Resolve(context.Background()); state != Denied {
		t.Errorf("Resolve() = %v, want Denied despite cached admin flag", state)
	}
}
