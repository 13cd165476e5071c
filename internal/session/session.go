package session

import (
	"context"
	"sync"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// Session is the single owner of the current credential.
//
// It fronts a Store with an in-memory copy so that presence checks (the
// authenticated gate resolves synchronously) do not hit storage on every
// navigation. Writers are the login flow, the profile-refresh flow, the
// logout flow, and the API client's 401 handler; writes are last-write-wins,
// which is acceptable because they are user-serialised.
//
// Thread Safety: all methods are safe for concurrent use.
type Session struct {
	store  Store
	logger *logging.Logger

	mu     sync.Mutex
	cred   Credential
	set    bool
	loaded bool
	hooks  []func()
}

// New creates a Session backed by the given store. The persisted credential,
// if any, is loaded lazily on first access.
func New(store Store, logger *logging.Logger) *Session {
	return &Session{
		store:  store,
		logger: logger,
	}
}

// OnInvalidate registers a hook that runs whenever the session is
// invalidated. Hooks run synchronously inside Invalidate, before it returns,
// so forced navigation completes before any caller observes the failure.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Establish saves a new credential (login success) and makes it current.
func (s *Session) Establish(ctx context.Context, cred Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}
	if err := s.store.Save(ctx, cred); err != nil {
		return err
	}

	s.mu.Lock()
	s.cred = cred
	s.set = true
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Current returns the active credential. A storage failure is treated as
// "absent": the caller sees no session rather than an error, matching the
// store contract.
func (s *Session) Current(ctx context.Context) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		cred, ok, err := s.store.Load(ctx)
		if err != nil {
			s.logger.Warn("loading stored credential failed, treating as absent", "error", err)
			ok = false
		}
		s.cred = cred
		s.set = ok
		s.loaded = true
	}

	if !s.set {
		return Credential{}, false
	}
	return s.cred, true
}

// Token returns the bearer token of the active credential, if any.
func (s *Session) Token(ctx context.Context) (string, bool) {
	cred, ok := s.Current(ctx)
	if !ok {
		return "", false
	}
	return cred.Token, true
}

// RefreshProfile replaces the cached profile snapshot, keeping the token.
// Called after every successful /auth/me fetch so the snapshot tracks the
// server without becoming authoritative.
func (s *Session) RefreshProfile(ctx context.Context, profile Profile) error {
	s.mu.Lock()
	if !s.set {
		s.mu.Unlock()
		return ErrNoCredential
	}
	updated := Credential{Token: s.cred.Token, Profile: profile}
	s.mu.Unlock()

	if err := s.store.Save(ctx, updated); err != nil {
		return err
	}

	s.mu.Lock()
	// Only apply if the session was not invalidated while saving.
	if s.set {
		s.cred = updated
	}
	s.mu.Unlock()
	return nil
}

// Invalidate clears the credential and runs the registered hooks. It is safe
// to call on an already-empty session: the store clear is idempotent and the
// hooks run on every call, because each call corresponds to one
// session-ending event (logout or a 401 response).
func (s *Session) Invalidate(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		// The in-memory state is still cleared; a stale row in the state
		// file is rendered harmless by the next Establish overwrite.
		s.logger.Warn("clearing stored credential failed", "error", err)
	}

	s.mu.Lock()
	s.cred = Credential{}
	s.set = false
	s.loaded = true
	hooks := make([]func(), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Hint returns the cosmetic role hint for the active credential. An absent
// session yields the zero hint (no privileged menu entries).
func (s *Session) Hint(ctx context.Context) RoleHint {
	cred, ok := s.Current(ctx)
	if !ok {
		return RoleHint{}
	}
	return cred.Hint()
}
