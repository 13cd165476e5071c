// Package session owns the client-side session credential for portalctl.
//
// The credential is a bearer token plus a cached snapshot of the user profile
// returned by the backend at login. Both parts live and die together: they
// are persisted in a single atomic write and removed in a single clear. The
// cached profile is advisory — privileged access decisions always go back to
// the server (see internal/guard).
//
// # Architecture
//
//   - Store: persistence contract for the credential (SQLite-backed in
//     production, in-memory for tests).
//   - Session: the single owner of the current credential. Every component
//     that needs session state receives a *Session by injection; there is no
//     ambient global. Invalidation (logout or a 401 from the backend) clears
//     the store and notifies registered hooks before returning, so callers
//     never observe a half-cleared session.
//   - RoleHint: cosmetic role flags derived from the cached profile, suitable
//     only for menu visibility, never for gating.
//
// # Usage
//
//	store, err := session.NewSQLiteStore(db.DB)
//	sess := session.New(store, logger)
//	sess.OnInvalidate(func() { nav.GoTo(guard.RouteLogin) })
package session
