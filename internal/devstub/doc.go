// Package devstub is a local stand-in for the developer-portal backend.
//
// It implements the REST and WebSocket contract the SDK speaks — auth,
// tokens, subscriptions, transactions, analytics, support tickets,
// payments, admin — over in-memory state, issuing and validating real JWT
// bearers. Mutations push typed invalidation events to connected WebSocket
// clients, so the full client loop (call, push, refresh) can be exercised
// without the production backend.
//
// State is process-local and lost on restart. That is the point: it backs
// cmd/portalstub for local development and the SDK's integration tests.
package devstub
