// Package apiclient is the single choke point for requests to the portal
// REST backend.
//
// Every outgoing request passes through one code path that attaches the
// bearer token from the injected session, and every response passes back
// through the same path, which reacts centrally to authentication failure:
// a 401 from any endpoint invalidates the session (clearing the credential
// store and triggering forced navigation via the session's invalidation
// hooks) before the error is returned, so no caller can race against a
// half-cleared session.
//
// There are no automatic retries. A failed request surfaces as an *APIError
// carrying the server's error payload when one was sent, or as ErrNetwork
// when no response arrived at all.
package apiclient
