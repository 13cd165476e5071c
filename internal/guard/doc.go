// Package guard decides whether a navigation target may proceed, based on
// session and role state.
//
// Two independent gates compose in sequence:
//
//   - AuthGate resolves synchronously from credential presence — no network
//     call. Unauthenticated sessions are redirected to the login route.
//   - PrivilegedGate protects the admin subtree. It issues one server
//     round-trip to confirm the role and exposes a CHECKING state until the
//     answer arrives, so nothing privileged is ever shown early. A denial
//     and a failed check are deliberately indistinguishable: both redirect
//     to the authenticated landing route, with no retry.
//
// The locally cached role flags (session.RoleHint) are never consulted for
// the privileged decision — only the server's Verdict is. The hint exists
// solely for cosmetic menu visibility.
package guard
