// Package realtime maintains the push channel to the portal backend.
//
// The backend exposes a single WebSocket endpoint per session; the bearer
// token travels as a query parameter because the handshake carries no
// custom headers. Pushed messages are JSON envelopes with a `type`
// discriminator and are treated purely as invalidation signals: interested
// views re-fetch their collection rather than trusting the payload, whose
// shape varies across backend call sites.
//
// # Connection state machine
//
//	DISCONNECTED ──Connect──▶ CONNECTING ──▶ OPEN
//	      ▲                        │           │ close
//	      │  attempts exhausted    │ dial fail ▼
//	      └───────────────── RECONNECT_SCHEDULED
//
// A close event schedules exactly one reconnect attempt after a fixed delay
// (no backoff). The channel owns a single timer handle: a second close while
// an attempt is already scheduled replaces the pending timer instead of
// doubling it. Attempts may be bounded by MaxAttempts (0 = unlimited);
// a successful open resets the counter.
//
// No ordering is guaranteed across messages — each is independently
// actionable. Close is explicit and idempotent; the owner must call it when
// the view unmounts or the session ends so sockets do not leak.
package realtime
