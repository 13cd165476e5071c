// Package views coordinates data refresh for the portal's views.
//
// Two pieces:
//
//   - Refresher guards one view's data against stale responses. Every
//     refresh is stamped with a generation; a response is applied only if no
//     newer refresh was issued while it was in flight, so a slow earlier
//     fetch can never overwrite a later one.
//
//   - Watcher owns the realtime channel for a session and turns pushed
//     invalidation events into refreshes, with a periodic fallback tick for
//     anything the push path misses. Stopping the watcher closes the
//     channel and cancels the tick.
package views
