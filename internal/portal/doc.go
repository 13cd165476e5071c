// Package portal provides typed services over the developer-portal REST
// surface: authentication, API tokens, subscriptions, the credit ledger,
// usage analytics, support tickets, payments and admin operations.
//
// Each service wraps the shared API client and exposes the endpoints one
// view of the portal consumes. Services hold no mutable state of their own
// beyond registered callbacks; the session object owns the credential and
// the client owns transport concerns (bearer attach, 401 invalidation).
package portal
