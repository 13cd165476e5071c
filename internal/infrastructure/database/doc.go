// Package database manages the local SQLite state file for portalctl.
//
// The state file holds the persisted session credential (bearer token plus
// cached profile snapshot). SQLite gives the credential store atomic writes
// across both entries and safe behaviour when two portalctl invocations
// overlap (busy timeout, WAL).
//
// Schema creation is owned by the packages that store data here (see
// internal/session); this package only manages the connection lifecycle.
package database
