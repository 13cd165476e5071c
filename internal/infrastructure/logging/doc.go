// Package logging provides structured logging for portalctl.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - Text output for terminals (default), JSON for machine consumption
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig section:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// Diagnostics default to stderr so command output on stdout stays clean.
//
// # Security
//
// Never log bearer tokens, passwords, or API keys. Log token names or
// truncated prefixes instead.
package logging
