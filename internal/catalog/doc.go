// Package catalog embeds the static catalog of hosted APIs and credit
// packages. The data backs the CLI's docs and pricing output and never
// changes at runtime; anything billing-relevant is re-checked against the
// backend.
package catalog
