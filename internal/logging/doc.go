// Package logging assembles the structured slog loggers used across montage.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// re-exports attribute constructors so render stages tag log lines with the
// same field names everywhere. A no-op logger is provided for tests and for
// wiring code that cannot fail.
package logging
