// Package history persists one row per render run in a SQLite database, so
// operators can review past renders, their settings, and how they ended.
package history
