// Package timeline models the edit document: an ordered list of timed clips,
// each composed of layered visual and audio elements, with transitions at
// clip boundaries.
//
// Load parses a TOML edit file, applies defaults, and validates every clip,
// layer, and transition; downstream code receives an immutable, normalized
// Timeline and never re-checks the invariants.
package timeline
