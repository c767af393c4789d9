// Package state provides the core value and snapshot types for vellum.
//
// This package contains type definitions and their canonical encodings.
// All other internal packages import state; state imports nothing
// internal. This keeps it the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Value is a sealed interface: only Text and Table implement it.
//     Reader scripts produce exactly these two shapes and nothing else.
//   - Checkpoints are immutable once created; the history log hands out
//     copies, never aliases.
//   - Checkpoint IDs are content-addressed: SHA-256 over RFC 8785
//     canonical JSON of the text fields, with a domain-separation prefix.
//     Variables and timestamps are excluded from the ID so that identical
//     content hashes identically across runs.
//   - All JSON tags use camelCase to match the exchange format consumed
//     by external collaborators.
package state
