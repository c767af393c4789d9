// Package history persists the session's checkpoint log in SQLite.
//
// The log is append-only and position-addressed: Append assigns the
// next contiguous index starting at 0, and Truncate discards every
// entry after a given index. Entries are immutable once written.
// Restore-style workflows read an entry with Get and then call
// Truncate to abandon the discarded branch of history.
//
// The log lives in its own database file, separate from the scratch
// store that scripts operate on, so resetting script state never
// touches recorded checkpoints.
package history
