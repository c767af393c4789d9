// Package store provides the embedded SQLite scratch database that
// Writer and Reader scripts operate against.
//
// The store is deliberately thin: scripts own the schema and content, the
// host only brokers statements. It exposes exactly the surface of the
// script calling convention:
//   - Mutate: schema/data-changing statements, returns rows affected
//   - Execute: one read statement, returns a column/row result set
//   - ListTables: user tables, engine-internal ones excluded
//   - TableRows: bounded peek into one table
//   - Reset: drop all user tables and views (checkpoint restore replays
//     the Writer against an empty store)
//
// # Ownership
//
// A store instance has a single owner at a time: during a sync only the
// currently running script may touch it, and Writer then Reader run
// strictly sequentially. The connection pool is pinned to one connection,
// so there is no hidden concurrency inside an instance.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes (file-backed stores)
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// All failures surface as *StoreError with a stable code; nothing in this
// package panics on malformed script SQL.
package store
