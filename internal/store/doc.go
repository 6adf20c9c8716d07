// Package store provides SQLite-backed durable storage for the timekeeper.
//
// Two surfaces share one database file:
//   - Blobs: single-row JSON documents (the race state snapshot and the
//     team configuration), overwritten in place on every save.
//   - Stint log: an append-only history of completed stints, keyed by
//     (epoch, stint_number) so reloads and reconnects never duplicate rows.
//
// The persisted state snapshot is advisory: a reader that cannot decode or
// validate it discards it and starts fresh rather than failing to boot.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
