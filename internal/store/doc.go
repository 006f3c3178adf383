// Package store provides SQLite-backed durable storage for characters.
//
// The store keeps two tables:
//   - Characters: the current quality snapshot and equipment, the
//     qualities the character was created with, and a version counter
//   - Changes: an append-only log of every applied change, keyed by the
//     engine's logical seq
//
// # Patterns
//
// Optimistic concurrency
//   - SaveCharacter takes the version the caller loaded and fails with
//     ErrVersionConflict if another writer saved first
//   - A successful save increments version by one
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - last_seq lets the next request resume the clock with engine.NewClockAt
//
// Deterministic replay
//   - Replay folds the change log over the initial qualities
//   - VerifyReplay compares ir.SnapshotDigest of the result with the
//     stored snapshot
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
