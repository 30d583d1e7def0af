// Package store persists the hydrate document.
//
// Two backends implement Persistence:
//   - JSONFile: one JSON object per installation, replaced atomically
//     (write temp file, fsync, rename) so a crash mid-write never leaves a
//     truncated document behind
//   - SQLite: the same document in a SQLite database, rewritten inside one
//     transaction
//
// # Loading
//
// Loading merges the stored document onto defaults field by field: missing
// fields take their default, unknown fields are ignored, and settings are
// coerced through intake.SettingsPatch. A missing file or empty database is
// not an error; it yields intake.DefaultDocument().
//
// LoadOrDefault wraps Load for startup: any read or parse failure produces the
// default document with the error text in LastSyncError, so a corrupt state
// file never prevents the process from starting.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
