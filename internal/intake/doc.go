// Package intake defines the domain types shared by every hydrate component.
//
// An intake record is one logged drink with an amount and a timestamp. Records
// are append-only: the only field that ever changes after creation is Synced,
// which flips from false to true exactly once when the sync engine has
// delivered the record to the remote collector.
//
// The package also owns the pieces of identity that must stay stable across
// restarts and sync passes:
//   - FormatLocalDateTime, the second-granularity local timestamp used on the wire
//   - IdempotencyKey, userId + "_" + FormatLocalDateTime(occurredAt)
//   - NormalizeSettings, the per-field defaulting applied when loading settings
//
// Clock and IDGenerator are the capabilities through which time and record
// identity enter the system, so tests can substitute deterministic versions.
package intake
