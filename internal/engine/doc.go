// Package engine is the hydrate controller.
//
// The engine owns the shared State and wires the sync engine, the reminder
// scheduler and the status projector to it. It exposes the operations the
// CLI calls (record an intake, update settings, reset, read status, show a
// test reminder) and, in Run, drives the periodic timers.
//
// ARCHITECTURE:
//
// Single sync worker:
// Sync passes are never run on the caller's goroutine. RecordIntake and the
// sync timer submit a trigger to a coalescing queue; one worker goroutine
// started by Run consumes triggers and runs one pass per trigger. Triggers
// that arrive while a trigger is already pending are merged into it, so a
// burst of appends costs at most one extra pass.
//
// Timers:
//   - sync: every 5 minutes by default (WithSyncInterval)
//   - reminder check: every 60 seconds by default (WithReminderCheckInterval)
//
// All state mutation goes through state.State, which serializes writers and
// persists after every change. Network I/O happens only in the worker.
package engine
