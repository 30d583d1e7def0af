// Package harness runs hydrate scenarios against a deterministic engine.
//
// A scenario is a YAML file describing a timeline: steps at offsets from a
// fixed start instant (record a drink, check the reminder, run a sync pass,
// read the status, change settings, reset). The harness drives a real
// engine with a fake clock, a recording notification sink and an in-process
// collector, and records everything that happens as a trace.
//
// Traces are compared against golden files in testdata/golden, so any change
// in reminder timing, sync ordering or status projection shows up as a diff.
//
// Example scenario:
//
//	name: reminder_slots
//	description: one notification per elapsed slot
//	start: "2026-03-04T09:00:00Z"
//	steps:
//	  - {at: 0s, do: drink}
//	  - {at: 3h, do: check_reminder, expect: {fired: true}}
//	  - {at: 3h1m, do: check_reminder, expect: {fired: false}}
//	assertions:
//	  - {type: notification_count, count: 1}
package harness
