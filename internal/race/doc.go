// Package race implements the temporal state machine for an endurance-race
// timekeeper: the practice and race lifecycles, driver/stint rotation, and
// fuel-tank tracking.
//
// ARCHITECTURE:
//
// Pure Transition Function:
// All state changes flow through Apply(state, event, now) and
// Tick(state, now). Both are pure: they read one State snapshot and return a
// replacement snapshot, never mutating shared data in place. The current time
// is always a parameter, never read ambiently, so tests, the tick driver, and
// reconciliation can supply arbitrary timestamps deterministically.
//
// Timestamps, Not Counters:
// Elapsed and remaining times are never stored as live counters. They are
// recomputed on demand from a handful of stored anchor timestamps (race
// start, stint start, fuel-tank start, pause markers) plus "now". Delivering
// the same tick twice cannot double-count anything, and a state frozen on
// disk for an arbitrary interval can be corrected by a single Reconcile call.
//
// Defensive Totality:
// Events that are invalid for the current state (pausing an inactive race,
// swapping with no current driver, structural edits out of range) are no-ops
// returning the unchanged state. There are no partial-failure modes inside a
// transition: it fully applies or it doesn't apply at all.
package race
