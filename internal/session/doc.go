// Package session runs the single-writer timekeeping loop.
//
// All state mutation happens in the one goroutine executing Run: external
// callers submit events through Dispatch and receive the resulting snapshot.
// A periodic ticker drives the time-based transitions (practice timeout,
// race completion, fuel alerts) while any clock is running.
//
// Thread-safety model:
//   - Dispatch(), Current(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Persistence is write-behind: the loop saves the state snapshot after every
// transition that changed it and appends newly completed stints to the
// durable log. Persistence failures are logged and the loop keeps running;
// the in-memory state stays authoritative until the next successful save.
package session
