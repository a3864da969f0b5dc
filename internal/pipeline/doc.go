// Package pipeline is the single-shot controller for one invocation: it
// runs preflight, then either the dry-run scan or the live walker+pool
// orchestration, and produces one Summary.
//
// The live path wires the walker's event channel into the pool (file
// events become pool.Add calls, the terminal event becomes
// pool.MarkScanComplete), forwards directory/error events to the Observer,
// and translates the two-level shutdown protocol — a close of the graceful
// channel, then cancellation of ctx — into the pool's corresponding
// shutdown requests. This replaces the teacher's single-threaded,
// one-file-at-a-time runner.go loop, since the teacher's original design
// has no producer/consumer split to orchestrate.
package pipeline
