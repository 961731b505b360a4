// Package host is the consumer side of the command queue.
//
// A Dispatcher maps each queued endpoint to a Handler and is the
// queue.Executor the frame Loop drains into. Simulated is the headless
// host the server binary runs: it keeps pause state, an object lock log
// and per-endpoint mutation counters, and derives a deterministic state
// hash from them.
package host
