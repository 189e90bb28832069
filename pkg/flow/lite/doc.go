// Package lite lifts plain functions into graph nodes. It is designed for
// small graphs whose leaves are simple computations.
//
// Common usage:
// - Map/Try/Guard/Passthrough/Tap: filters over a per-item function
// - WaitEvent/SetEvent/ResetEvent, AcquireSemaphore/ReleaseSemaphore:
//   passthrough filters that synchronize with code outside the graph
// - Action/Discard/Collector: sinks
// - Constant/FromSlice/FromChan/Random/RandomFloat/Emitter: sources
// - Combine and the logic gates: joins over a pair function
//
// For full control over keep/error semantics use package node directly.
package lite
