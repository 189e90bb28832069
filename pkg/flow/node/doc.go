// Package node provides the graph elements that own worker goroutines:
// Processor (sink), Filter (transform and fan-out), Source (generator driven
// producer) and Join (strict pairing of two inputs).
//
// Every node is created stopped. StartProcessing spawns its workers,
// StopProcessing halts them cooperatively and Close stops, waits for the
// workers and discards whatever is still queued. A node is single use.
package node
