// Package core contains the plumbing shared by every node: the bounded
// mailbox with semaphore admission, the output dispatcher with its fan-out
// retry loop, the status holder that reports state changes and faults, the
// locomotive that drives a worker loop, and the runner that owns a node's
// goroutines. It does not define node behaviour; packages node, tee and
// threaded compose these parts into graph elements.
package core
