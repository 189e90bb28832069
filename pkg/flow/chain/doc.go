// Package chain provides a fluent way to wire linear graphs and a Group
// that runs the lifecycle of many nodes at once.
//
// Key operations:
// - From: begin a chain at a producer
// - Then: attach a filter and continue from its output
// - To: attach the final inputs
// - Err: the first wiring error, after which the chain does nothing
//
// Nodes met along the way are collected in the chain's Group, which starts
// them sinks first, stops them sources first and closes them all.
package chain
