package flow

import (
	"context"

	"github.com/google/uuid"
)

// Input is the receiving side of an edge.
type Input[T any] interface {
	// InputQueueLength returns the capacity of the input queue
	InputQueueLength() int
	// RegisterInput hands item to the node. It blocks while the queue is full and
	// returns false when the registration timeout elapsed, ctx was done or the
	// node is closed.
	RegisterInput(ctx context.Context, item T) bool
}

// Output is the sending side of an edge.
type Output[T any] interface {
	// OutputCount returns the number of attached inputs
	OutputCount() int
	// AttachOutput appends in to the fan-out list
	AttachOutput(in Input[T]) error
	// DetachOutput removes in and reports whether it was attached
	DetachOutput(in Input[T]) bool
}

// Sink processes an item on the caller's goroutine.
type Sink[T any] interface {
	Process(ctx context.Context, item T) error
}

// Indicator exposes identity and activity of a graph element.
type Indicator interface {
	// ID is assigned at construction and never changes
	ID() uuid.UUID
	// Tag returns the user defined tag
	Tag() any
	// SetTag replaces the user defined tag
	SetTag(tag any)
	// State returns the current processing state
	State() ProcessingState
}

// Node is a graph element with its own worker goroutines.
type Node interface {
	Indicator
	// StartProcessing spawns the workers; a no-op when running or already stopped
	StartProcessing()
	// StopProcessing asks the workers to halt after the current batch; idempotent
	StopProcessing()
	// Close stops the node, waits for its workers and discards queued items
	Close() error
}
