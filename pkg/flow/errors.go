package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfAttach is returned when a node is attached to its own output
	ErrSelfAttach = errors.New("cannot attach a node to itself")

	// ErrAlreadyAttached is returned when the input is already in the output list
	ErrAlreadyAttached = errors.New("input already attached")

	// ErrNilInput is returned when a nil input is attached
	ErrNilInput = errors.New("input cannot be nil")

	// ErrNotComparable is returned for inputs whose dynamic type cannot be compared
	ErrNotComparable = errors.New("input type is not comparable")

	// ErrRegistrationTimeout indicates no queue slot became free in time
	ErrRegistrationTimeout = errors.New("registration timeout")

	// ErrClosed indicates the node was closed
	ErrClosed = errors.New("node closed")

	// ErrDeliveryFailed indicates a consumer was skipped after the retry limit
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrRejected indicates an input refused an item
	ErrRejected = errors.New("input rejected item")

	// ErrStopTimeout indicates the workers did not exit within the close timeout
	ErrStopTimeout = errors.New("timeout waiting for workers to stop")

	// ErrQueueFull indicates a scheduler queue is at capacity
	ErrQueueFull = errors.New("scheduler queue full")

	// ErrPoolStopped indicates a scheduler no longer accepts work
	ErrPoolStopped = errors.New("scheduler stopped")
)

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error itself
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func AsPanic(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
