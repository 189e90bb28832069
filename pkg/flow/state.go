package flow

// ProcessingState is the activity phase a node reports.
type ProcessingState int32

const (
	// StateStopped is reported before StartProcessing and after the worker exited.
	StateStopped ProcessingState = iota
	// StateIdle means the worker waits for input.
	StateIdle
	// StatePreparing means a batch is being taken from the mailbox.
	StatePreparing
	// StateProcessing means the handler runs for an item.
	StateProcessing
	// StateDispatching means a result is being handed to the attached outputs.
	StateDispatching
)

func (s ProcessingState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateProcessing:
		return "processing"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// Outcome tells a source what to do with the value its generator returned.
type Outcome int

const (
	// OutcomeProduce enqueues the value for dispatch.
	OutcomeProduce Outcome = iota
	// OutcomeIdle discards the value; the generator is called again shortly.
	OutcomeIdle
	// OutcomeStop discards the value and ends production.
	OutcomeStop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProduce:
		return "produce"
	case OutcomeIdle:
		return "idle"
	case OutcomeStop:
		return "stop"
	default:
		return "unknown"
	}
}
