package flow

import (
	"time"

	"github.com/google/uuid"
)

// StateChange is emitted whenever a node switches its ProcessingState.
type StateChange struct {
	id        uuid.UUID
	createdAt time.Time
	nodeID    uuid.UUID
	tag       any
	from      ProcessingState
	to        ProcessingState
}

func NewStateChange(nodeID uuid.UUID, tag any, from, to ProcessingState) StateChange {
	return StateChange{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		nodeID:    nodeID,
		tag:       tag,
		from:      from,
		to:        to,
	}
}

func (e StateChange) ID() uuid.UUID {
	return e.id
}

func (e StateChange) CreatedAt() time.Time {
	return e.createdAt
}

func (e StateChange) NodeID() uuid.UUID {
	return e.nodeID
}

func (e StateChange) Tag() any {
	return e.tag
}

func (e StateChange) From() ProcessingState {
	return e.from
}

func (e StateChange) To() ProcessingState {
	return e.to
}

// Fault reports an item whose handling failed. The item itself was consumed.
type Fault struct {
	id        uuid.UUID
	createdAt time.Time
	nodeID    uuid.UUID
	tag       any
	err       error
	payload   any
}

func NewFault(nodeID uuid.UUID, tag any, err error, payload any) Fault {
	return Fault{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		nodeID:    nodeID,
		tag:       tag,
		err:       err,
		payload:   payload,
	}
}

func (f Fault) ID() uuid.UUID {
	return f.id
}

func (f Fault) CreatedAt() time.Time {
	return f.createdAt
}

func (f Fault) NodeID() uuid.UUID {
	return f.nodeID
}

func (f Fault) Tag() any {
	return f.tag
}

func (f Fault) Err() error {
	return f.err
}

// Payload returns the item that failed, if known
func (f Fault) Payload() any {
	return f.payload
}

func (f Fault) IsPanic() bool {
	_, ok := AsPanic(f.err)
	return ok
}
