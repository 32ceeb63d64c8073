package ws

import (
	"log"

	"gridsim/internal/simulator"
)

// Bridge implements simulator.Callback and broadcasts run events to the
// WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnState(s simulator.State) {
	msg, err := NewEnvelope(TypeRunState, RunStateFromEngine(s))
	if err != nil {
		log.Printf("ws: marshal run state: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnStep(row simulator.StepResult) {
	msg, err := NewEnvelope(TypeRunStep, StepFromResult(row))
	if err != nil {
		log.Printf("ws: marshal step: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnCheckpoint(cp simulator.Checkpoint) {
	msg, err := NewEnvelope(TypeRunCheckpoint, cp)
	if err != nil {
		log.Printf("ws: marshal checkpoint: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
