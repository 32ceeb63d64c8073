package ws

import (
	"encoding/json"
	"time"

	"gridsim/internal/asset"
	"gridsim/internal/graph"
	"gridsim/internal/simulator"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeRunStart          = "run:start"
	TypeRunPause          = "run:pause"
	TypeCheckpointRequest = "checkpoint:request"

	// Server -> Client
	TypeRunState      = "run:state"
	TypeRunStep       = "run:step"
	TypeRunError      = "run:error"
	TypeRunCheckpoint = "run:checkpoint"
	TypeGraphLoaded   = "graph:loaded"
)

// Client -> Server payloads

type StartRunPayload struct {
	CheckpointEvery int `json:"checkpoint_every,omitempty"`
}

// Server -> Client payloads

type RunStatePayload struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Cursor    int    `json:"cursor"`
	Steps     int    `json:"steps"`
	Timestamp string `json:"timestamp"`
}

type StepPayload struct {
	Timestamp string                  `json:"timestamp"`
	Outputs   map[string]asset.Output `json:"outputs"`
}

type RunErrorPayload struct {
	Error string `json:"error"`
}

type HorizonInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Steps int    `json:"steps"`
}

type GraphLoadedPayload struct {
	Graph   graph.View  `json:"graph"`
	Horizon HorizonInfo `json:"horizon"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func RunStateFromEngine(s simulator.State) RunStatePayload {
	return RunStatePayload{
		RunID:     s.RunID.String(),
		Status:    string(s.Status),
		Cursor:    s.Cursor,
		Steps:     s.Steps,
		Timestamp: s.Timestamp.Format(time.RFC3339),
	}
}

func StepFromResult(row simulator.StepResult) StepPayload {
	return StepPayload{
		Timestamp: row.Timestamp.Format(time.RFC3339),
		Outputs:   row.Outputs,
	}
}
