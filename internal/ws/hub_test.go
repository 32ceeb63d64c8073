package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := RunStatePayload{
		RunID:     "4e8c2f70-0d5a-4f57-9a41-1c2f3a4b5c6d",
		Status:    "running",
		Cursor:    3,
		Steps:     10,
		Timestamp: "2025-03-10T03:00:00Z",
	}

	msg, err := NewEnvelope(TypeRunState, payload)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeRunState, env.Type)

	var parsed RunStatePayload
	err = json.Unmarshal(env.Payload, &parsed)
	require.NoError(t, err)

	assert.Equal(t, "running", parsed.Status)
	assert.Equal(t, 3, parsed.Cursor)
	assert.Equal(t, 10, parsed.Steps)
	assert.Equal(t, "2025-03-10T03:00:00Z", parsed.Timestamp)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeRunPause, nil)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeRunPause, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastSkipsFullClient(t *testing.T) {
	hub := NewHub()

	full := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(full)

	hub.Broadcast([]byte(`1`))
	hub.Broadcast([]byte(`2`))

	// The second broadcast was dropped, not queued.
	assert.Equal(t, []byte(`1`), <-full.send)
	select {
	case msg := <-full.send:
		t.Fatalf("unexpected queued message %s", msg)
	default:
	}
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "run:start", TypeRunStart)
	assert.Equal(t, "run:pause", TypeRunPause)
	assert.Equal(t, "checkpoint:request", TypeCheckpointRequest)
	assert.Equal(t, "run:state", TypeRunState)
	assert.Equal(t, "run:step", TypeRunStep)
	assert.Equal(t, "run:error", TypeRunError)
	assert.Equal(t, "run:checkpoint", TypeRunCheckpoint)
	assert.Equal(t, "graph:loaded", TypeGraphLoaded)
}
