package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gridsim/internal/simulator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades WebSocket connections and routes run commands to the
// engine. A run executes in its own goroutine; pausing cancels the run
// context and the engine parks at the next step boundary.
type Handler struct {
	hub    *Hub
	engine *simulator.Engine

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewHandler(hub *Hub, engine *simulator.Engine) *Handler {
	return &Handler{hub: hub, engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	client := newClient(h.hub, conn)
	h.hub.Register(client)
	go client.writePump()

	// Greet the client with the topology and the current run state.
	h.sendGraphLoaded(client)
	h.sendRunState(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read: %v", err)
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Printf("ws: invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeRunStart:
		var p StartRunPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				log.Printf("ws: invalid run:start payload: %v", err)
				return
			}
		}
		if p.CheckpointEvery > 0 {
			h.engine.SetCheckpointInterval(p.CheckpointEvery)
		}
		h.startRun()

	case TypeRunPause:
		h.pauseRun()

	case TypeCheckpointRequest:
		h.broadcastCheckpoint()

	default:
		log.Printf("ws: unknown message type: %s", env.Type)
	}
}

// startRun launches the engine in its own goroutine. A second start while
// a run is in flight is ignored.
func (h *Handler) startRun() {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			h.cancel = nil
			h.mu.Unlock()
		}()

		_, err := h.engine.Run(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("ws: run failed: %v", err)
		msg, merr := NewEnvelope(TypeRunError, RunErrorPayload{Error: err.Error()})
		if merr != nil {
			return
		}
		h.hub.Broadcast(msg)
	}()
}

func (h *Handler) pauseRun() {
	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (h *Handler) broadcastCheckpoint() {
	msg, err := NewEnvelope(TypeRunCheckpoint, h.engine.Snapshot())
	if err != nil {
		log.Printf("ws: marshal checkpoint: %v", err)
		return
	}
	h.hub.Broadcast(msg)
}

func (h *Handler) graphLoadedMessage() ([]byte, error) {
	idx := h.engine.Horizon()
	payload := GraphLoadedPayload{
		Graph: h.engine.Graph().View(),
		Horizon: HorizonInfo{
			Start: idx.Start().Format(time.RFC3339),
			End:   idx.End().Format(time.RFC3339),
			Steps: idx.Len(),
		},
	}
	return NewEnvelope(TypeGraphLoaded, payload)
}

func (h *Handler) sendGraphLoaded(c *Client) {
	msg, err := h.graphLoadedMessage()
	if err != nil {
		log.Printf("ws: marshal graph:loaded: %v", err)
		return
	}
	c.deliver(msg)
}

func (h *Handler) sendRunState(c *Client) {
	msg, err := NewEnvelope(TypeRunState, RunStateFromEngine(h.engine.State()))
	if err != nil {
		return
	}
	c.deliver(msg)
}
