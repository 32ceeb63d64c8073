// Package simulator drives time-stepped runs over an asset dependency
// graph: per horizon timestamp it resolves the external feeds, evaluates
// every asset in topological order, accumulates the result table, and
// snapshots checkpoints for pause/resume.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridsim/internal/asset"
	"gridsim/internal/graph"
	"gridsim/internal/series"
)

// Status is the engine lifecycle phase.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// State is a point-in-time view of run progress, safe to read while the
// run executes in another goroutine.
type State struct {
	RunID     uuid.UUID `json:"run_id"`
	Status    Status    `json:"status"`
	Cursor    int       `json:"cursor"`
	Steps     int       `json:"steps"`
	Timestamp time.Time `json:"timestamp"` // next timestamp to evaluate, horizon end once done
}

// Callback receives run events. The engine invokes it synchronously
// between steps, so implementations must return quickly.
type Callback interface {
	OnState(State)
	OnStep(StepResult)
	OnCheckpoint(Checkpoint)
}

// DataSource resolves external feed channels per timestamp with
// exact-match semantics. series.Series implements it.
type DataSource interface {
	ValueAt(t time.Time, channel string) (float64, error)
}

// EvaluationError wraps a defect raised by an asset's update rule with
// the offending identifier and timestamp attached.
type EvaluationError struct {
	AssetID   string
	Timestamp time.Time
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("asset %q failed at %s: %v", e.AssetID, e.Timestamp.Format(time.RFC3339), e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Engine executes one simulation run. Time steps are strictly sequential
// and each step evaluates assets in the graph's fixed topological order;
// the mutex only guards progress state so State and Snapshot can be read
// concurrently, it never parallelizes evaluation.
type Engine struct {
	mu sync.Mutex

	graph *graph.Graph
	index series.Index
	data  DataSource

	order    []string
	upstream map[string][]string
	external []string
	models   map[string]asset.Model

	states map[string]asset.State
	table  *ResultTable
	cursor int
	status Status
	runID  uuid.UUID

	callback        Callback
	checkpointEvery int
}

// New prepares a run over the graph and horizon. Models and initial
// states are instantiated from the graph's validated specs; the engine
// starts Initialized at the first timestamp.
func New(g *graph.Graph, idx series.Index, src DataSource) (*Engine, error) {
	if g == nil || g.Len() == 0 {
		return nil, errors.New("simulator: graph must hold at least one asset")
	}
	if idx.Len() == 0 {
		return nil, errors.New("simulator: empty horizon")
	}
	if src == nil {
		return nil, errors.New("simulator: nil data source")
	}

	order := g.TopologicalOrder()
	models := make(map[string]asset.Model, len(order))
	states := make(map[string]asset.State, len(order))
	upstream := make(map[string][]string, len(order))
	for _, id := range order {
		spec, _ := g.Spec(id)
		m, err := asset.New(spec)
		if err != nil {
			return nil, err
		}
		models[id] = m
		states[id] = m.InitialState()
		upstream[id] = spec.Upstream
	}

	return &Engine{
		graph:    g,
		index:    idx,
		data:     src,
		order:    order,
		upstream: upstream,
		external: g.ExternalChannels(),
		models:   models,
		states:   states,
		table:    &ResultTable{},
		status:   StatusInitialized,
		runID:    uuid.New(),
	}, nil
}

// SetCallback installs the event receiver. Call before Run.
func (e *Engine) SetCallback(cb Callback) {
	e.mu.Lock()
	e.callback = cb
	e.mu.Unlock()
}

// SetCheckpointInterval makes the run snapshot after every n completed
// steps and hand the checkpoint to the callback. Zero disables periodic
// checkpoints. Call before Run.
func (e *Engine) SetCheckpointInterval(n int) {
	e.mu.Lock()
	e.checkpointEvery = n
	e.mu.Unlock()
}

// RunID identifies the run; restores carry it over.
func (e *Engine) RunID() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

// Graph exposes the topology for introspection surfaces.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Horizon exposes the run's time index.
func (e *Engine) Horizon() series.Index { return e.index }

// State returns the current progress view.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts := e.index.End()
	if e.cursor < e.index.Len() {
		ts = e.index.At(e.cursor)
	}
	return State{
		RunID:     e.runID,
		Status:    e.status,
		Cursor:    e.cursor,
		Steps:     e.index.Len(),
		Timestamp: ts,
	}
}

// Run walks the horizon from the current cursor to the end and returns
// the accumulated result table. It may be called on an Initialized engine
// or on a Paused one (fresh from Restore, or cancelled earlier) to resume
// from the exact next unprocessed timestamp.
//
// Cancellation is honored between steps only: a step that has started
// always completes or fails whole. On cancellation the engine parks in
// Paused and returns the partial table with the context's error; the
// caller is expected to Snapshot. A feed gap or an asset defect parks it
// in Failed with no row appended for the failed timestamp.
func (e *Engine) Run(ctx context.Context) (*ResultTable, error) {
	if err := e.begin(); err != nil {
		return e.table, err
	}

	e.mu.Lock()
	cb := e.callback
	every := e.checkpointEvery
	e.mu.Unlock()

	e.notifyState(cb)

	for {
		e.mu.Lock()
		cursor := e.cursor
		total := e.index.Len()
		e.mu.Unlock()

		if cursor >= total {
			break
		}

		select {
		case <-ctx.Done():
			e.setStatus(StatusPaused)
			e.notifyState(cb)
			return e.table, ctx.Err()
		default:
		}

		row, err := e.step(cursor)
		if err != nil {
			e.setStatus(StatusFailed)
			e.notifyState(cb)
			return e.table, err
		}

		if cb != nil {
			cb.OnStep(row)
			if every > 0 && (cursor+1)%every == 0 {
				cb.OnCheckpoint(e.Snapshot())
			}
		}
	}

	e.setStatus(StatusCompleted)
	e.notifyState(cb)
	return e.table, nil
}

// step evaluates every asset for the timestamp at cursor position i and
// commits the completed row. A failed step commits nothing: no row, no
// state changes, no cursor advance.
func (e *Engine) step(i int) (StepResult, error) {
	t := e.index.At(i)

	var elapsed time.Duration
	if i > 0 {
		elapsed = t.Sub(e.index.At(i - 1))
	}

	feed := make(map[string]float64, len(e.external))
	for _, ch := range e.external {
		v, err := e.data.ValueAt(t, ch)
		if err != nil {
			return StepResult{}, err
		}
		feed[ch] = v
	}

	outputs := make(map[string]asset.Output, len(e.order))
	nextStates := make(map[string]asset.State, len(e.order))
	for _, id := range e.order {
		refs := e.upstream[id]
		values := make([]float64, len(refs))
		for j, ref := range refs {
			if ch, ok := asset.ExternalChannel(ref); ok {
				values[j] = feed[ch]
			} else {
				values[j] = outputs[ref].Value
			}
		}

		in := asset.Inputs{Timestamp: t, Elapsed: elapsed, Values: values}
		out, next, err := e.models[id].Evaluate(in, e.states[id])
		if err != nil {
			return StepResult{}, &EvaluationError{AssetID: id, Timestamp: t, Err: err}
		}
		outputs[id] = out
		nextStates[id] = next
	}

	row := StepResult{Timestamp: t, Outputs: outputs}

	e.mu.Lock()
	for id, st := range nextStates {
		e.states[id] = st
	}
	e.table.append(row)
	e.cursor = i + 1
	e.mu.Unlock()

	return row, nil
}

// begin moves the engine into Running when its status allows a run.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusInitialized, StatusPaused:
		e.status = StatusRunning
		return nil
	default:
		return fmt.Errorf("simulator: cannot run from status %q", e.status)
	}
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *Engine) notifyState(cb Callback) {
	if cb == nil {
		return
	}
	cb.OnState(e.State())
}
