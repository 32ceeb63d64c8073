package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsim/internal/asset"
	"gridsim/internal/graph"
	"gridsim/internal/series"
)

var startTime = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

var errBoom = errors.New("boom")

func init() {
	asset.Register("faulty", asset.Definition{
		Validate: func(asset.Spec) error { return nil },
		New:      func(spec asset.Spec) asset.Model { return faulty{spec: spec} },
	})
}

// faulty reports 1 W until the timestamp reaches its fail_at_unix
// parameter, then errors.
type faulty struct{ spec asset.Spec }

func (f faulty) Spec() asset.Spec          { return f.spec }
func (f faulty) InitialState() asset.State { return nil }

func (f faulty) Evaluate(in asset.Inputs, _ asset.State) (asset.Output, asset.State, error) {
	if failAt, ok := f.spec.Params["fail_at_unix"]; ok && float64(in.Timestamp.Unix()) >= failAt {
		return asset.Output{}, nil, errBoom
	}
	return asset.Output{Value: 1}, nil, nil
}

type recordingCallback struct {
	mu          sync.Mutex
	states      []State
	steps       []StepResult
	checkpoints []Checkpoint
	onStep      func(StepResult)
}

func (c *recordingCallback) OnState(s State) {
	c.mu.Lock()
	c.states = append(c.states, s)
	c.mu.Unlock()
}

func (c *recordingCallback) OnStep(row StepResult) {
	c.mu.Lock()
	c.steps = append(c.steps, row)
	c.mu.Unlock()
	if c.onStep != nil {
		c.onStep(row)
	}
}

func (c *recordingCallback) OnCheckpoint(cp Checkpoint) {
	c.mu.Lock()
	c.checkpoints = append(c.checkpoints, cp)
	c.mu.Unlock()
}

func hourlyIndex(t *testing.T, n int) series.Index {
	t.Helper()
	idx, err := series.Range(startTime, startTime.Add(time.Duration(n)*time.Hour), time.Hour)
	require.NoError(t, err)
	return idx
}

func constantFeed(idx series.Index, channel string, v float64) *series.Series {
	src := series.New()
	for _, ts := range idx.Stamps() {
		src.Add(channel, ts, v)
	}
	return src
}

func buildEngine(t *testing.T, specs []asset.Spec, idx series.Index, src DataSource) *Engine {
	t.Helper()
	g, err := graph.Build(specs)
	require.NoError(t, err)
	e, err := New(g, idx, src)
	require.NoError(t, err)
	return e
}

// scenarioSpecs wires a house, a PV array, a battery, and the grid
// connection. Declared out of order on purpose.
func scenarioSpecs() []asset.Spec {
	return []asset.Spec{
		{
			ID:       "grid",
			Kind:     asset.KindGrid,
			Params:   asset.Params{"import_rate_per_kwh": 0.2},
			Upstream: []string{"bat"},
		},
		{
			ID:     "house",
			Kind:   asset.KindFixedLoad,
			Params: asset.Params{"power_w": 1000},
		},
		{
			ID:       "pv",
			Kind:     asset.KindSolar,
			Params:   asset.Params{"peak_power_w": 1000},
			Upstream: []string{"external:irradiance"},
		},
		{
			ID:   "bat",
			Kind: asset.KindBattery,
			Params: asset.Params{
				"capacity_wh":       10000,
				"initial_energy_wh": 5000,
				"max_charge_w":      2000,
				"max_discharge_w":   300,
			},
			Upstream: []string{"house", "pv"},
		},
	}
}

func TestRun_RowPerTimestamp(t *testing.T) {
	idx := hourlyIndex(t, 10)
	specs := []asset.Spec{{
		ID:       "pv",
		Kind:     asset.KindSolar,
		Params:   asset.Params{"peak_power_w": 4000},
		Upstream: []string{"external:irradiance"},
	}}
	e := buildEngine(t, specs, idx, constantFeed(idx, "irradiance", 0.5))

	cb := &recordingCallback{}
	e.SetCallback(cb)

	table, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 10, table.Len())
	assert.Equal(t, idx.Stamps(), table.Timestamps())
	for _, row := range table.Rows() {
		// 4000 W peak at factor 0.5, production is negative
		assert.Equal(t, -2000.0, row.Outputs["pv"].Value)
	}

	assert.Equal(t, StatusCompleted, e.State().Status)
	assert.Len(t, cb.steps, 10)
	require.NotEmpty(t, cb.states)
	assert.Equal(t, StatusRunning, cb.states[0].Status)
	assert.Equal(t, StatusCompleted, cb.states[len(cb.states)-1].Status)
}

func TestRun_ScenarioNumbers(t *testing.T) {
	idx := hourlyIndex(t, 3)
	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(idx, "irradiance", 0.5))

	table, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	// First step has no elapsed interval: the battery holds still and the
	// 1000 W house minus 500 W of PV passes straight through.
	row0 := table.Row(0)
	assert.Equal(t, 500.0, row0.Outputs["bat"].Value)
	assert.Equal(t, 5000.0, row0.Outputs["bat"].Channels["energy_wh"])
	assert.Equal(t, 500.0, row0.Outputs["grid"].Value)
	assert.Equal(t, 0.0, row0.Outputs["grid"].Channels["cost"])

	// From the second step on, the battery discharges at its 300 W limit
	// against the 500 W shortfall, leaving 200 W on the grid.
	row1 := table.Row(1)
	assert.Equal(t, 200.0, row1.Outputs["bat"].Value)
	assert.Equal(t, 4700.0, row1.Outputs["bat"].Channels["energy_wh"])
	assert.Equal(t, 47.0, row1.Outputs["bat"].Channels["soc_pct"])
	assert.Equal(t, 200.0, row1.Outputs["grid"].Value)
	// 200 Wh imported at 0.2 per kWh
	assert.InDelta(t, 0.04, row1.Outputs["grid"].Channels["cost"], 1e-9)

	row2 := table.Row(2)
	assert.Equal(t, 4400.0, row2.Outputs["bat"].Channels["energy_wh"])
	assert.InDelta(t, 0.08, row2.Outputs["grid"].Channels["cost_total"], 1e-9)
}

func TestRun_MissingFeedHaltsRun(t *testing.T) {
	idx := hourlyIndex(t, 5)
	short, err := series.Range(startTime, startTime.Add(3*time.Hour), time.Hour)
	require.NoError(t, err)

	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(short, "irradiance", 0.5))

	table, err := e.Run(context.Background())
	require.Error(t, err)

	var missing *series.MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "irradiance", missing.Channel)
	assert.True(t, missing.Timestamp.Equal(idx.At(3)))

	// The failed timestamp left no row behind.
	assert.Equal(t, 3, table.Len())
	st := e.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, 3, st.Cursor)
}

func TestRun_AssetErrorCarriesContext(t *testing.T) {
	idx := hourlyIndex(t, 5)
	specs := []asset.Spec{{
		ID:     "flaky",
		Kind:   "faulty",
		Params: asset.Params{"fail_at_unix": float64(idx.At(2).Unix())},
	}}
	e := buildEngine(t, specs, idx, series.New())

	table, err := e.Run(context.Background())
	require.Error(t, err)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "flaky", evalErr.AssetID)
	assert.True(t, evalErr.Timestamp.Equal(idx.At(2)))
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, StatusFailed, e.State().Status)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	idx := hourlyIndex(t, 10)
	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(idx, "irradiance", 0.5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, StatusPaused, e.State().Status)

	// A paused engine picks up from its cursor.
	table, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, StatusCompleted, e.State().Status)
}

func TestRun_CancelStopsBetweenSteps(t *testing.T) {
	idx := hourlyIndex(t, 10)
	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(idx, "irradiance", 0.5))

	ctx, cancel := context.WithCancel(context.Background())
	cb := &recordingCallback{}
	cb.onStep = func(StepResult) {
		if len(cb.steps) == 3 {
			cancel()
		}
	}
	e.SetCallback(cb)

	table, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The step in flight completed; nothing after it started.
	assert.Equal(t, 3, table.Len())
	st := e.State()
	assert.Equal(t, StatusPaused, st.Status)
	assert.Equal(t, 3, st.Cursor)
	assert.True(t, st.Timestamp.Equal(idx.At(3)))
}

func TestRun_RejectsFinishedEngine(t *testing.T) {
	idx := hourlyIndex(t, 2)
	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(idx, "irradiance", 0.5))

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run")
}

func TestRun_CheckpointIntervalDoesNotPerturbResults(t *testing.T) {
	idx := hourlyIndex(t, 10)
	feed := constantFeed(idx, "irradiance", 0.5)

	plain := buildEngine(t, scenarioSpecs(), idx, feed)
	wantTable, err := plain.Run(context.Background())
	require.NoError(t, err)

	chatty := buildEngine(t, scenarioSpecs(), idx, feed)
	cb := &recordingCallback{}
	chatty.SetCallback(cb)
	chatty.SetCheckpointInterval(1)
	gotTable, err := chatty.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wantTable.Rows(), gotTable.Rows())

	require.Len(t, cb.checkpoints, 10)
	for i, cp := range cb.checkpoints {
		assert.Equal(t, i+1, cp.Cursor)
		assert.Len(t, cp.Rows, i+1)
	}
}

func TestNew_Validation(t *testing.T) {
	idx := hourlyIndex(t, 2)
	g, err := graph.Build(scenarioSpecs())
	require.NoError(t, err)

	_, err = New(nil, idx, series.New())
	assert.Error(t, err)

	_, err = New(g, series.Index{}, series.New())
	assert.Error(t, err)

	_, err = New(g, idx, nil)
	assert.Error(t, err)
}

func TestState_Progress(t *testing.T) {
	idx := hourlyIndex(t, 4)
	e := buildEngine(t, scenarioSpecs(), idx, constantFeed(idx, "irradiance", 0.5))

	st := e.State()
	assert.Equal(t, StatusInitialized, st.Status)
	assert.Equal(t, 0, st.Cursor)
	assert.Equal(t, 4, st.Steps)
	assert.True(t, st.Timestamp.Equal(idx.Start()))

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	st = e.State()
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 4, st.Cursor)
	assert.True(t, st.Timestamp.Equal(idx.End()))
}
