package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demandResponseSpec() Spec {
	return Spec{
		ID:   "dr_event",
		Kind: KindDemandResponse,
		Params: Params{
			"rate_per_kwh":      0.5,
			"window_start_hour": 17,
			"window_end_hour":   18,
		},
		Upstream: []string{"bat1"},
	}
}

func TestDemandResponse_RewardsInsideWindow(t *testing.T) {
	m := makeModel(t, demandResponseSpec())

	inWindow := time.Date(2024, 11, 21, 17, 30, 0, 0, time.UTC)
	// Observed asset produced 2000W for 1h = 2kWh at 0.5 per kWh.
	out, _, err := m.Evaluate(Inputs{Timestamp: inWindow, Elapsed: time.Hour, Values: []float64{-2000}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, out.Value, 1e-9)

	// Consuming during the window costs instead.
	out, _, err = m.Evaluate(Inputs{Timestamp: inWindow, Elapsed: time.Hour, Values: []float64{1000}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, out.Value, 1e-9)
}

func TestDemandResponse_ZeroOutsideWindow(t *testing.T) {
	m := makeModel(t, demandResponseSpec())

	before := time.Date(2024, 11, 21, 16, 59, 0, 0, time.UTC)
	out, _, err := m.Evaluate(Inputs{Timestamp: before, Elapsed: time.Hour, Values: []float64{-2000}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, out.Value, 1e-9)

	atEnd := time.Date(2024, 11, 21, 18, 0, 0, 0, time.UTC)
	out, _, err = m.Evaluate(Inputs{Timestamp: atEnd, Elapsed: time.Hour, Values: []float64{-2000}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, out.Value, 1e-9)
}

func TestDemandResponse_Validation(t *testing.T) {
	var verr *ValidationError

	spec := demandResponseSpec()
	spec.Upstream = []string{ExternalRef("temperature_c")}
	require.ErrorAs(t, ValidateSpec(spec), &verr)
	assert.Equal(t, "upstream", verr.Field)

	spec = demandResponseSpec()
	spec.Params["window_end_hour"] = 17
	require.ErrorAs(t, ValidateSpec(spec), &verr)
	assert.Equal(t, "window_start_hour", verr.Field)
}
