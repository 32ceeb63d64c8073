package simulator

import (
	"encoding/json"
	"time"

	"gridsim/internal/asset"
)

// StepResult maps every asset identifier to its output for one horizon
// timestamp. Rows are immutable once appended to a table.
type StepResult struct {
	Timestamp time.Time               `json:"timestamp"`
	Outputs   map[string]asset.Output `json:"outputs"`
}

// ResultTable accumulates one row per completed step, ordered by
// timestamp.
type ResultTable struct {
	rows []StepResult
}

func (rt *ResultTable) append(row StepResult) {
	rt.rows = append(rt.rows, row)
}

// Len reports the number of completed steps.
func (rt *ResultTable) Len() int { return len(rt.rows) }

// Row returns the i-th row.
func (rt *ResultTable) Row(i int) StepResult { return rt.rows[i] }

// Rows returns a copy of the row slice. The rows themselves are shared
// and must not be mutated.
func (rt *ResultTable) Rows() []StepResult {
	out := make([]StepResult, len(rt.rows))
	copy(out, rt.rows)
	return out
}

// Timestamps returns the row timestamps in order.
func (rt *ResultTable) Timestamps() []time.Time {
	out := make([]time.Time, len(rt.rows))
	for i, row := range rt.rows {
		out[i] = row.Timestamp
	}
	return out
}

// Series extracts one asset's primary value column.
func (rt *ResultTable) Series(assetID string) []float64 {
	out := make([]float64, len(rt.rows))
	for i, row := range rt.rows {
		out[i] = row.Outputs[assetID].Value
	}
	return out
}

// Channel extracts one asset's named output channel column. Steps where
// the asset reported no such channel contribute zero.
func (rt *ResultTable) Channel(assetID, channel string) []float64 {
	out := make([]float64, len(rt.rows))
	for i, row := range rt.rows {
		out[i] = row.Outputs[assetID].Channels[channel]
	}
	return out
}

// MarshalJSON renders the table as its row array.
func (rt *ResultTable) MarshalJSON() ([]byte, error) {
	if rt.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rt.rows)
}
