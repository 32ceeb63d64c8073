// Package asset defines the simulated units of the grid: their declared
// specs, per-step state, and the evaluation capability every kind
// implements. Power values are in watts, with consumption positive and
// production negative.
package asset

import (
	"time"
)

// Kind identifies an asset model variant.
type Kind string

const (
	KindFixedLoad      Kind = "fixed_load"
	KindVariableLoad   Kind = "variable_load"
	KindSolar          Kind = "solar"
	KindBattery        Kind = "battery"
	KindGrid           Kind = "grid"
	KindDemandResponse Kind = "demand_response"
)

// Params holds an asset's numeric parameters by name.
type Params map[string]float64

// get returns the parameter value, falling back to def when absent.
func (p Params) get(name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Spec is an asset's immutable declaration: identity, kind, validated
// parameters, and the ordered upstream references it reads from.
type Spec struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Params   Params   `json:"params,omitempty"`
	Upstream []string `json:"upstream,omitempty"`
}

// State is the per-asset memory carried between steps. It is owned by its
// model instance and replaced, never shared, on every evaluation. Stateless
// kinds use a nil State.
type State map[string]float64

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Inputs is the resolved input set for one evaluation step.
type Inputs struct {
	Timestamp time.Time
	Elapsed   time.Duration // since the previous step; zero on a run's first step
	Values    []float64     // one per upstream reference, in declared order
}

// Output is what an asset produces for one timestamp. Value is the primary
// scalar consumed by downstream assets referencing this one; Channels
// carries additional named outputs recorded in the result table.
type Output struct {
	Value    float64            `json:"value"`
	Channels map[string]float64 `json:"channels,omitempty"`
}

// Model is the capability set every asset kind implements. Evaluate must be
// total over well-formed inputs: in-range inputs never fail, and
// out-of-range numeric results are clamped per each kind's documented
// policy. It performs no I/O and its only effect is the returned state.
type Model interface {
	Spec() Spec
	InitialState() State
	Evaluate(in Inputs, st State) (Output, State, error)
}
