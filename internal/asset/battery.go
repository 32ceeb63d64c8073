package asset

import "math"

func init() {
	Register(KindBattery, Definition{Validate: validateBattery, New: newBattery})
}

// battery stores energy to balance the net power of its upstream assets:
// positive net demand is offset by discharging, surplus (negative net) is
// absorbed by charging. Stored energy saturates into [0, capacity_wh] and
// power is capped at the charge/discharge limits; out-of-range conditions
// clamp, they never fail.
//
// Parameters: capacity_wh (> 0), max_charge_w (>= 0), max_discharge_w
// (>= 0), efficiency_in and efficiency_out ((0, 1], default 1),
// initial_energy_wh ([0, capacity_wh], default 0).
//
// Primary output: residual net power after the battery acts. Channels:
// power_w (the battery's own draw, positive charging), energy_wh, soc_pct.
type battery struct {
	spec Spec

	capacityWh    float64
	maxChargeW    float64
	maxDischargeW float64
	effIn         float64
	effOut        float64
	initialWh     float64
}

func validateBattery(spec Spec) error {
	if err := checkKnownParams(spec, "capacity_wh", "max_charge_w", "max_discharge_w",
		"efficiency_in", "efficiency_out", "initial_energy_wh"); err != nil {
		return err
	}

	capacity, err := requireParam(spec, "capacity_wh")
	if err != nil {
		return err
	}
	if capacity <= 0 {
		return invalid(spec.ID, "capacity_wh", "must be > 0")
	}

	for _, name := range []string{"max_charge_w", "max_discharge_w"} {
		v, err := requireParam(spec, name)
		if err != nil {
			return err
		}
		if v < 0 {
			return invalid(spec.ID, name, "must be >= 0")
		}
	}

	for _, name := range []string{"efficiency_in", "efficiency_out"} {
		eff := spec.Params.get(name, 1)
		if eff <= 0 || eff > 1 {
			return invalid(spec.ID, name, "must be in (0, 1]")
		}
	}

	initial := spec.Params.get("initial_energy_wh", 0)
	if initial < 0 || initial > capacity {
		return invalid(spec.ID, "initial_energy_wh", "must be in [0, capacity_wh]")
	}

	if len(spec.Upstream) == 0 {
		return invalid(spec.ID, "upstream", "battery needs at least one upstream reference")
	}
	return nil
}

func newBattery(spec Spec) Model {
	return &battery{
		spec:          spec,
		capacityWh:    spec.Params["capacity_wh"],
		maxChargeW:    spec.Params["max_charge_w"],
		maxDischargeW: spec.Params["max_discharge_w"],
		effIn:         spec.Params.get("efficiency_in", 1),
		effOut:        spec.Params.get("efficiency_out", 1),
		initialWh:     spec.Params.get("initial_energy_wh", 0),
	}
}

func (a *battery) Spec() Spec { return a.spec }

func (a *battery) InitialState() State {
	return State{"energy_wh": a.initialWh}
}

func (a *battery) Evaluate(in Inputs, st State) (Output, State, error) {
	energy := st["energy_wh"]
	hours := in.Elapsed.Hours()

	var net float64
	for _, v := range in.Values {
		net += v
	}

	// Battery draw over this interval: positive = charging, negative =
	// discharging. The first step of a run has zero elapsed time, so the
	// battery holds still and energy is unchanged.
	var powerW float64
	if hours > 0 {
		if net > 0 {
			// Offset demand. Deliverable power is limited by the discharge
			// rate and by draining the store exactly to empty.
			deliverable := energy * a.effOut / hours
			discharge := math.Min(net, math.Min(a.maxDischargeW, deliverable))
			energy -= discharge * hours / a.effOut
			powerW = -discharge
		} else if net < 0 {
			// Absorb surplus. Charge power is limited by the charge rate
			// and by filling the store exactly to capacity.
			headroom := (a.capacityWh - energy) / (a.effIn * hours)
			charge := math.Min(-net, math.Min(a.maxChargeW, headroom))
			energy += charge * hours * a.effIn
			powerW = charge
		}
	}

	// Saturate at the capacity bounds.
	if energy < 0 {
		energy = 0
	}
	if energy > a.capacityWh {
		energy = a.capacityWh
	}

	socPct := energy / a.capacityWh * 100
	socPct = math.Round(socPct*100) / 100

	out := Output{
		Value: net + powerW,
		Channels: map[string]float64{
			"power_w":   powerW,
			"energy_wh": energy,
			"soc_pct":   socPct,
		},
	}
	return out, State{"energy_wh": energy}, nil
}
