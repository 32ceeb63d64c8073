package asset

func init() {
	Register(KindGrid, Definition{Validate: validateGrid, New: newGrid})
}

// grid is the slack connection point: it carries whatever net power its
// upstream assets leave over and prices the exchanged energy. Imported
// energy (positive) costs the import rate, or the peak rate inside the
// optional peak window; exported energy (negative) is credited at the
// export rate. Pure accounting, no clamping.
//
// Parameters: import_rate_per_kwh (>= 0), export_rate_per_kwh (>= 0,
// default 0), and optionally peak_rate_per_kwh (>= 0) with peak_start_hour
// and peak_end_hour (0-24, start < end; compared against the timestamp's
// whole hour). At least one upstream reference.
//
// Primary output: net power through the connection. Channels: energy_wh
// (per-step, signed), cost (per-step, negative when exporting earns),
// cost_total (running).
type grid struct {
	spec Spec

	importRate float64
	exportRate float64

	hasPeak   bool
	peakRate  float64
	peakStart float64
	peakEnd   float64
}

func validateGrid(spec Spec) error {
	if err := checkKnownParams(spec, "import_rate_per_kwh", "export_rate_per_kwh",
		"peak_rate_per_kwh", "peak_start_hour", "peak_end_hour"); err != nil {
		return err
	}

	importRate, err := requireParam(spec, "import_rate_per_kwh")
	if err != nil {
		return err
	}
	if importRate < 0 {
		return invalid(spec.ID, "import_rate_per_kwh", "must be >= 0")
	}
	if exportRate := spec.Params.get("export_rate_per_kwh", 0); exportRate < 0 {
		return invalid(spec.ID, "export_rate_per_kwh", "must be >= 0")
	}

	_, hasRate := spec.Params["peak_rate_per_kwh"]
	_, hasStart := spec.Params["peak_start_hour"]
	_, hasEnd := spec.Params["peak_end_hour"]
	if hasRate || hasStart || hasEnd {
		if !(hasRate && hasStart && hasEnd) {
			return invalid(spec.ID, "peak_rate_per_kwh", "peak window needs rate, start hour, and end hour together")
		}
		if spec.Params["peak_rate_per_kwh"] < 0 {
			return invalid(spec.ID, "peak_rate_per_kwh", "must be >= 0")
		}
		start, end := spec.Params["peak_start_hour"], spec.Params["peak_end_hour"]
		if start < 0 || start > 24 {
			return invalid(spec.ID, "peak_start_hour", "must be in [0, 24]")
		}
		if end < 0 || end > 24 {
			return invalid(spec.ID, "peak_end_hour", "must be in [0, 24]")
		}
		if start >= end {
			return invalid(spec.ID, "peak_start_hour", "must be before peak_end_hour")
		}
	}

	if len(spec.Upstream) == 0 {
		return invalid(spec.ID, "upstream", "grid needs at least one upstream reference")
	}
	return nil
}

func newGrid(spec Spec) Model {
	g := &grid{
		spec:       spec,
		importRate: spec.Params["import_rate_per_kwh"],
		exportRate: spec.Params.get("export_rate_per_kwh", 0),
	}
	if _, ok := spec.Params["peak_rate_per_kwh"]; ok {
		g.hasPeak = true
		g.peakRate = spec.Params["peak_rate_per_kwh"]
		g.peakStart = spec.Params["peak_start_hour"]
		g.peakEnd = spec.Params["peak_end_hour"]
	}
	return g
}

func (a *grid) Spec() Spec { return a.spec }

func (a *grid) InitialState() State {
	return State{"cost_total": 0, "import_wh": 0, "export_wh": 0}
}

func (a *grid) Evaluate(in Inputs, st State) (Output, State, error) {
	var net float64
	for _, v := range in.Values {
		net += v
	}

	wh := net * in.Elapsed.Hours()

	rate := a.importRate
	if a.hasPeak {
		hour := float64(in.Timestamp.Hour())
		if hour >= a.peakStart && hour < a.peakEnd {
			rate = a.peakRate
		}
	}

	next := st.Clone()
	var cost float64
	if wh > 0 {
		cost = wh / 1000 * rate
		next["import_wh"] += wh
	} else if wh < 0 {
		cost = wh / 1000 * a.exportRate
		next["export_wh"] += -wh
	}
	next["cost_total"] += cost

	out := Output{
		Value: net,
		Channels: map[string]float64{
			"energy_wh":  wh,
			"cost":       cost,
			"cost_total": next["cost_total"],
		},
	}
	return out, next, nil
}
