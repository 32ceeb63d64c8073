package asset

func init() {
	Register(KindDemandResponse, Definition{Validate: validateDemandResponse, New: newDemandResponse})
}

// demandResponse rewards production or reduced draw during an event window.
// Inside the window the primary output is the negated energy of its single
// upstream asset priced at the reward rate, so producing (negative power)
// earns a positive reward; outside the window the output is zero.
//
// Parameters: rate_per_kwh (>= 0), window_start_hour, window_end_hour
// (0-24, start < end; compared against the timestamp's whole hour).
// Exactly one upstream reference to another asset.
type demandResponse struct {
	spec      Spec
	rate      float64
	startHour float64
	endHour   float64
}

func validateDemandResponse(spec Spec) error {
	if err := checkKnownParams(spec, "rate_per_kwh", "window_start_hour", "window_end_hour"); err != nil {
		return err
	}
	rate, err := requireParam(spec, "rate_per_kwh")
	if err != nil {
		return err
	}
	if rate < 0 {
		return invalid(spec.ID, "rate_per_kwh", "must be >= 0")
	}
	start, err := requireParam(spec, "window_start_hour")
	if err != nil {
		return err
	}
	end, err := requireParam(spec, "window_end_hour")
	if err != nil {
		return err
	}
	if start < 0 || start > 24 {
		return invalid(spec.ID, "window_start_hour", "must be in [0, 24]")
	}
	if end < 0 || end > 24 {
		return invalid(spec.ID, "window_end_hour", "must be in [0, 24]")
	}
	if start >= end {
		return invalid(spec.ID, "window_start_hour", "must be before window_end_hour")
	}

	if len(spec.Upstream) != 1 {
		return invalid(spec.ID, "upstream", "demand_response needs exactly one upstream reference")
	}
	if IsExternalRef(spec.Upstream[0]) {
		return invalid(spec.ID, "upstream", "demand_response observes another asset, not an external channel")
	}
	return nil
}

func newDemandResponse(spec Spec) Model {
	return &demandResponse{
		spec:      spec,
		rate:      spec.Params["rate_per_kwh"],
		startHour: spec.Params["window_start_hour"],
		endHour:   spec.Params["window_end_hour"],
	}
}

func (a *demandResponse) Spec() Spec          { return a.spec }
func (a *demandResponse) InitialState() State { return nil }

func (a *demandResponse) Evaluate(in Inputs, st State) (Output, State, error) {
	hour := float64(in.Timestamp.Hour())
	if hour < a.startHour || hour >= a.endHour {
		return Output{}, nil, nil
	}
	kwh := in.Values[0] * in.Elapsed.Hours() / 1000
	return Output{Value: -kwh * a.rate}, nil, nil
}
