package asset

func init() {
	Register(KindSolar, Definition{Validate: validateSolar, New: newSolar})
}

// solar produces power proportional to an external irradiance factor. The
// factor is clamped into [0, 1] before scaling, so a noisy feed can never
// drive production above the rated peak or below zero. Output is negative
// (production).
//
// Parameters: peak_power_w (> 0). Exactly one upstream reference, which
// must be an external irradiance channel.
type solar struct {
	spec  Spec
	peakW float64
}

func validateSolar(spec Spec) error {
	if err := checkKnownParams(spec, "peak_power_w"); err != nil {
		return err
	}
	peak, err := requireParam(spec, "peak_power_w")
	if err != nil {
		return err
	}
	if peak <= 0 {
		return invalid(spec.ID, "peak_power_w", "must be > 0")
	}
	if len(spec.Upstream) != 1 {
		return invalid(spec.ID, "upstream", "solar needs exactly one upstream reference")
	}
	if !IsExternalRef(spec.Upstream[0]) {
		return invalid(spec.ID, "upstream", "solar reads an external irradiance channel")
	}
	return nil
}

func newSolar(spec Spec) Model {
	return &solar{spec: spec, peakW: spec.Params["peak_power_w"]}
}

func (a *solar) Spec() Spec          { return a.spec }
func (a *solar) InitialState() State { return nil }

func (a *solar) Evaluate(in Inputs, st State) (Output, State, error) {
	factor := in.Values[0]
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	return Output{Value: -a.peakW * factor}, nil, nil
}
