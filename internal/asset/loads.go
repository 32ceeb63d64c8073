package asset

func init() {
	Register(KindFixedLoad, Definition{Validate: validateFixedLoad, New: newFixedLoad})
	Register(KindVariableLoad, Definition{Validate: validateVariableLoad, New: newVariableLoad})
}

// fixedLoad draws a constant power. Parameters: power_w (>= 0). Takes no
// upstream references.
type fixedLoad struct {
	spec   Spec
	powerW float64
}

func validateFixedLoad(spec Spec) error {
	if err := checkKnownParams(spec, "power_w"); err != nil {
		return err
	}
	p, err := requireParam(spec, "power_w")
	if err != nil {
		return err
	}
	if p < 0 {
		return invalid(spec.ID, "power_w", "must be >= 0")
	}
	if len(spec.Upstream) != 0 {
		return invalid(spec.ID, "upstream", "fixed_load takes no upstream references")
	}
	return nil
}

func newFixedLoad(spec Spec) Model {
	return &fixedLoad{spec: spec, powerW: spec.Params["power_w"]}
}

func (a *fixedLoad) Spec() Spec          { return a.spec }
func (a *fixedLoad) InitialState() State { return nil }

func (a *fixedLoad) Evaluate(in Inputs, st State) (Output, State, error) {
	return Output{Value: a.powerW}, nil, nil
}

// variableLoad scales with temperature: draw rises as the feed temperature
// drops below the reference (heating-dominated demand). The result is
// floored at 0 W, so hot weather never turns the load into a producer.
//
// Parameters: base_power_w (>= 0), reference_temp_c,
// temp_coefficient_w_per_c (>= 0). Exactly one upstream reference, which
// must be an external temperature channel in °C.
type variableLoad struct {
	spec       Spec
	baseW      float64
	refTempC   float64
	coeffWPerC float64
}

func validateVariableLoad(spec Spec) error {
	if err := checkKnownParams(spec, "base_power_w", "reference_temp_c", "temp_coefficient_w_per_c"); err != nil {
		return err
	}
	base, err := requireParam(spec, "base_power_w")
	if err != nil {
		return err
	}
	if base < 0 {
		return invalid(spec.ID, "base_power_w", "must be >= 0")
	}
	if _, err := requireParam(spec, "reference_temp_c"); err != nil {
		return err
	}
	coeff, err := requireParam(spec, "temp_coefficient_w_per_c")
	if err != nil {
		return err
	}
	if coeff < 0 {
		return invalid(spec.ID, "temp_coefficient_w_per_c", "must be >= 0")
	}

	if len(spec.Upstream) != 1 {
		return invalid(spec.ID, "upstream", "variable_load needs exactly one upstream reference")
	}
	if !IsExternalRef(spec.Upstream[0]) {
		return invalid(spec.ID, "upstream", "variable_load reads an external temperature channel")
	}
	return nil
}

func newVariableLoad(spec Spec) Model {
	return &variableLoad{
		spec:       spec,
		baseW:      spec.Params["base_power_w"],
		refTempC:   spec.Params["reference_temp_c"],
		coeffWPerC: spec.Params["temp_coefficient_w_per_c"],
	}
}

func (a *variableLoad) Spec() Spec          { return a.spec }
func (a *variableLoad) InitialState() State { return nil }

func (a *variableLoad) Evaluate(in Inputs, st State) (Output, State, error) {
	tempC := in.Values[0]
	powerW := a.baseW + a.coeffWPerC*(a.refTempC-tempC)
	if powerW < 0 {
		powerW = 0
	}
	return Output{Value: powerW}, nil, nil
}
