package asset

import "fmt"

// ValidationError reports a spec field that violates its kind's rules.
type ValidationError struct {
	AssetID    string
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("asset %q: field %q: %s", e.AssetID, e.Field, e.Constraint)
}

// invalid builds a ValidationError for the given spec field.
func invalid(id, field, constraint string) *ValidationError {
	return &ValidationError{AssetID: id, Field: field, Constraint: constraint}
}

// requireParam fetches a mandatory parameter.
func requireParam(spec Spec, name string) (float64, error) {
	v, ok := spec.Params[name]
	if !ok {
		return 0, invalid(spec.ID, name, "required parameter is missing")
	}
	return v, nil
}

// checkKnownParams rejects parameters no validator accounts for, so typos
// fail loudly instead of silently falling back to defaults.
func checkKnownParams(spec Spec, known ...string) error {
	for name := range spec.Params {
		found := false
		for _, k := range known {
			if name == k {
				found = true
				break
			}
		}
		if !found {
			return invalid(spec.ID, name, "unknown parameter")
		}
	}
	return nil
}
