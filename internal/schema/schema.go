// Package schema turns raw, externally parsed asset declarations into
// validated specs. It owns numeric coercion and the checks shared by all
// kinds; per-kind parameter bounds live with the kinds themselves and are
// reached through the asset registry.
package schema

import (
	"encoding/json"
	"fmt"

	"gridsim/internal/asset"
)

// RawAsset is the untyped declaration an external loader hands over,
// already parsed from its source format but not yet validated.
type RawAsset struct {
	ID       string
	Kind     string
	Params   map[string]any
	Upstream []string
}

// Validate turns one raw declaration into a validated spec. Failures are
// *asset.ValidationError values naming the offending field and constraint.
// Validation is pure: it never touches graphs or series.
func Validate(raw RawAsset) (asset.Spec, error) {
	if raw.ID == "" {
		return asset.Spec{}, &asset.ValidationError{Field: "id", Constraint: "must not be empty"}
	}
	if asset.IsExternalRef(raw.ID) {
		return asset.Spec{}, &asset.ValidationError{
			AssetID: raw.ID, Field: "id", Constraint: "the external: form is reserved for feed references",
		}
	}

	params, err := coerceParams(raw.ID, raw.Params)
	if err != nil {
		return asset.Spec{}, err
	}

	seenRefs := make(map[string]struct{}, len(raw.Upstream))
	for _, ref := range raw.Upstream {
		if ref == "" {
			return asset.Spec{}, &asset.ValidationError{
				AssetID: raw.ID, Field: "upstream", Constraint: "empty reference",
			}
		}
		if _, dup := seenRefs[ref]; dup {
			return asset.Spec{}, &asset.ValidationError{
				AssetID: raw.ID, Field: "upstream", Constraint: fmt.Sprintf("duplicate reference %q", ref),
			}
		}
		seenRefs[ref] = struct{}{}
		if asset.IsExternalRef(ref) {
			if _, ok := asset.ExternalChannel(ref); !ok {
				return asset.Spec{}, &asset.ValidationError{
					AssetID: raw.ID, Field: "upstream", Constraint: fmt.Sprintf("external reference %q names no channel", ref),
				}
			}
		}
	}

	spec := asset.Spec{
		ID:       raw.ID,
		Kind:     asset.Kind(raw.Kind),
		Params:   params,
		Upstream: raw.Upstream,
	}
	if err := asset.ValidateSpec(spec); err != nil {
		return asset.Spec{}, err
	}
	return spec, nil
}

// ValidateAll validates a whole declaration set and rejects duplicate
// identifiers. On the first failure nothing is returned: construction is
// all-or-nothing.
func ValidateAll(raws []RawAsset) ([]asset.Spec, error) {
	seen := make(map[string]struct{}, len(raws))
	specs := make([]asset.Spec, 0, len(raws))
	for _, raw := range raws {
		spec, err := Validate(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[spec.ID]; dup {
			return nil, &asset.ValidationError{
				AssetID: spec.ID, Field: "id", Constraint: "duplicate identifier",
			}
		}
		seen[spec.ID] = struct{}{}
		specs = append(specs, spec)
	}
	return specs, nil
}

func coerceParams(id string, raw map[string]any) (asset.Params, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(asset.Params, len(raw))
	for name, v := range raw {
		f, ok := toFloat(v)
		if !ok {
			return nil, &asset.ValidationError{
				AssetID: id, Field: name, Constraint: fmt.Sprintf("expected a number, got %T", v),
			}
		}
		params[name] = f
	}
	return params, nil
}

// toFloat accepts the numeric spellings parsed config commonly carries.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
