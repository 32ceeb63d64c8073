package asset

import (
	"fmt"
	"sort"
	"sync"
)

// Definition wires a kind's spec validation and model construction into the
// registry. Validate enforces the kind's parameter bounds and upstream
// shape; New may assume a spec Validate accepted.
type Definition struct {
	Validate func(Spec) error
	New      func(Spec) Model
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]Definition)
)

// Register makes a kind available to ValidateSpec and New. Built-in kinds
// register in init; callers may add kinds before building specs. Registering
// a duplicate kind panics, as with database/sql drivers.
func Register(kind Kind, def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("asset: Register called twice for kind %q", kind))
	}
	if def.Validate == nil || def.New == nil {
		panic(fmt.Sprintf("asset: Register of kind %q with nil funcs", kind))
	}
	registry[kind] = def
}

// Known reports whether kind has a registered definition.
func Known(kind Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

// Kinds returns the registered kind names, sorted.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ValidateSpec runs the kind-specific checks for the spec.
func ValidateSpec(spec Spec) error {
	registryMu.RLock()
	def, ok := registry[spec.Kind]
	registryMu.RUnlock()
	if !ok {
		return invalid(spec.ID, "kind", fmt.Sprintf("unknown asset kind %q", spec.Kind))
	}
	return def.Validate(spec)
}

// New builds a model instance for a validated spec.
func New(spec Spec) (Model, error) {
	registryMu.RLock()
	def, ok := registry[spec.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, invalid(spec.ID, "kind", fmt.Sprintf("unknown asset kind %q", spec.Kind))
	}
	return def.New(spec), nil
}
