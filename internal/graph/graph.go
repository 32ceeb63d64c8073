// Package graph wires validated asset specs into a dependency graph,
// verifies that it is acyclic, and fixes the deterministic evaluation
// order the engine steps through.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"gridsim/internal/asset"
)

// Edge is a directed data dependency: From's output feeds To's input.
// External feed references produce no edge.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph holds validated specs, their derived edges, and the precomputed
// evaluation order. Built once by Build and immutable afterwards.
type Graph struct {
	specs    map[string]asset.Spec
	order    []string
	edges    []Edge
	external []string
}

// CycleError reports a dependency cycle by its member identifiers in
// traversal order.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.IDs, " -> ")
}

// UnknownReferenceError reports an upstream reference to a nonexistent
// asset.
type UnknownReferenceError struct {
	AssetID string
	Ref     string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("asset %q references unknown asset %q", e.AssetID, e.Ref)
}

// DuplicateIDError reports two specs sharing an identifier.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate asset identifier %q", e.ID)
}

// Build constructs the graph from a validated spec set. Construction is
// all-or-nothing: duplicate identifiers, references to nonexistent assets,
// and cycles each fail the build, and no partially built graph escapes.
func Build(specs []asset.Spec) (*Graph, error) {
	byID := make(map[string]asset.Spec, len(specs))
	for _, spec := range specs {
		if _, dup := byID[spec.ID]; dup {
			return nil, &DuplicateIDError{ID: spec.ID}
		}
		byID[spec.ID] = spec
	}

	var edges []Edge
	externalSet := make(map[string]struct{})
	for _, spec := range specs {
		for _, ref := range spec.Upstream {
			if asset.IsExternalRef(ref) {
				if ch, ok := asset.ExternalChannel(ref); ok {
					externalSet[ch] = struct{}{}
				}
				continue
			}
			if _, ok := byID[ref]; !ok {
				return nil, &UnknownReferenceError{AssetID: spec.ID, Ref: ref}
			}
			edges = append(edges, Edge{From: ref, To: spec.ID})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	if cycle := findCycle(byID); cycle != nil {
		return nil, &CycleError{IDs: cycle}
	}

	external := make([]string, 0, len(externalSet))
	for ch := range externalSet {
		external = append(external, ch)
	}
	sort.Strings(external)

	return &Graph{
		specs:    byID,
		order:    topoOrder(byID),
		edges:    edges,
		external: external,
	}, nil
}

// Len returns the number of assets in the graph.
func (g *Graph) Len() int { return len(g.specs) }

// Spec returns the validated spec for id.
func (g *Graph) Spec(id string) (asset.Spec, bool) {
	spec, ok := g.specs[id]
	return spec, ok
}

// Specs returns the validated specs in evaluation order.
func (g *Graph) Specs() []asset.Spec {
	specs := make([]asset.Spec, 0, len(g.order))
	for _, id := range g.order {
		specs = append(specs, g.specs[id])
	}
	return specs
}

// TopologicalOrder returns the evaluation order: every asset after all of
// its upstream references, with ties between independent assets broken by
// ascending identifier.
func (g *Graph) TopologicalOrder() []string {
	return append([]string(nil), g.order...)
}

// UpstreamOf returns id's upstream references in declared order, external
// references included. Unknown ids return nil.
func (g *Graph) UpstreamOf(id string) []string {
	spec, ok := g.specs[id]
	if !ok {
		return nil
	}
	return append([]string(nil), spec.Upstream...)
}

// Edges returns the derived producer → consumer edges sorted by (From, To).
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// ExternalChannels returns the distinct feed channels the graph reads,
// sorted. The engine resolves exactly these per step.
func (g *Graph) ExternalChannels() []string {
	return append([]string(nil), g.external...)
}

// findCycle runs a depth-first traversal with a recursion-stack membership
// set and returns the members of the first back-edge cycle found, or nil
// when the graph is acyclic. Roots are visited in ascending identifier
// order so the reported cycle is stable.
func findCycle(byID map[string]asset.Spec) []string {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(byID))
	stack := make([]string, 0, len(byID))

	var cycle []string
	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		stack = append(stack, id)
		for _, ref := range byID[id].Upstream {
			if asset.IsExternalRef(ref) {
				continue
			}
			switch state[ref] {
			case inStack:
				start := 0
				for i, v := range stack {
					if v == ref {
						start = i
						break
					}
				}
				cycle = append([]string(nil), stack[start:]...)
				return true
			case unvisited:
				if visit(ref) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range sortedIDs(byID) {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// topoOrder emits the smallest-identifier asset whose upstream references
// have all been emitted, repeatedly. Assumes an acyclic input.
func topoOrder(byID map[string]asset.Spec) []string {
	remaining := make(map[string]int, len(byID))
	consumers := make(map[string][]string, len(byID))
	for id, spec := range byID {
		n := 0
		for _, ref := range spec.Upstream {
			if asset.IsExternalRef(ref) {
				continue
			}
			n++
			consumers[ref] = append(consumers[ref], id)
		}
		remaining[id] = n
	}

	ready := make([]string, 0, len(byID))
	for id, n := range remaining {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(byID))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		released := false
		for _, c := range consumers[id] {
			remaining[c]--
			if remaining[c] == 0 {
				ready = append(ready, c)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}
	return order
}

func sortedIDs(byID map[string]asset.Spec) []string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
