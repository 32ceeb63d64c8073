package graph

import "gridsim/internal/asset"

// View is the JSON introspection shape handed to external visualization
// collaborators. It mirrors the topology without exposing graph internals.
type View struct {
	Nodes []Node    `json:"nodes"`
	Edges []Edge    `json:"edges"`
	Stats ViewStats `json:"stats"`
}

// Node describes one asset for introspection.
type Node struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Params   asset.Params `json:"params,omitempty"`
	Upstream []string     `json:"upstream,omitempty"`
}

// ViewStats summarizes the topology.
type ViewStats struct {
	AssetCount       int      `json:"asset_count"`
	EdgeCount        int      `json:"edge_count"`
	ExternalChannels []string `json:"external_channels,omitempty"`
}

// View builds the introspection snapshot. Nodes appear in evaluation order.
func (g *Graph) View() View {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		spec := g.specs[id]
		nodes = append(nodes, Node{
			ID:       spec.ID,
			Kind:     string(spec.Kind),
			Params:   spec.Params,
			Upstream: spec.Upstream,
		})
	}
	return View{
		Nodes: nodes,
		Edges: g.Edges(),
		Stats: ViewStats{
			AssetCount:       len(g.specs),
			EdgeCount:        len(g.edges),
			ExternalChannels: g.ExternalChannels(),
		},
	}
}
