package graphspec

import (
	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
)

// Build resolves spec against cat and builds the graph.
//
// A preset spec uses the preset's nodes and edges; StartNode, if set,
// replaces the preset's start. An explicit spec needs non-empty Nodes
// and Edges, otherwise ErrIncomplete is returned. Unknown presets return
// an error wrapping catalog.ErrUnknownPreset and unknown function keys a
// *catalog.UnknownKeyError. Edge targets and the start node are not
// checked against the node table.
func Build(spec Spec, cat *catalog.Catalog) (*miniflow.Graph, error) {
	if spec.Preset != "" {
		p, err := cat.Preset(spec.Preset)
		if err != nil {
			return nil, err
		}
		nodes, err := cat.Resolve(p.Nodes)
		if err != nil {
			return nil, err
		}
		start := p.Start
		if spec.StartNode != "" {
			start = spec.StartNode
		}
		return miniflow.New(nodes, p.Edges, start)
	}

	if len(spec.Nodes) == 0 || len(spec.Edges) == 0 {
		return nil, ErrIncomplete
	}

	nodes, err := cat.Resolve(spec.Nodes)
	if err != nil {
		return nil, err
	}
	return miniflow.New(nodes, edgeTable(spec.Edges), spec.StartNode)
}

// edgeTable flattens nullable targets; nil means no successor.
func edgeTable(edges map[string]*string) miniflow.Edges {
	out := make(miniflow.Edges, len(edges))
	for from, to := range edges {
		if to == nil {
			out[from] = ""
			continue
		}
		out[from] = *to
	}
	return out
}
