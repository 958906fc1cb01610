package miniflow

import (
	"errors"
	"fmt"
	"slices"
)

// Edges maps a node name to its default successor.
// An empty successor, or a missing key, means the node has none.
type Edges map[string]string

// Builder collects nodes and edges for a Graph.
// Chain AddNode, AddEdge, and SetStart, then call Build.
//
// Builder is NOT safe for concurrent use. Build produces an immutable
// Graph that can be shared.
//
// Example:
//
//	graph, err := miniflow.NewBuilder().
//	    AddNode("fetch", fetch).
//	    AddNode("process", process).
//	    AddEdge("fetch", "process").
//	    Build()
type Builder struct {
	nodes map[string]NodeFunc
	order []string
	edges Edges
	start string
	errs  []error
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]NodeFunc),
		edges: make(Edges),
	}
}

// AddNode adds a named node. The first node added is the default start.
// Empty names, nil functions, and duplicates are reported by Build.
// Any other string is a valid name.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	switch {
	case name == "":
		b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrInvalidNodeName, name))
		return b
	case fn == nil:
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrNilNode, name))
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
		return b
	}

	b.nodes[name] = fn
	b.order = append(b.order, name)
	return b
}

// AddEdge sets the default successor of from. An empty to means none.
// Targets are not validated; an unknown target halts the run with
// HaltNodeNotFound when reached.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges[from] = to
	return b
}

// AddEdges copies every entry of edges into the builder.
func (b *Builder) AddEdges(edges Edges) *Builder {
	for from, to := range edges {
		b.edges[from] = to
	}
	return b
}

// SetStart sets the start node. When unset, the first added node is used.
// The name is not validated.
func (b *Builder) SetStart(name string) *Builder {
	b.start = name
	return b
}

// Build returns the immutable Graph. Errors are joined together.
func (b *Builder) Build() (*Graph, error) {
	errs := slices.Clone(b.errs)
	if len(b.order) == 0 {
		errs = append(errs, ErrNoNodes)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	start := b.start
	if start == "" {
		start = b.order[0]
	}

	nodes := make(map[string]NodeFunc, len(b.nodes))
	for name, fn := range b.nodes {
		nodes[name] = fn
	}
	edges := make(Edges, len(b.edges))
	for from, to := range b.edges {
		edges[from] = to
	}

	return &Graph{
		nodes: nodes,
		order: slices.Clone(b.order),
		edges: edges,
		start: start,
	}, nil
}

// New builds a Graph from an ordered node list, an edge table, and an
// optional start node.
func New(nodes []NamedNode, edges Edges, start string) (*Graph, error) {
	b := NewBuilder()
	for _, n := range nodes {
		b.AddNode(n.Name, n.Fn)
	}
	return b.AddEdges(edges).SetStart(start).Build()
}

// Graph is an immutable, executable graph.
//
// Graph is safe for concurrent use: any number of Run calls may share it.
type Graph struct {
	nodes map[string]NodeFunc
	order []string
	edges Edges
	start string
}

// StartNode returns the start node name.
func (g *Graph) StartNode() string {
	return g.start
}

// NodeNames returns node names in insertion order.
func (g *Graph) NodeNames() []string {
	return slices.Clone(g.order)
}

// HasNode reports whether name resolves to a node function.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Successor returns the edge-table successor of name.
// ok is false when the node has no successor.
func (g *Graph) Successor(name string) (next string, ok bool) {
	next = g.edges[name]
	return next, next != ""
}

// Edges returns a copy of the edge table.
func (g *Graph) Edges() Edges {
	out := make(Edges, len(g.edges))
	for from, to := range g.edges {
		out[from] = to
	}
	return out
}

func (g *Graph) node(name string) (NodeFunc, bool) {
	fn, ok := g.nodes[name]
	return fn, ok
}
