// Package catalog maps function keys to node functions and holds preset
// workflows, so graphs can be described by name instead of by code.
package catalog

import (
	"errors"
	"fmt"
	"maps"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/registry"
)

// ErrUnknownPreset indicates no preset is registered under the requested name.
var ErrUnknownPreset = errors.New("unknown preset")

// UnknownKeyError reports a node whose function key is not in the catalog.
type UnknownKeyError struct {
	// Node is the graph node that referenced the key.
	Node string
	// Key is the unresolved function key.
	Key string
}

// Error implements the error interface.
func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown function key %q for node %s", e.Key, e.Node)
}

// NodeRef names a graph node and the catalog key of its function.
type NodeRef struct {
	Name string
	Key  string
}

// Preset is a ready-made graph expressed in catalog keys.
type Preset struct {
	Nodes []NodeRef
	Edges miniflow.Edges
	Start string
}

// Catalog holds node functions and presets. It is safe for concurrent use.
type Catalog struct {
	funcs   *registry.Registry[string, miniflow.NodeFunc]
	presets *registry.Registry[string, Preset]
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		funcs:   registry.New[string, miniflow.NodeFunc](),
		presets: registry.New[string, Preset](),
	}
}

// Register adds or replaces the function for key.
func (c *Catalog) Register(key string, fn miniflow.NodeFunc) {
	c.funcs.Register(key, fn)
}

// Lookup returns the function for key.
func (c *Catalog) Lookup(key string) (miniflow.NodeFunc, bool) {
	return c.funcs.Get(key)
}

// Keys returns the registered function keys in sorted order.
func (c *Catalog) Keys() []string {
	return c.funcs.Keys()
}

// Resolve looks up the function of every ref, keeping order.
// The first unresolved key is returned as *UnknownKeyError.
func (c *Catalog) Resolve(refs []NodeRef) ([]miniflow.NamedNode, error) {
	nodes := make([]miniflow.NamedNode, 0, len(refs))
	for _, ref := range refs {
		fn, ok := c.funcs.Get(ref.Key)
		if !ok {
			return nil, &UnknownKeyError{Node: ref.Name, Key: ref.Key}
		}
		nodes = append(nodes, miniflow.NamedNode{Name: ref.Name, Fn: fn})
	}
	return nodes, nil
}

// RegisterPreset adds or replaces a preset.
func (c *Catalog) RegisterPreset(name string, p Preset) {
	c.presets.Register(name, Preset{
		Nodes: append([]NodeRef(nil), p.Nodes...),
		Edges: maps.Clone(p.Edges),
		Start: p.Start,
	})
}

// Preset returns the named preset.
// Returns an error wrapping ErrUnknownPreset if it doesn't exist.
func (c *Catalog) Preset(name string) (Preset, error) {
	p, ok := c.presets.Get(name)
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Preset{
		Nodes: append([]NodeRef(nil), p.Nodes...),
		Edges: maps.Clone(p.Edges),
		Start: p.Start,
	}, nil
}

// Presets returns the registered preset names in sorted order.
func (c *Catalog) Presets() []string {
	return c.presets.Keys()
}
