// Package tools provides named helper functions that nodes call by name.
package tools

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/miniflow/pkg/miniflow/registry"
)

// ErrToolNotFound indicates no tool is registered under the requested name.
var ErrToolNotFound = errors.New("tool not found")

// Tool is a named helper. Results are keyed so callers can pick fields
// without knowing the tool's concrete types.
type Tool func(args ...any) (map[string]any, error)

// Registry maps tool names to tools. It is safe for concurrent use.
type Registry struct {
	tools *registry.Registry[string, Tool]
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: registry.New[string, Tool]()}
}

// Register adds or replaces a tool.
func (r *Registry) Register(name string, tool Tool) {
	r.tools.Register(name, tool)
}

// Call invokes the named tool.
// Returns an error wrapping ErrToolNotFound for unknown names.
func (r *Registry) Call(name string, args ...any) (map[string]any, error) {
	tool, ok := r.tools.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	return tool(args...)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	return r.tools.Keys()
}

// Default returns a registry holding the built-in tools.
func Default() *Registry {
	r := NewRegistry()
	r.Register("detect_smells", detectSmellsTool)
	return r
}
