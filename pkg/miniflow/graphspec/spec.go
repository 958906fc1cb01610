// Package graphspec describes graphs as data: either a named preset or an
// explicit node table and edge table whose functions are catalog keys.
//
// Specs are read from JSON or YAML, validated against a JSON Schema, and
// resolved against a catalog.Catalog into a runnable miniflow.Graph.
package graphspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for spec handling.
var (
	// ErrInvalidSpec indicates the document failed schema validation.
	ErrInvalidSpec = errors.New("invalid graph spec")

	// ErrIncomplete indicates a spec with no preset and an empty node or edge table.
	ErrIncomplete = errors.New("provide either preset or nodes+edges")
)

// Spec is a graph description.
type Spec struct {
	// Preset names a catalog preset. When set, Nodes and Edges are ignored.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`

	// Nodes maps node names to catalog keys, in document order.
	Nodes OrderedNodes `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	// Edges maps a node to its default successor. A nil target means none.
	Edges map[string]*string `json:"edges,omitempty" yaml:"edges,omitempty"`

	// StartNode overrides the start. Empty means the preset's start, or
	// the first node for explicit specs.
	StartNode string `json:"start_node,omitempty" yaml:"start_node,omitempty"`
}

// OrderedNodes is a node table that keeps the order in which entries
// appear in the source document. The first entry is the default start.
type OrderedNodes []catalog.NodeRef

// UnmarshalJSON decodes a JSON object of name -> key pairs, keeping order.
// A repeated name keeps its first position and its last key.
func (o *OrderedNodes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nodes: want object, got %v", tok)
	}

	var nodes OrderedNodes
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var fnKey string
		if err := dec.Decode(&fnKey); err != nil {
			return fmt.Errorf("nodes.%s: %w", name, err)
		}
		nodes = nodes.set(name, fnKey)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = nodes
	return nil
}

// UnmarshalYAML decodes a YAML mapping of name -> key pairs, keeping order.
func (o *OrderedNodes) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*o = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("nodes: want mapping at line %d", value.Line)
	}

	var nodes OrderedNodes
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name, fnKey string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&fnKey); err != nil {
			return fmt.Errorf("nodes.%s: %w", name, err)
		}
		nodes = nodes.set(name, fnKey)
	}

	*o = nodes
	return nil
}

// MarshalJSON encodes the table as a JSON object in order.
func (o OrderedNodes) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ref := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(ref.Name)
		if err != nil {
			return nil, err
		}
		key, err := json.Marshal(ref.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(key)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o OrderedNodes) set(name, key string) OrderedNodes {
	for i := range o {
		if o[i].Name == name {
			o[i].Key = key
			return o
		}
	}
	return append(o, catalog.NodeRef{Name: name, Key: key})
}
