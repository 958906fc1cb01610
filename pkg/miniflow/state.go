package miniflow

import "maps"

// NextKey is the reserved state key a node may set to pick the next node.
// The run loop removes it after every step, whether or not it was used.
//
// A non-empty string value routes to that node. Any other value, nil and
// the empty string included, leaves routing to the edge table. Only
// Halt stops a run that has an edge.
//
// Prefer returning Goto or Halt from the node instead; the key exists for
// nodes that only mutate state.
const NextKey = "_next"

// State is the schema-less record that flows through a run.
// Nodes may read and write any key.
type State map[string]any

// Clone returns a shallow copy of s. A nil State clones to an empty one.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// override reports the control override carried in NextKey.
// ok is false when the key is absent, empty, or not a string.
func (s State) override() (next string, ok bool) {
	next, _ = s[NextKey].(string)
	return next, next != ""
}
