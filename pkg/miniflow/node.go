package miniflow

// NodeFunc is the signature for all node functions.
// A node receives the execution context and the run's current state and
// returns a Result describing what changed.
//
// The state is passed by reference. A node that only mutates it in place
// returns Continue(). Returning an error aborts the run.
//
// Example:
//
//	func count(ctx miniflow.Context, s miniflow.State) (miniflow.Result, error) {
//	    n, _ := s["count"].(int)
//	    s["count"] = n + 1
//	    return miniflow.Continue(), nil
//	}
type NodeFunc func(ctx Context, s State) (Result, error)

// NamedNode pairs a node name with its function.
// Slices of NamedNode preserve insertion order, which decides the default
// start node.
type NamedNode struct {
	Name string
	Fn   NodeFunc
}

// Kind tags the shape of a Result.
type Kind int

const (
	// KindNoChange means the node mutated the state in place, if at all.
	KindNoChange Kind = iota

	// KindReplace means Result.State replaces the run state entirely.
	KindReplace

	// KindEnvelope carries an optional new state and an optional Next override.
	KindEnvelope
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNoChange:
		return "no_change"
	case KindReplace:
		return "replace"
	case KindEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Next is an optional next-node override.
//
//	Next{}                       no override, fall through to state key and edges
//	Next{Set: true}              explicit halt, even if an edge exists
//	Next{Set: true, Node: "x"}   go to x
type Next struct {
	Set  bool
	Node string
}

// IsHalt reports whether n is an explicit halt.
func (n Next) IsHalt() bool {
	return n.Set && n.Node == ""
}

// Result is what a node returns. The zero Result is Continue().
type Result struct {
	Kind  Kind
	State State
	Next  Next
}

// Continue returns a Result that keeps the (possibly mutated) state and
// applies no override.
func Continue() Result {
	return Result{}
}

// Replace returns a Result whose state replaces the run state.
func Replace(s State) Result {
	return Result{Kind: KindReplace, State: s}
}

// Goto returns an envelope that routes to node.
func Goto(node string) Result {
	return Result{Kind: KindEnvelope, Next: Next{Set: true, Node: node}}
}

// Halt returns an envelope that stops the run after this step.
func Halt() Result {
	return Result{Kind: KindEnvelope, Next: Next{Set: true}}
}

// WithState turns r into an envelope carrying s as the new state.
func (r Result) WithState(s State) Result {
	r.Kind = KindEnvelope
	r.State = s
	return r
}

// WithNext turns r into an envelope routing to node.
func (r Result) WithNext(node string) Result {
	r.Kind = KindEnvelope
	r.Next = Next{Set: true, Node: node}
	return r
}

// WithHalt turns r into an envelope that halts after this step.
func (r Result) WithHalt() Result {
	r.Kind = KindEnvelope
	r.Next = Next{Set: true}
	return r
}

// normalize folds a Result into the state to carry forward and the
// override to apply. Nil states never replace the current one.
func normalize(r Result, current State) (State, Next) {
	switch r.Kind {
	case KindReplace:
		if r.State == nil {
			return current, Next{}
		}
		return r.State, Next{}
	case KindEnvelope:
		if r.State == nil {
			return current, r.Next
		}
		return r.State, r.Next
	default:
		return current, Next{}
	}
}

// Mutator adapts a function that only mutates state into a NodeFunc.
func Mutator(fn func(ctx Context, s State) error) NodeFunc {
	return func(ctx Context, s State) (Result, error) {
		return Continue(), fn(ctx, s)
	}
}
