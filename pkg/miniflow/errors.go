package miniflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building.
var (
	// ErrNoNodes indicates Build was called without any nodes.
	ErrNoNodes = errors.New("graph has no nodes")

	// ErrNilNode indicates a node was added with a nil function.
	ErrNilNode = errors.New("node function cannot be nil")

	// ErrDuplicateNode indicates two nodes share a name.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrInvalidNodeName indicates an empty node name.
	ErrInvalidNodeName = errors.New("invalid node name")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")
)

// NodeError wraps an error returned by a node function.
type NodeError struct {
	// NodeID is the node that failed.
	NodeID string
	// Op is the operation that failed (e.g., "execute").
	Op string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a node function.
type PanicError struct {
	// NodeID is the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError reports that the caller's context ended before a node ran.
type CancellationError struct {
	// NodeID is the node that was about to execute.
	NodeID string
	// State is the run state at cancellation.
	State State
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
