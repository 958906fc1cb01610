package miniflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeError(t *testing.T) {
	err := &NodeError{NodeID: "parse", Op: "execute", Err: errBoom}

	assert.Equal(t, "node parse: execute: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, errBoom, errors.Unwrap(err))
}

func TestPanicError(t *testing.T) {
	err := &PanicError{NodeID: "parse", Value: "index out of range"}
	assert.Equal(t, "node parse panicked: index out of range", err.Error())
}

func TestCancellationError(t *testing.T) {
	err := &CancellationError{NodeID: "b", State: State{"x": 1}, Cause: context.Canceled}

	assert.Equal(t, "cancelled before node b: context canceled", err.Error())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &NodeError{NodeID: "n", Op: "execute", Err: errBoom})

	var nodeErr *NodeError
	assert.ErrorAs(t, wrapped, &nodeErr)
	assert.Equal(t, "n", nodeErr.NodeID)
}
