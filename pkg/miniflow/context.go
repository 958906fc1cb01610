package miniflow

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
)

// Context provides execution context to nodes.
// It extends context.Context with the run's logger and position.
//
// The run loop derives a fresh Context for every step.
type Context interface {
	context.Context

	// Logger returns a logger enriched with run_id, node, and step.
	// Never returns nil.
	Logger() *slog.Logger

	// RunID returns the identifier of the current run.
	RunID() string

	// NodeID returns the node being executed.
	NodeID() string

	// Step returns the 1-based step number of the current invocation.
	Step() int
}

type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	nodeID string
	step   int
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }
func (c *executionContext) RunID() string        { return c.runID }
func (c *executionContext) NodeID() string       { return c.nodeID }
func (c *executionContext) Step() int            { return c.step }

// ContextOption configures a Context created with NewContext.
type ContextOption func(*executionContext)

// WithContextLogger sets the logger returned by Context.Logger.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// WithContextNode sets the node name and step.
func WithContextNode(name string, step int) ContextOption {
	return func(c *executionContext) {
		c.nodeID = name
		c.step = step
	}
}

// NewContext wraps a standard context as a node Context. It is mostly
// useful for calling node functions directly in tests; Run builds its own.
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  discardLogger,
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

var discardLogger = slog.New(slog.DiscardHandler)

// nodeContext derives the Context passed to one node invocation.
func nodeContext(ctx context.Context, logger *slog.Logger, runID, node string, step int) *executionContext {
	if logger == nil {
		logger = discardLogger
	}
	return &executionContext{
		Context: ctx,
		logger:  observability.EnrichLogger(logger, runID, node, step),
		runID:   runID,
		nodeID:  node,
		step:    step,
	}
}
