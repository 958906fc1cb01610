package miniflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HaltReason says why a run stopped normally.
type HaltReason string

const (
	// HaltNoSuccessor means the last node resolved no next node.
	HaltNoSuccessor HaltReason = "no successor"
	// HaltNodeNotFound means the current node name has no function.
	HaltNodeNotFound HaltReason = "node not found"
	// HaltMaxSteps means the step limit was reached.
	HaltMaxSteps HaltReason = "max steps reached"
)

// String returns the human-readable reason.
func (h HaltReason) String() string {
	return string(h)
}

// RunResult is the outcome of a run.
// When Run returns an error, RunResult holds the state and log at the
// point of failure and Halt is empty.
type RunResult struct {
	RunID string
	State State
	Log   []string
	Halt  HaltReason
	Steps int
}

// Run executes the graph from its start node until it halts.
//
// Each step:
//  1. Halt with HaltMaxSteps once the step limit is reached
//  2. Halt with HaltNodeNotFound if the current name has no function
//  3. Invoke the node and normalize its Result
//  4. Resolve the next node: envelope override, then NextKey, then the edge table
//  5. Invoke the persistence callback, then delete NextKey from the state
//
// Halting is not an error. A node error or panic aborts the run and is
// returned as *NodeError or *PanicError together with the partial result.
// The initial state is copied; the caller's map is never modified.
func (g *Graph) Run(ctx context.Context, initial State, opts ...RunOption) (result *RunResult, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}

	startTime := time.Now()
	observability.LogRunStart(cfg.logger, cfg.runID, g.start)

	execCtx := ctx
	if cfg.tracingEnabled {
		var runSpan trace.Span
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, cfg.runID, g.start)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	r := &run{
		graph: g,
		cfg:   &cfg,
		state: initial.Clone(),
	}
	result, lastNode, runErr := r.loop(execCtx)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordRun(ctx, string(result.Halt), runErr, duration)

	if runErr != nil {
		observability.LogRunError(cfg.logger, cfg.runID, runErr, durationMs, lastNode)
	} else {
		observability.LogRunComplete(cfg.logger, cfg.runID, string(result.Halt), durationMs, result.Steps)
	}
	return result, runErr
}

// run is the mutable state of one execution. It is never shared.
type run struct {
	graph *Graph
	cfg   *runConfig
	state State
	log   []string
	steps int
}

// loop drives the state machine. It returns the result, the last node
// considered, and any abort error.
func (r *run) loop(ctx context.Context) (*RunResult, string, error) {
	current := r.graph.start

	for {
		if r.steps >= r.cfg.maxSteps {
			r.log = append(r.log, "Stopped: reached max steps limit")
			return r.result(HaltMaxSteps), current, nil
		}

		fn, ok := r.graph.node(current)
		if !ok {
			r.log = append(r.log, fmt.Sprintf("Stopped: node '%s' not found", current))
			return r.result(HaltNodeNotFound), current, nil
		}

		select {
		case <-ctx.Done():
			res := r.result("")
			return res, current, &CancellationError{
				NodeID: current,
				State:  res.State.Clone(),
				Cause:  ctx.Err(),
			}
		default:
		}

		next, err := r.step(ctx, current, fn)
		if err != nil {
			return r.result(""), current, err
		}
		if next == "" {
			r.log = append(r.log, fmt.Sprintf("Stopped: no successor after node '%s'", current))
			return r.result(HaltNoSuccessor), current, nil
		}
		current = next
	}
}

// step executes one node and returns the resolved successor ("" for none).
func (r *run) step(ctx context.Context, name string, fn NodeFunc) (string, error) {
	r.steps++
	r.log = append(r.log, "Start node: "+name)
	observability.LogNodeStart(r.cfg.logger, name, r.steps)

	nodeCtx := ctx
	var nodeSpan trace.Span
	if r.cfg.tracingEnabled {
		nodeCtx, nodeSpan = r.cfg.spans.StartNodeSpan(ctx, name, r.steps)
	}

	started := time.Now()
	res, err := r.invoke(nodeContext(nodeCtx, r.cfg.logger, r.cfg.runID, name, r.steps), name, fn)
	elapsed := time.Since(started)

	r.cfg.metrics.RecordStep(nodeCtx, name, elapsed, err)
	if r.cfg.tracingEnabled {
		r.cfg.spans.EndSpanWithError(nodeSpan, err)
	}
	if err != nil {
		observability.LogNodeError(r.cfg.logger, name, err)
		return "", err
	}

	state, override := normalize(res, r.state)
	r.state = state
	next := r.resolve(name, override)

	r.log = append(r.log, fmt.Sprintf("End node: %s -> next: %s", name, display(next)))
	observability.LogNodeComplete(r.cfg.logger, name, display(next), float64(elapsed.Milliseconds()))

	r.persist(nodeCtx, name, next)
	delete(r.state, NextKey)
	return next, nil
}

// invoke calls the node function, converting errors and panics.
func (r *run) invoke(ctx Context, name string, fn NodeFunc) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{
				NodeID: name,
				Value:  rec,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	res, err = fn(ctx, r.state)
	if err != nil {
		return res, &NodeError{NodeID: name, Op: "execute", Err: err}
	}
	return res, nil
}

// resolve picks the successor: explicit override, then NextKey, then edge.
func (r *run) resolve(current string, override Next) string {
	if override.Set {
		return override.Node
	}
	if next, ok := r.state.override(); ok {
		return next
	}
	return r.graph.edges[current]
}

// persist mirrors the step to the callback. Failures never abort the run.
func (r *run) persist(ctx context.Context, node, next string) {
	if r.cfg.onStep == nil {
		return
	}
	snap := Snapshot{
		RunID: r.cfg.runID,
		Node:  node,
		Next:  next,
		Step:  r.steps,
		State: r.state.Clone(),
		Log:   slices.Clone(r.log),
	}
	if err := callStep(ctx, r.cfg.onStep, snap); err != nil {
		observability.LogPersistError(r.cfg.logger, r.cfg.runID, node, err)
		r.cfg.metrics.RecordPersistFailure(ctx, node)
		r.cfg.spans.AddSpanEvent(ctx, "persist.failed",
			attribute.String("node", node),
			attribute.String("error", err.Error()),
		)
	}
}

func (r *run) result(halt HaltReason) *RunResult {
	delete(r.state, NextKey)
	return &RunResult{
		RunID: r.cfg.runID,
		State: r.state,
		Log:   slices.Clone(r.log),
		Halt:  halt,
		Steps: r.steps,
	}
}

func display(next string) string {
	if next == "" {
		return "none"
	}
	return next
}
