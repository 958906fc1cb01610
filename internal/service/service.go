// Package service holds the graphs created over the API and runs them
// against a run store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/randalmurphal/miniflow/internal/logging"
	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"github.com/randalmurphal/miniflow/pkg/miniflow/graphspec"
	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
	"github.com/randalmurphal/miniflow/pkg/miniflow/registry"
	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
	"golang.org/x/sync/errgroup"
)

// BackgroundLog is the log returned for a run accepted in the background.
const BackgroundLog = "Run started in background"

// Sentinel errors returned by Service.
var (
	ErrGraphNotFound = errors.New("graph not found")
	ErrTooManyGraphs = errors.New("too many graphs")
	ErrBusy          = errors.New("too many background runs")
	ErrShuttingDown  = errors.New("service is shutting down")
)

// Options configures a Service. Store and Catalog are required.
type Options struct {
	Store   runstore.Store
	Catalog *catalog.Catalog
	Metrics observability.MetricsRecorder
	Logger  *slog.Logger

	// MaxGraphs bounds the graph table. <= 0 means unbounded.
	MaxGraphs int
	// MaxBackground bounds concurrent background runs. <= 0 means unbounded.
	MaxBackground int
	// MaxSteps is passed to every run. <= 0 uses the engine default.
	MaxSteps int
	Tracing  bool
}

// RunOutcome is what a caller sees of a run.
type RunOutcome struct {
	RunID string
	State miniflow.State
	Log   []string
	Halt  string
	Async bool
}

// Service owns the graph table and background runs.
type Service struct {
	graphs  *registry.Registry[string, *miniflow.Graph]
	store   runstore.Store
	catalog *catalog.Catalog
	metrics observability.MetricsRecorder
	logger  *slog.Logger

	maxSteps int
	tracing  bool

	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	group  errgroup.Group
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("service: catalog is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Service{
		graphs:   registry.NewBounded[string, *miniflow.Graph](opts.MaxGraphs),
		store:    opts.Store,
		catalog:  opts.Catalog,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		maxSteps: opts.MaxSteps,
		tracing:  opts.Tracing,
		base:     base,
		cancel:   cancel,
	}
	if opts.MaxBackground > 0 {
		s.group.SetLimit(opts.MaxBackground)
	}
	return s, nil
}

// CreateGraph builds spec and stores the graph under a new ID.
func (s *Service) CreateGraph(spec graphspec.Spec) (string, error) {
	g, err := graphspec.Build(spec, s.catalog)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := s.graphs.Insert(id, g); err != nil {
		if errors.Is(err, registry.ErrFull) {
			return "", fmt.Errorf("%w: limit %d", ErrTooManyGraphs, s.graphs.Limit())
		}
		return "", err
	}
	s.logger.Info("graph created", "graph_id", id, "start", g.StartNode(), "nodes", len(g.NodeNames()))
	return id, nil
}

// Graph returns a stored graph.
func (s *Service) Graph(id string) (*miniflow.Graph, bool) {
	return s.graphs.Get(id)
}

// Run executes a stored graph.
//
// A synchronous run returns its final state, log and halt reason. If the
// run fails, the outcome holds the partial state and log alongside the
// error. An async run returns as soon as it is accepted; its progress is
// read through State. Every run is recorded in the store from the moment
// it is accepted.
func (s *Service) Run(ctx context.Context, graphID string, initial miniflow.State, async bool) (RunOutcome, error) {
	g, ok := s.graphs.Get(graphID)
	if !ok {
		return RunOutcome{}, fmt.Errorf("%w: %s", ErrGraphNotFound, graphID)
	}
	if initial == nil {
		initial = miniflow.State{}
	}

	runID := uuid.NewString()
	if err := runstore.Begin(ctx, s.store, runID, graphID, initial); err != nil {
		return RunOutcome{}, fmt.Errorf("record run %s: %w", runID, err)
	}
	opts := s.runOptions(runID, graphID)

	if async {
		if err := s.goBackground(g, graphID, initial.Clone(), opts); err != nil {
			if derr := s.store.Delete(context.WithoutCancel(ctx), runID); derr != nil {
				s.logger.Warn("discard rejected run failed", "run_id", runID, "error", derr)
			}
			return RunOutcome{}, err
		}
		return RunOutcome{
			RunID: runID,
			State: miniflow.State{},
			Log:   []string{BackgroundLog},
			Async: true,
		}, nil
	}

	result, err := s.execute(ctx, g, graphID, initial, opts)
	if result == nil {
		return RunOutcome{RunID: runID}, err
	}
	return RunOutcome{
		RunID: result.RunID,
		State: result.State,
		Log:   result.Log,
		Halt:  string(result.Halt),
	}, err
}

// State returns the stored record of a run.
// Unknown runs return an error wrapping runstore.ErrNotFound.
func (s *Service) State(ctx context.Context, runID string) (runstore.Record, error) {
	return s.store.Load(ctx, runID)
}

// Nodes returns the catalog's function keys and preset names.
func (s *Service) Nodes() (keys, presets []string) {
	return s.catalog.Keys(), s.catalog.Presets()
}

// Shutdown stops accepting background runs and waits for running ones.
// If ctx ends first, the runs are cancelled before their next step and
// ctx's error is returned.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

func (s *Service) goBackground(g *miniflow.Graph, graphID string, initial miniflow.State, opts []miniflow.RunOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrShuttingDown
	}
	ok := s.group.TryGo(func() error {
		_, _ = s.execute(s.base, g, graphID, initial, opts)
		return nil
	})
	if !ok {
		return ErrBusy
	}
	return nil
}

// execute runs g and records the outcome. A failure to record is logged
// and does not change the run's result.
func (s *Service) execute(ctx context.Context, g *miniflow.Graph, graphID string, initial miniflow.State, opts []miniflow.RunOption) (*miniflow.RunResult, error) {
	result, err := g.Run(ctx, initial, opts...)
	if result == nil {
		return nil, err
	}
	if ferr := runstore.Finish(context.WithoutCancel(ctx), s.store, graphID, result, err); ferr != nil {
		s.logger.Warn("run record failed", "run_id", result.RunID, "error", ferr)
	}
	return result, err
}

func (s *Service) runOptions(runID, graphID string) []miniflow.RunOption {
	return []miniflow.RunOption{
		miniflow.WithRunID(runID),
		miniflow.WithOnStep(runstore.Recorder(s.store, graphID)),
		miniflow.WithLogger(s.logger.With("graph_id", graphID)),
		miniflow.WithMetrics(s.metrics),
		miniflow.WithMaxSteps(s.maxSteps),
		miniflow.WithTracing(s.tracing),
	}
}
