// Package observability provides the logging, metrics, and tracing hooks
// used by the miniflow run loop.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import "log/slog"

// EnrichLogger adds run and node context to a logger.
// Returns nil if logger is nil.
func EnrichLogger(logger *slog.Logger, runID, node string, step int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node", node),
		slog.Int("step", step),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, runID, start string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("run_id", runID),
		slog.String("start", start),
	)
}

// LogRunComplete logs a run that halted normally.
func LogRunComplete(logger *slog.Logger, runID, halt string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("graph run halted",
		slog.String("run_id", runID),
		slog.String("halt", halt),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs a run that aborted with an error.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, node string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node", node),
		slog.Int("step", step),
	)
}

// LogNodeComplete logs successful node completion and the resolved successor.
func LogNodeComplete(logger *slog.Logger, node, next string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node", node),
		slog.String("next", next),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, node string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node", node),
		slog.String("error", err.Error()),
	)
}

// LogPersistError logs a step callback failure. Persist failures are non-fatal.
func LogPersistError(logger *slog.Logger, runID, node string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("step persist failed",
		slog.String("run_id", runID),
		slog.String("node", node),
		slog.String("error", err.Error()),
	)
}
