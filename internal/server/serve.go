package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/randalmurphal/miniflow/internal/service"
	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"github.com/randalmurphal/miniflow/pkg/miniflow/observability"
	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
)

// App is a configured server with its service and run store.
type App struct {
	cfg    Config
	logger *slog.Logger
	store  runstore.Store
	svc    *service.Service
	srv    *http.Server
}

// NewApp opens the run store and wires the service and handler.
func NewApp(cfg Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom, err := observability.NewPrometheusRecorder(reg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	svc, err := service.New(service.Options{
		Store:         store,
		Catalog:       catalog.Default(nil),
		Metrics:       observability.Fanout(prom, observability.NewMetricsRecorder()),
		Logger:        logger,
		MaxGraphs:     cfg.Engine.MaxGraphs,
		MaxBackground: cfg.Engine.MaxBackground,
		MaxSteps:      cfg.Engine.MaxSteps,
		Tracing:       cfg.Engine.Tracing,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    svc,
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(svc, logger, reg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}, nil
}

// Handler returns the app's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Serve accepts connections on ln until ctx is done or the listener
// fails, then shuts down within the configured timeout: in-flight
// requests first, then background runs, then the store.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", ln.Addr().String(), "store", a.cfg.Store.Backend)
		serverErrors <- a.srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		_ = a.close(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		a.logger.Info("shutting down", "timeout", a.cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := a.srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("graceful shutdown did not complete", "error", err)
			errs = append(errs, err, a.srv.Close())
		}
		errs = append(errs, a.close(shutdownCtx))
		a.logger.Info("server stopped")
		return errors.Join(errs...)
	}
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if err := a.svc.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("background runs: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close run store: %w", err))
	}
	return errors.Join(errs...)
}

// Run listens on cfg.Addr and serves until ctx is done.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = app.close(context.Background())
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	return app.Serve(ctx, ln)
}
