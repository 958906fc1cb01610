package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/randalmurphal/miniflow/internal/logging"
	"github.com/randalmurphal/miniflow/internal/server"
	"github.com/spf13/cobra"
)

// serveFlags maps serve flags to config keys. Only flags set on the
// command line override the config file.
var serveFlags = map[string]string{
	"addr":           "addr",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"store":          "store.backend",
	"max-runs":       "store.max_runs",
	"sqlite-path":    "store.sqlite_path",
	"redis-addr":     "store.redis_addr",
	"redis-db":       "store.redis_db",
	"redis-ttl":      "store.redis_ttl",
	"max-steps":      "engine.max_steps",
	"max-graphs":     "engine.max_graphs",
	"max-background": "engine.max_background",
	"tracing":        "engine.tracing",
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Serves the graph API until SIGINT or SIGTERM, then drains requests and background runs.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := serveConfig(cmd)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := logging.NewWriter(cmd.ErrOrStderr(), level, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.String("addr", ":8000", "Listen address")
	f.String("store", server.BackendMemory, "Run store backend (memory, sqlite, redis)")
	f.Int("max-runs", 10000, "Runs kept by the memory store")
	f.String("sqlite-path", "miniflow.db", "SQLite database path")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.Int("redis-db", 0, "Redis database")
	f.Duration("redis-ttl", 0, "Expire runs this long after their last write")
	f.Int("max-steps", 1000, "Step limit per run")
	f.Int("max-graphs", 1000, "Graphs kept in memory")
	f.Int("max-background", 64, "Concurrent background runs")
	f.Bool("tracing", false, "Emit OpenTelemetry spans")
	return cmd
}

// serveConfig layers defaults, the --config file and changed flags.
func serveConfig(cmd *cobra.Command) (server.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	overrides := make(map[string]any)
	for flag, key := range serveFlags {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}
	return server.LoadConfig(path, overrides)
}
