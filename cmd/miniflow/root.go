package main

import (
	"log/slog"

	"github.com/randalmurphal/miniflow/internal/logging"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "miniflow",
		Short:         "miniflow runs small state-machine workflows",
		Long:          `miniflow executes graphs of named nodes over a shared state map, locally or behind an HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", logging.FormatText, "Log format (text, json)")

	root.AddCommand(newServeCmd(), newRunCmd(), newNodesCmd(), newVersionCmd())
	return root
}

// commandLogger builds the logger selected by the persistent flags.
// It writes to the command's stderr.
func commandLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelFlag, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	level, err := logging.ParseLevel(levelFlag)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(cmd.ErrOrStderr(), level, format), nil
}
