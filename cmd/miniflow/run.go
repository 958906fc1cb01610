package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"github.com/randalmurphal/miniflow/pkg/miniflow/graphspec"
	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
	"github.com/spf13/cobra"
)

type runOutput struct {
	RunID      string         `json:"run_id"`
	FinalState miniflow.State `json:"final_state"`
	Log        []string       `json:"log"`
	Halt       string         `json:"halt,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <spec-file>",
		Short: "Run a graph spec and print the result as JSON",
		Long: `Builds the graph described by a YAML or JSON spec file, runs it once
and prints the final state and execution log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stateJSON, _ := cmd.Flags().GetString("state")
			stateFile, _ := cmd.Flags().GetString("state-file")
			maxSteps, _ := cmd.Flags().GetInt("max-steps")
			record, _ := cmd.Flags().GetString("record")

			initial, err := readState(stateJSON, stateFile)
			if err != nil {
				return err
			}
			logger, err := commandLogger(cmd)
			if err != nil {
				return err
			}

			spec, err := graphspec.Load(args[0])
			if err != nil {
				return err
			}
			g, err := graphspec.Build(spec, catalog.Default(nil))
			if err != nil {
				return fmt.Errorf("build graph: %w", err)
			}

			opts := []miniflow.RunOption{
				miniflow.WithLogger(logger),
				miniflow.WithMaxSteps(maxSteps),
			}
			if record != "" {
				store, err := runstore.NewSQLiteStore(record)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, miniflow.WithOnStep(runstore.Recorder(store, args[0])))
				return runAndPrint(cmd, g, initial, opts, func(ctx context.Context, res *miniflow.RunResult, runErr error) error {
					return runstore.Finish(ctx, store, args[0], res, runErr)
				})
			}
			return runAndPrint(cmd, g, initial, opts, nil)
		},
	}

	cmd.Flags().String("state", "", "Initial state as a JSON object")
	cmd.Flags().String("state-file", "", "Read the initial state from a JSON file")
	cmd.Flags().Int("max-steps", miniflow.DefaultMaxSteps, "Step limit")
	cmd.Flags().String("record", "", "Mirror the run into a SQLite database at this path")
	return cmd
}

type finishFunc func(ctx context.Context, res *miniflow.RunResult, runErr error) error

func runAndPrint(cmd *cobra.Command, g *miniflow.Graph, initial miniflow.State, opts []miniflow.RunOption, finish finishFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, runErr := g.Run(ctx, initial, opts...)
	if res == nil {
		return runErr
	}
	if finish != nil {
		if err := finish(ctx, res, runErr); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	out := runOutput{
		RunID:      res.RunID,
		FinalState: res.State,
		Log:        res.Log,
		Halt:       string(res.Halt),
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return runErr
}

func readState(inline, path string) (miniflow.State, error) {
	if inline != "" && path != "" {
		return nil, fmt.Errorf("use either --state or --state-file")
	}
	data := []byte(inline)
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read state file: %w", err)
		}
	}

	state := miniflow.State{}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("initial state must be a JSON object: %w", err)
	}
	return state, nil
}
