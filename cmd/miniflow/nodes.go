package main

import (
	"fmt"

	"github.com/randalmurphal/miniflow/pkg/miniflow/catalog"
	"github.com/spf13/cobra"
)

func newNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List catalog function keys and presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			c := catalog.Default(nil)
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Nodes:")
			for _, key := range c.Keys() {
				fmt.Fprintf(out, "  %s\n", key)
			}
			fmt.Fprintln(out, "Presets:")
			for _, name := range c.Presets() {
				p, _ := c.Preset(name)
				fmt.Fprintf(out, "  %s (start: %s, %d nodes)\n", name, p.Start, len(p.Nodes))
			}
		},
	}
}
