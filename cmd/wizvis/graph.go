package main

import (
	"fmt"

	"github.com/aretw0/wizvis/internal/cli"
	"github.com/aretw0/wizvis/internal/presentation/graph"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <definition>",
	Short: "Export the chart as a Mermaid state diagram",
	Long: `Loads the definition, optionally fires events, and prints a Mermaid
stateDiagram-v2 with the active states highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		insp, err := cli.NewInspector(newInspectorOptions(cmd))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := insp.Open(ctx, args[0]); err != nil {
			return err
		}

		events, _ := cmd.Flags().GetStringSlice("fire")
		for _, e := range events {
			if err := insp.FireEvent(ctx, e); err != nil {
				return err
			}
		}

		var overlay *graph.Overlay
		if noActive, _ := cmd.Flags().GetBool("no-active"); !noActive {
			overlay = &graph.Overlay{Active: domain.IDs(insp.ActiveStates())}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(insp.Definition(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("fire", nil, "Events to fire before exporting (comma separated)")
	graphCmd.Flags().Bool("no-active", false, "Do not highlight the active states")
}
