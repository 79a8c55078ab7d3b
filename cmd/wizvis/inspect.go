package main

import (
	"os"

	"github.com/aretw0/wizvis/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [definition]",
	Short: "Inspect a state machine interactively",
	Long: `Opens the definition and starts an interactive session. Type 'help' for the
list of commands (fire, eval, set, data, tree, graph, open, reload, recent).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	insp, err := cli.NewInspector(newInspectorOptions(cmd))
	if err != nil {
		return err
	}

	opts := cli.RunOptions{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		Logger: logger,
	}
	if len(args) > 0 {
		opts.Path = args[0]
	}
	opts.DataPath, _ = cmd.Flags().GetString("data")
	opts.Watch, _ = cmd.Flags().GetBool("watch")
	opts.Debounce, _ = cmd.Flags().GetDuration("debounce")
	opts.Quiet, _ = cmd.Flags().GetBool("quiet")
	plain, _ := cmd.Flags().GetBool("plain")
	opts.Color = !plain && cli.IsTerminal(os.Stdout)

	return cli.Run(cmd.Context(), insp, opts)
}

func addInspectFlags(cmd *cobra.Command) {
	cmd.Flags().String("data", "", "JSON baseline overriding the definition's data src")
	cmd.Flags().BoolP("watch", "w", false, "Reload the definition when the file changes")
	cmd.Flags().Duration("debounce", cli.DefaultWatchDebounce, "How long --watch waits for file changes to settle")
	cmd.Flags().BoolP("quiet", "q", false, "Skip the banner and system messages")
	cmd.Flags().Bool("plain", false, "Disable colours and markdown rendering")
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addInspectFlags(inspectCmd)

	// inspect is the default command.
	addInspectFlags(rootCmd)
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = runInspect
}
