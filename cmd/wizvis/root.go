package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/wizvis/internal/cli"
	"github.com/aretw0/wizvis/internal/config"
	"github.com/spf13/cobra"
)

var (
	appConfig config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wizvis [definition]",
	Short: "WizVis is a visual inspector for hierarchical state machines",
	Long: `WizVis loads an SCXML or YAML state chart, shows which states are active and
which transitions are enabled, and lets you fire events and edit the data model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("recent-backend") {
			cfg.Recent.Backend, _ = cmd.Flags().GetString("recent-backend")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		debug, _ := cmd.Flags().GetBool("debug")
		l, err := cli.NewLogger(cfg.LogLevel, debug)
		if err != nil {
			return err
		}
		appConfig, logger = cfg, l
		slog.SetDefault(l)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default ./wizvis.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("recent-backend", "file", "Recent definitions store: memory, file or redis")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every runtime lifecycle event")
}

// newInspectorOptions collects what every command passes to cli.NewInspector.
func newInspectorOptions(cmd *cobra.Command) cli.InspectorOptions {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.InspectorOptions{
		Config: appConfig,
		Logger: logger,
		Debug:  debug,
	}
}
