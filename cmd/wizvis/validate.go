package main

import (
	"fmt"

	"github.com/aretw0/wizvis/internal/validator"
	"github.com/aretw0/wizvis/pkg/adapters/document"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>...",
	Short: "Check definitions for structural problems",
	Long: `Reports duplicate or missing state ids, unknown transition targets, bad
initial states, missing data files and unreachable states.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		loader := document.NewLoader()
		out := cmd.OutOrStdout()

		failed := 0
		for _, path := range args {
			def, err := loader.Load(cmd.Context(), path)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++
				continue
			}
			report := validator.Validate(def)
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s: %s\n", path, issue)
			}
			if len(report.Errors()) > 0 || (strict && len(report.Warnings()) > 0) {
				failed++
				continue
			}
			fmt.Fprintf(out, "%s: ok\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d definitions failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}
