package main

import (
	"fmt"

	"github.com/aretw0/wizvis"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of wizvis",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wizvis version %s\n", wizvis.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
