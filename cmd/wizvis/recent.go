package main

import (
	"fmt"
	"io"

	"github.com/aretw0/wizvis/pkg/recent"
	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := recentList()
		if err != nil {
			return err
		}
		paths, err := list.Entries(cmd.Context())
		if err != nil {
			return err
		}
		printRecent(cmd.OutOrStdout(), paths)
		return nil
	},
}

var recentRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Forget a recently opened definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := recentList()
		if err != nil {
			return err
		}
		paths, err := list.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRecent(cmd.OutOrStdout(), paths)
		return nil
	},
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every recently opened definition",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := recentList()
		if err != nil {
			return err
		}
		return list.Clear(cmd.Context())
	},
}

func recentList() (*recent.List, error) {
	store, err := appConfig.Recent.Store()
	if err != nil {
		return nil, err
	}
	return recent.New(store, recent.WithLimit(appConfig.Recent.Limit)), nil
}

func printRecent(w io.Writer, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(w, "No recent definitions.")
		return
	}
	for i, p := range paths {
		fmt.Fprintf(w, "%2d. %s\n", i+1, p)
	}
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentRemoveCmd, recentClearCmd)
}
