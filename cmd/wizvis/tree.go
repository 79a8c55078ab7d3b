package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/wizvis/internal/cli"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree <definition>",
	Short: "Print the state hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		insp, err := cli.NewInspector(newInspectorOptions(cmd))
		if err != nil {
			return err
		}
		if err := insp.Open(cmd.Context(), args[0]); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(insp.StateTree())
		}
		active := map[string]bool{}
		for _, id := range domain.IDs(insp.ActiveStates()) {
			active[id] = true
		}
		printTree(out, insp.StateTree(), active, 0)
		return nil
	},
}

func printTree(w io.Writer, nodes []domain.TreeNode, active map[string]bool, depth int) {
	for _, n := range nodes {
		marker := " "
		if active[n.ID] {
			marker = "*"
		}
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), marker, n.ID)
		printTree(w, n.Children, active, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Bool("json", false, "Print the tree as JSON")
}
