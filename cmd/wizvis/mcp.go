package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/wizvis/internal/cli"
	"github.com/aretw0/wizvis/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [definition]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the inspector to MCP clients as tools (fire_event, evaluate,
assign_data, active_states, open_definition, get_graph) and resources
(wizvis://tree, wizvis://states, wizvis://snapshot, wizvis://graph).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		insp, err := cli.NewInspector(newInspectorOptions(cmd))
		if err != nil {
			return err
		}
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if len(args) > 0 {
			if err := insp.Open(sigCtx, args[0]); err != nil {
				return fmt.Errorf("error opening %s: %w", args[0], err)
			}
		}

		srv := mcp.NewServer(insp, logger)
		switch transport {
		case "stdio":
			// Stdout carries JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("Starting WizVis MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			return srv.ServeSSE(sigCtx, port)
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
