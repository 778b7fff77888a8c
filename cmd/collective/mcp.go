package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/internal/adapters/mcp"
	"github.com/claude-collective/collective/internal/logging"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the collective as an MCP server so agent hosts can list agents,
resolve routing directives, fetch experiment reports, and pull the next
ready task as tools.

Supported transports:
- stdio (default): Standard Input/Output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}
		logger := logging.New(c.Config.Log.Level)

		if err := c.Queue().Restore(cmd.Context()); err != nil {
			return err
		}

		srv := mcp.NewServer(collective.Version, c.Agents(), c.Experiments(), c.Queue(), logger)

		switch transport {
		case "stdio":
			// Keep Stdout clean for JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("starting MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8421, "Port for the SSE transport")
	rootCmd.AddCommand(mcpCmd)
}
