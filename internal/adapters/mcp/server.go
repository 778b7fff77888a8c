// Package mcp exposes the collective over the Model Context Protocol so
// agent hosts can query agents, routing, experiments, and the task queue.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/pkg/agent"
	"github.com/claude-collective/collective/pkg/experiment"
	"github.com/claude-collective/collective/pkg/tasks"
)

// Server wraps the collective's components and exposes them as an MCP server.
type Server struct {
	registry    *agent.Registry
	experiments *experiment.Framework
	queue       *tasks.Queue
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// NewServer creates an MCP server named collective-mcp.
func NewServer(version string, registry *agent.Registry, experiments *experiment.Framework, queue *tasks.Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		registry:    registry,
		experiments: experiments,
		queue:       queue,
		logger:      logger,
		mcpServer:   server.NewMCPServer("collective-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerTools() {
	// TOOL: list_agents
	s.mcpServer.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List the installed agent definitions with their routing tables."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.registry.List())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: route_request
	s.mcpServer.AddTool(mcp.NewTool("route_request",
		mcp.WithDescription("Resolve the target agent of a ROUTE TO directive embedded in text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Agent output that may contain a ROUTE TO: @agent directive")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		routes := agent.ExtractRoutes(text)
		if len(routes) == 0 {
			return mcp.NewToolResultText(`{"target":""}`), nil
		}
		target := routes[len(routes)-1]
		if !s.registry.Has(target) {
			return mcp.NewToolResultError(fmt.Sprintf("directive targets unknown agent %q", target)), nil
		}

		jsonBytes, _ := json.Marshal(map[string]string{"target": target})
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: experiment_report
	s.mcpServer.AddTool(mcp.NewTool("experiment_report",
		mcp.WithDescription("Get the statistical report for one experiment."),
		mcp.WithString("experiment_id", mcp.Required(), mcp.Description("Experiment ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("experiment_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := s.experiments.Report(ctx, id)
		if err != nil {
			if errors.Is(err, experiment.ErrExperimentNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("unknown experiment %q", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
		}

		jsonBytes, err := json.Marshal(report)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: queue_next
	s.mcpServer.AddTool(mcp.NewTool("queue_next",
		mcp.WithDescription("Get the ready tasks of the dependency queue, highest priority first."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.queue.Ready(ctx))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) registerResources() {
	// EXPOSE: collective://agents
	s.mcpServer.AddResource(mcp.NewResource("collective://agents", "Installed Agents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.registry.List())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal agents: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "collective://agents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
