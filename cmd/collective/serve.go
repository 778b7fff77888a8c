package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/internal/adapters/httpapi"
	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/internal/metrics"
	"github.com/claude-collective/collective/pkg/experiment"
	"github.com/claude-collective/collective/pkg/hooks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the collective's HTTP API",
	Long: `Starts an HTTP server exposing installation status, agents, experiment
reports and result recording, the task queue, prometheus metrics, and an SSE
stream of agent directory changes. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		addr, _ := cmd.Flags().GetString("addr")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}
		logger := logging.New(c.Config.Log.Level)

		if err := c.Queue().Restore(cmd.Context()); err != nil {
			return err
		}

		if addr == "" {
			addr = c.Config.Server.Addr
		}

		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		// Hook invocations persist their outcomes to the NDJSON event log;
		// the collector turns those rows into counters on /metrics.
		eventLog := hooks.NewEventLog(filepath.Join(c.Dir, c.Config.Hooks.EventLog))
		registry.MustRegister(metrics.NewEventLogCollector(eventLog))

		// The served framework carries the recorder so results posted to
		// /experiments/{id}/results show up on /metrics.
		experiments := experiment.New(c.Store(),
			experiment.WithLogger(logger),
			experiment.WithRecorder(m),
		)

		opts := []httpapi.Option{
			httpapi.WithLogger(logger),
			httpapi.WithGatherer(registry),
		}

		agentsDir := filepath.Join(dir, ".claude", "agents")
		if _, statErr := os.Stat(agentsDir); statErr == nil {
			watcher, err := httpapi.NewWatcher(logger, agentsDir)
			if err != nil {
				return err
			}
			defer watcher.Close()
			opts = append(opts, httpapi.WithWatcher(watcher))
		}

		srv := httpapi.New(dir, c.Agents(), experiments, c.Queue(), opts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = srv.ListenAndServe(ctx, addr, c.Config.Server.ShutdownTimeout.Duration)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}
