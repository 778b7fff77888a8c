package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/pkg/hooks"
)

var hookCmd = &cobra.Command{
	Use:   "hook <routing|guard|handoff|log|all>",
	Short: "Run a hook handler against the payload on stdin",
	Long: `Implements the Claude Code hook protocol: reads the JSON payload from
stdin, dispatches it to the named handler, writes the decision JSON to
stdout, and exits 2 when the action must be blocked. Intended to be wired
from .claude/settings.json via the installed wrapper scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		// Hook processes are short-lived, so dispatch outcomes go to the
		// NDJSON event log; `collective serve` derives /metrics from it.
		eventLog := hooks.NewEventLog(filepath.Join(c.Dir, c.Config.Hooks.EventLog))
		handlers, err := buildHandlers(args[0], c, eventLog)
		if err != nil {
			return err
		}

		logger := logging.New(c.Config.Log.Level)
		dispatcher := hooks.NewDispatcher(handlers,
			hooks.WithLogger(logger),
			hooks.WithRecorder(eventLog),
		)

		os.Exit(dispatcher.Run(cmd.Context(), os.Stdin, os.Stdout))
		return nil
	},
}

func buildHandlers(name string, c *collective.Collective, log *hooks.EventLog) ([]hooks.Handler, error) {
	routing := hooks.NewRoutingHandler(c.Agents())
	guard := &hooks.GuardHandler{HubMode: c.Config.Routing.HubMode}
	handoff := &hooks.HandoffHandler{}
	eventLog := &hooks.LogHandler{Log: log}

	switch name {
	case "routing":
		return []hooks.Handler{routing, eventLog}, nil
	case "guard":
		return []hooks.Handler{guard, eventLog}, nil
	case "handoff":
		if !c.Config.Hooks.HandoffGate {
			return []hooks.Handler{eventLog}, nil
		}
		return []hooks.Handler{handoff, eventLog}, nil
	case "log":
		return []hooks.Handler{eventLog}, nil
	case "all":
		all := []hooks.Handler{guard, routing, eventLog}
		if c.Config.Hooks.HandoffGate {
			all = []hooks.Handler{guard, handoff, routing, eventLog}
		}
		return all, nil
	default:
		return nil, fmt.Errorf("unknown hook %q (want routing, guard, handoff, log, or all)", name)
	}
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
