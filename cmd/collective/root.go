package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "collective",
	Short: "collective installs and operates a hub-and-spoke agent layout for Claude Code",
	Long: `collective manages a multi-agent collective on top of Claude Code:
agent personas under .claude/agents/, hook wiring that enforces routing and
test-driven handoffs, an A/B experiment framework over agent configurations,
and a dependency-aware task queue.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Target project directory")
}
