package main

import (
	"fmt"
	"strings"

	collective "github.com/claude-collective/collective"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of collective",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("collective version %s\n", strings.TrimSpace(collective.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
