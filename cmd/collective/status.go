package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude-collective/collective/internal/installer"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is installed in the target project",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		status, err := installer.Status(dir)
		if err != nil {
			return err
		}

		for _, c := range status.Components {
			mark := "missing"
			if c.Present {
				mark = "ok"
			}
			if c.Expected > 1 || c.Name == "agents" || c.Name == "hooks" {
				fmt.Printf("  %-10s %-8s %d/%d\n", c.Name, mark, c.Installed, c.Expected)
			} else {
				fmt.Printf("  %-10s %-8s %s\n", c.Name, mark, c.Detail)
			}
		}

		if !status.Complete() {
			fmt.Println("\nincomplete installation; run `collective install`")
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
