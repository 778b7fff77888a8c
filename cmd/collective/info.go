package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/claude-collective/collective/internal/presentation/tui"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Render the behavioral contract of the installed collective",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		path := filepath.Join(dir, ".claude-collective", "CONTRACT.md")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("no contract installed at %s (run `collective install`)", path)
			}
			return err
		}

		render := tui.NewRenderer()
		out, err := render(string(data))
		if err != nil {
			// Fall back to plain text when the terminal can't render.
			fmt.Println(string(data))
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
