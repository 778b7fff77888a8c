package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude-collective/collective/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the installed collective",
	Long: `Checks that every installed agent parses, the routing graph is reachable
from the hub, settings.json points at existing hook scripts, and config.toml
validates. All findings are reported; the command exits 1 if there are any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		checkAPI, _ := cmd.Flags().GetBool("api")

		problems := validator.Validate(cmd.Context(), dir, validator.Options{CheckAPI: checkAPI})
		if len(problems) == 0 {
			fmt.Println("ok")
			return nil
		}

		for _, p := range problems {
			fmt.Println(" ", p.String())
		}
		fmt.Printf("\n%d problem(s) found\n", len(problems))
		os.Exit(1)
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("api", false, "Additionally validate the embedded OpenAPI document")
	rootCmd.AddCommand(validateCmd)
}
