package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/claude-collective/collective/internal/installer"
	"github.com/claude-collective/collective/internal/logging"
	"github.com/claude-collective/collective/internal/presentation/tui"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the agent collective into a project",
	Long: `Installs the template pack into the target project: agent personas under
.claude/agents/, hook scripts and wiring, the behavioral contract, and a
config.toml seed. Existing files are skipped unless --force is given;
settings.json is always merged, never clobbered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		yes, _ := cmd.Flags().GetBool("yes")
		force, _ := cmd.Flags().GetBool("force")
		minimal, _ := cmd.Flags().GetBool("minimal")
		modeStr, _ := cmd.Flags().GetString("mode")
		backup, _ := cmd.Flags().GetBool("backup")

		if minimal {
			modeStr = string(installer.ModeMinimal)
		}
		mode, err := installer.ParseMode(modeStr)
		if err != nil {
			return err
		}

		if !yes && isTTY() {
			tui.PrintBanner()
			fmt.Printf("Install the %s collective pack into %s? [y/N] ", mode, dir)
			if !confirm() {
				fmt.Println("aborted")
				return nil
			}
		}

		logger := logging.New("info")
		actions, err := installer.Install(dir, installer.Options{
			Mode:   mode,
			Force:  force,
			Backup: backup,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		for _, a := range actions {
			fmt.Printf("  %-12s %s\n", a.Result, a.Path)
		}
		fmt.Printf("\n%d files processed. Run `collective validate` to check the installation.\n", len(actions))
		return nil
	},
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func confirm() bool {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	installCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	installCmd.Flags().Bool("force", false, "Overwrite existing files")
	installCmd.Flags().Bool("minimal", false, "Shorthand for --mode minimal")
	installCmd.Flags().String("mode", "full", "Install mode: full, minimal, or hooks-only")
	installCmd.Flags().Bool("backup", false, "Write <file>.bak before overwriting")
	rootCmd.AddCommand(installCmd)
}
