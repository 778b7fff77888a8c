package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/internal/presentation/tui"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect the installed agent definitions",
}

var agentsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List installed agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		for _, def := range c.Agents().List() {
			hub := " "
			if def.Name == c.Hub() {
				hub = "*"
			}
			fmt.Printf("  %s %-24s %s\n", hub, def.Name, def.Description)
		}
		return nil
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Render one agent definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		def, err := c.Agents().Get(args[0])
		if err != nil {
			return err
		}

		render := tui.NewRenderer()
		out, err := render(def.Body)
		if err != nil {
			fmt.Println(def.Body)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

var agentsGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the routing graph as DOT",
	Long: `Prints the handoff edges between installed agents in Graphviz DOT
format, so the routing topology can be rendered:

  collective agents graph | dot -Tsvg > routing.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		table := c.Agents().RoutingTable()
		sources := make([]string, 0, len(table))
		for source := range table {
			sources = append(sources, source)
		}
		sort.Strings(sources)

		var b strings.Builder
		b.WriteString("digraph collective {\n")
		b.WriteString(fmt.Sprintf("  %q [shape=doubleoctagon];\n", c.Hub()))
		for _, source := range sources {
			for _, target := range table[source] {
				b.WriteString(fmt.Sprintf("  %q -> %q;\n", source, target))
			}
		}
		b.WriteString("}\n")

		_, err = os.Stdout.WriteString(b.String())
		return err
	},
}

func init() {
	agentsCmd.AddCommand(agentsLsCmd, agentsShowCmd, agentsGraphCmd)
	rootCmd.AddCommand(agentsCmd)
}
