package main

import (
	"fmt"

	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/pkg/tasks"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the dependency-aware task queue",
}

func openQueue(cmd *cobra.Command) (*collective.Collective, error) {
	dir, _ := cmd.Flags().GetString("dir")
	c, err := collective.New(dir)
	if err != nil {
		return nil, err
	}
	if err := c.Queue().Restore(cmd.Context()); err != nil {
		return nil, err
	}
	return c, nil
}

var queueAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID, _ := cmd.Flags().GetString("agent")
		dependsOn, _ := cmd.Flags().GetStringSlice("after")
		priority, _ := cmd.Flags().GetInt("priority")

		c, err := openQueue(cmd)
		if err != nil {
			return err
		}

		id, err := c.Queue().Add(cmd.Context(), tasks.Task{
			Title:     args[0],
			AgentID:   agentID,
			DependsOn: dependsOn,
			Priority:  priority,
		})
		if err != nil {
			return err
		}

		fmt.Println(id)
		return nil
	},
}

var queueLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openQueue(cmd)
		if err != nil {
			return err
		}

		for _, task := range c.Queue().List(cmd.Context()) {
			agent := task.AgentID
			if agent == "" {
				agent = "-"
			}
			fmt.Printf("  %-36s  %-12s  %-22s  %s\n", task.ID, task.Status, agent, task.Title)
		}
		return nil
	},
}

var queueNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the ready tasks, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		claim, _ := cmd.Flags().GetBool("claim")

		c, err := openQueue(cmd)
		if err != nil {
			return err
		}

		ready := c.Queue().Ready(cmd.Context())
		if len(ready) == 0 {
			fmt.Println("nothing ready")
			return nil
		}

		if claim {
			task, err := c.Queue().Claim(cmd.Context(), ready[0].ID)
			if err != nil {
				return err
			}
			fmt.Printf("claimed %s  %s\n", task.ID, task.Title)
			return nil
		}

		for _, task := range ready {
			fmt.Printf("  %-36s  p%-3d  %s\n", task.ID, task.Priority, task.Title)
		}
		return nil
	},
}

var queueCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark an in-progress task done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openQueue(cmd)
		if err != nil {
			return err
		}
		return c.Queue().Complete(cmd.Context(), args[0])
	},
}

var queueFailCmd = &cobra.Command{
	Use:   "fail <task-id>",
	Short: "Mark an in-progress task failed; its dependents become blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		c, err := openQueue(cmd)
		if err != nil {
			return err
		}
		return c.Queue().Fail(cmd.Context(), args[0], reason)
	},
}

func init() {
	queueAddCmd.Flags().String("agent", "", "Agent the task is intended for")
	queueAddCmd.Flags().StringSlice("after", nil, "Task IDs this task depends on")
	queueAddCmd.Flags().Int("priority", 0, "Higher priority runs first")
	queueNextCmd.Flags().Bool("claim", false, "Claim the top ready task")
	queueFailCmd.Flags().String("reason", "", "Why the task failed")

	queueCmd.AddCommand(queueAddCmd, queueLsCmd, queueNextCmd, queueCompleteCmd, queueFailCmd)
	rootCmd.AddCommand(queueCmd)
}
