package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	collective "github.com/claude-collective/collective"
	"github.com/claude-collective/collective/pkg/experiment"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp"},
	Short:   "Manage A/B experiments over agent configurations",
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an experiment",
	Long: `Creates an experiment from --variant flags. Each variant is
"id:allocation" with an optional ":control" suffix; allocations must sum to 1.

  collective experiment create prompt-v2 \
    --hypothesis "shorter hub prompt routes faster" \
    --variant control:0.5:control --variant terse:0.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		hypothesis, _ := cmd.Flags().GetString("hypothesis")
		variantSpecs, _ := cmd.Flags().GetStringArray("variant")

		variants, err := parseVariants(variantSpecs)
		if err != nil {
			return err
		}

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		exp, err := c.Experiments().Create(cmd.Context(), args[0], hypothesis, variants)
		if err != nil {
			return err
		}

		fmt.Printf("created experiment %s (%s)\n", exp.ID, exp.Name)
		return nil
	},
}

var experimentLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List experiments",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		exps, err := c.Experiments().List(cmd.Context())
		if err != nil {
			return err
		}

		for _, exp := range exps {
			fmt.Printf("  %-36s  %-10s  %s\n", exp.ID, exp.Status, exp.Name)
		}
		return nil
	},
}

var experimentAssignCmd = &cobra.Command{
	Use:   "assign <experiment-id> <subject>",
	Short: "Assign a subject (e.g. a session ID) to a variant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		assignment, err := c.Experiments().Assign(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Println(assignment.VariantID)
		return nil
	},
}

var experimentRecordCmd = &cobra.Command{
	Use:   "record <experiment-id> <subject> <metric> <value>",
	Short: "Record a metric result for a subject",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		converted, _ := cmd.Flags().GetBool("converted")

		value, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("value must be numeric: %w", err)
		}

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		return c.Experiments().Record(cmd.Context(), args[0], args[1], args[2], value, converted)
	},
}

var experimentReportCmd = &cobra.Command{
	Use:   "report <experiment-id>",
	Short: "Print the statistical report for an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		asJSON, _ := cmd.Flags().GetBool("json")
		describe, _ := cmd.Flags().GetBool("describe")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		if describe {
			stats, err := c.Experiments().Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
			}
			printDescribe(stats)
			return nil
		}

		report, err := c.Experiments().Report(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
		}

		printReport(report)
		return nil
	},
}

var experimentConcludeCmd = &cobra.Command{
	Use:   "conclude <experiment-id>",
	Short: "Freeze an experiment and print its final report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		c, err := collective.New(dir)
		if err != nil {
			return err
		}

		report, err := c.Experiments().Conclude(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}

func printReport(report *experiment.Report) {
	fmt.Printf("%s (%s)\n", report.Experiment.Name, report.Experiment.Status)
	if report.Experiment.Hypothesis != "" {
		fmt.Printf("hypothesis: %s\n", report.Experiment.Hypothesis)
	}
	fmt.Println()
	fmt.Printf("  %-16s %8s %8s %10s %10s %12s\n", "variant", "n", "conv", "rate", "mean", "p-value")
	for _, vs := range report.Variants {
		label := vs.VariantID
		if vs.Control {
			label += " *"
		}
		p := "-"
		if !vs.Control && vs.Count > 0 {
			p = strconv.FormatFloat(vs.PValue, 'f', 4, 64)
			if vs.Significant {
				p += " !"
			}
		}
		fmt.Printf("  %-16s %8d %8d %10.3f %10.3f %12s\n",
			label, vs.Count, vs.Conversions, vs.ConversionRate, vs.Mean, p)
	}
	if report.Winner != "" {
		fmt.Printf("\nwinner: %s\n", report.Winner)
	}
}

func printDescribe(stats []experiment.VariantStats) {
	fmt.Printf("  %-16s %6s %6s %9s %9s %9s %9s %9s %9s\n",
		"variant", "n", "conv", "mean", "median", "stddev", "p25", "p75", "p95")
	for _, vs := range stats {
		label := vs.VariantID
		if vs.Control {
			label += " *"
		}
		fmt.Printf("  %-16s %6d %6d %9.3f %9.3f %9.3f %9.3f %9.3f %9.3f\n",
			label, vs.Count, vs.Conversions, vs.Mean, vs.Median, vs.StdDev, vs.P25, vs.P75, vs.P95)
	}
}

// parseVariants parses "id:allocation[:control]" specs.
func parseVariants(specs []string) ([]experiment.Variant, error) {
	variants := make([]experiment.Variant, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("bad variant spec %q (want id:allocation[:control])", spec)
		}
		allocation, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad allocation in %q: %w", spec, err)
		}
		v := experiment.Variant{ID: parts[0], Allocation: allocation}
		if len(parts) == 3 {
			if parts[2] != "control" {
				return nil, fmt.Errorf("bad variant suffix %q (only \"control\" is allowed)", parts[2])
			}
			v.Control = true
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func init() {
	experimentCreateCmd.Flags().String("hypothesis", "", "What the experiment is testing")
	experimentCreateCmd.Flags().StringArray("variant", nil, "Variant as id:allocation[:control] (repeatable)")
	experimentRecordCmd.Flags().Bool("converted", false, "Mark the result as a conversion")
	experimentReportCmd.Flags().Bool("json", false, "Emit the report as JSON")
	experimentReportCmd.Flags().Bool("describe", false, "Print descriptive statistics only, no significance testing")

	experimentCmd.AddCommand(experimentCreateCmd, experimentLsCmd, experimentAssignCmd,
		experimentRecordCmd, experimentReportCmd, experimentConcludeCmd)
	rootCmd.AddCommand(experimentCmd)
}
