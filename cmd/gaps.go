package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/gaps"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Analyze a student's skill gaps",
	Long: "Recompute the student's per-topic gaps from their recent answers and\n" +
		"print them by priority. Use --stored to show the last analysis instead.",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var gs []gaps.Gap
		if stored, _ := cmd.Flags().GetBool("stored"); stored {
			gs, err = e.gaps.List(ctx, student)
		} else {
			gs, err = e.tutor.AnalyzeGaps(ctx, student)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(gs) == 0 {
			fmt.Fprintf(out, "No gaps found for %s.\n", student)
			return nil
		}
		printGaps(cmd, gs)

		fmt.Fprintln(out)
		for _, r := range gaps.Recommendations(gs) {
			fmt.Fprintf(out, "• %s\n", r)
		}
		return nil
	}),
}

func printGaps(cmd *cobra.Command, gs []gaps.Gap) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%4s  %-22s  %-8s  %11s  %8s  %6s  %8s\n",
		"ID", "Topic", "Severity", "Proficiency", "Priority", "Hours", "Progress")
	fmt.Fprintln(out, strings.Repeat("─", 80))
	for _, g := range gs {
		sev := theme.Severity(string(g.Severity)).Render(fmt.Sprintf("%-8s", g.Severity))
		fmt.Fprintf(out, "%4d  %-22s  %s  %10.0f%%  %8d  %6.1f  %7.0f%%\n",
			g.ID, g.Topic.DisplayName(), sev, g.ProficiencyLevel*100,
			g.Priority, g.EstimatedHours, g.ProgressPercentage)
	}
}

var gapsProgressCmd = &cobra.Command{
	Use:   "progress <gap-id> <percent>",
	Short: "Record progress on closing a gap",
	Args:  cobra.ExactArgs(2),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("gap id: %w", err)
		}
		pct, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("percent: %w", err)
		}
		g, err := e.gaps.UpdateProgress(cmd.Context(), student, id, pct)
		if err != nil {
			return err
		}
		status := ""
		if g.Addressed {
			status = theme.Correct.Render("  addressed")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %.0f%%%s\n", g.Topic.DisplayName(), g.ProgressPercentage, status)
		return nil
	}),
}

func init() {
	gapsCmd.PersistentFlags().String("student", "", "Student ID")
	gapsCmd.Flags().Bool("stored", false, "Show the stored analysis without recomputing")
	gapsCmd.AddCommand(gapsProgressCmd)
}
