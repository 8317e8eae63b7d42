package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var paceCmd = &cobra.Command{
	Use:   "pace",
	Short: "Show a student's learning pace derived from answer times",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		p, err := e.tutor.LearningPace(cmd.Context(), student)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "speed:    %.2fx baseline (%s)\n", p.Speed, p.Category)
		fmt.Fprintf(out, "samples:  %d\n", p.Samples)
		if p.Samples > 0 {
			fmt.Fprintf(out, "accuracy: %.0f%%\n", p.Accuracy)
		}
		switch p.Adjustment {
		case 1:
			fmt.Fprintln(out, theme.Correct.Render("Ready for harder questions."))
		case -1:
			fmt.Fprintln(out, theme.Hint.Render("Easier questions will help build confidence."))
		}
		return nil
	}),
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Show which content formats work best for a student",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		st, err := e.tutor.FormatStats(cmd.Context(), student)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if st.TotalPulls == 0 {
			fmt.Fprintf(out, "No answers recorded for %s yet.\n", student)
			return nil
		}
		fmt.Fprintf(out, "%-14s %6s %7s\n", "FORMAT", "PULLS", "VALUE")
		for _, a := range st.Arms {
			fmt.Fprintf(out, "%-14s %6d %7.3f\n", a.Format, a.Pulls, a.Value())
		}
		fmt.Fprintf(out, "\nbest: %s (epsilon %.2f)\n", st.Best, st.Epsilon)
		return nil
	}),
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Recommend questions that similar students did well on",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		picks, err := e.tutor.PeerRecommendations(cmd.Context(), student, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(picks) == 0 {
			fmt.Fprintf(out, "No peer recommendations for %s yet.\n", student)
			return nil
		}
		fmt.Fprintf(out, "%-6s %-22s %4s %7s %5s\n", "ID", "TOPIC", "DIFF", "RATING", "PEERS")
		for _, p := range picks {
			fmt.Fprintf(out, "%-6d %-22s %4d %7.2f %5d\n",
				p.Content.ID, truncate(p.Content.Topic.DisplayName(), 22), p.Content.Difficulty, p.PredictedRating, p.Support)
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{paceCmd, formatsCmd, peersCmd} {
		c.Flags().String("student", "", "Student ID")
	}
	peersCmd.Flags().Int("limit", 5, "Maximum recommendations")
}
