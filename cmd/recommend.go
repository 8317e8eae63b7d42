package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/tutor"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend the next question for a student",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		opts, err := recommendOptions(cmd)
		if err != nil {
			return err
		}
		candidates, _ := cmd.Flags().GetInt64Slice("candidates")
		if len(candidates) == 0 {
			candidates = nil
		}

		ctx := cmd.Context()
		rec, err := e.tutor.NextQuestion(ctx, student, candidates, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if rec.ContentID == 0 {
			fmt.Fprintln(out, theme.Degraded.Render("No question available: no candidates for this student."))
			return nil
		}
		fmt.Fprintf(out, "content:    %d\n", rec.ContentID)
		fmt.Fprintf(out, "action:     %d\n", rec.Action)
		fmt.Fprintf(out, "confidence: %.3f\n", rec.Confidence)
		if rec.Style != "" {
			fmt.Fprintf(out, "style:      %s\n", rec.Style)
		}
		if rec.Pace != tutor.PaceNormal {
			fmt.Fprintf(out, "pace:       %s\n", rec.Pace)
		}
		switch {
		case rec.Outcome == tutor.Degraded:
			fmt.Fprintf(out, "outcome:    %s\n", theme.Degraded.Render(fmt.Sprintf("degraded (%v)", rec.Reason)))
		case rec.Explored:
			fmt.Fprintln(out, "outcome:    explored")
		default:
			fmt.Fprintln(out, "outcome:    recommended")
		}

		info, err := e.tutor.Content(ctx, rec.ContentID)
		switch {
		case errors.Is(err, tutor.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		fmt.Fprintf(out, "\n%s\n%s\n", theme.Label.Render(fmt.Sprintf("%s · difficulty %d", info.Topic.DisplayName(), info.Difficulty)), info.Prompt)
		return nil
	}),
}

// recommendOptions reads the personalization flags shared by recommend,
// practice and simulate.
func recommendOptions(cmd *cobra.Command) (tutor.RecommendOptions, error) {
	flags := cmd.Flags()
	style, _ := flags.GetString("style")
	paceFlag, _ := flags.GetString("pace")
	pace, err := tutor.ParsePace(paceFlag)
	if err != nil {
		return tutor.RecommendOptions{}, err
	}
	opts := tutor.RecommendOptions{LearningStyle: style, Pace: pace}
	if flags.Changed("exploration") {
		eps, _ := flags.GetFloat64("exploration")
		if eps < 0 || eps > 1 {
			return tutor.RecommendOptions{}, fmt.Errorf("--exploration must be in [0, 1], got %v", eps)
		}
		opts.Exploration = &eps
	}
	return opts, nil
}

func addRecommendFlags(cmd *cobra.Command) {
	cmd.Flags().String("style", tutor.StyleAuto, "Learning style: text, visual, interactive, multimodal or auto (learned per student)")
	cmd.Flags().String("pace", string(tutor.PaceAuto), "Learning pace: slow, normal, fast or auto (from answer times)")
	cmd.Flags().Float64("exploration", 0, "Override the agent's exploration rate")
}

func init() {
	recommendCmd.Flags().String("student", "", "Student ID")
	recommendCmd.Flags().Int64Slice("candidates", nil, "Candidate content IDs (default: drawn from unlocked skills)")
	addRecommendFlags(recommendCmd)
}
