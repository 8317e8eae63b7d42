package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/tutor"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Submit a student's answer and run the learning update",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		contentID, _ := flags.GetInt64("content")
		answer, _ := flags.GetString("answer")
		secs, _ := flags.GetFloat64("time")
		skill, _ := flags.GetString("skill")
		if contentID <= 0 {
			return fmt.Errorf("--content is required")
		}
		if secs < 0 {
			return fmt.Errorf("--time must not be negative")
		}

		res, err := e.tutor.SubmitAnswer(cmd.Context(), tutor.Submission{
			StudentID: student,
			ContentID: contentID,
			SkillID:   skill,
			Answer:    answer,
			TimeSpent: secs,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Correct {
			fmt.Fprintln(out, theme.Correct.Render("✓ Correct"))
		} else {
			fmt.Fprintln(out, theme.Incorrect.Render("✗ Incorrect"))
		}
		r := res.Reward
		fmt.Fprintf(out, "reward:  %+.3f  (correctness %+.3f, time %+.3f, challenge %+.3f)\n",
			r.Total, r.Correctness, r.Time, r.Challenge)
		if res.QUpdated {
			fmt.Fprintf(out, "q-value: %.4f  (action %d)\n", res.QValue, res.Attempt.Action)
		} else {
			fmt.Fprintln(out, theme.Degraded.Render("q-value: not updated"))
		}
		if res.Mastery != nil {
			printMastery(cmd, res.Mastery)
		}
		return nil
	}),
}

func printMastery(cmd *cobra.Command, m *mastery.Result) {
	out := cmd.OutOrStdout()
	after := m.After
	fmt.Fprintf(out, "mastery: %s %s  (%d/%d, %.0f%%)\n",
		after.SkillID, mastery.LevelName(after.Level),
		after.CorrectAttempts, after.TotalAttempts, after.Accuracy())
	if t := m.Transition(); t != nil {
		msg := fmt.Sprintf("level %s → %s", mastery.LevelName(t.From), mastery.LevelName(t.To))
		if t.Unlocked {
			msg += ", dependent skills unlocked"
		}
		fmt.Fprintln(out, theme.Label.Render(msg))
	}
}

func init() {
	answerCmd.Flags().String("student", "", "Student ID")
	answerCmd.Flags().Int64("content", 0, "Content ID that was answered")
	answerCmd.Flags().String("answer", "", "The student's answer")
	answerCmd.Flags().Float64("time", 0, "Seconds spent on the question")
	answerCmd.Flags().String("skill", "", "Skill the answer counts toward (default: the content's skill)")
}
