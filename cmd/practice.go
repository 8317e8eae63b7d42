package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/practice"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice interactively in the terminal",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		opts, err := recommendOptions(cmd)
		if err != nil {
			return err
		}
		pool, _ := cmd.Flags().GetInt64Slice("pool")
		if len(pool) == 0 {
			pool = nil
		}
		n, _ := cmd.Flags().GetInt("questions")

		sum, err := practice.Run(cmd.Context(), e.tutor, practice.Config{
			StudentID:    student,
			Pool:         pool,
			Options:      opts,
			MaxQuestions: n,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %d/%d correct (%.0f%%), reward %+.2f\n",
			theme.Title.Render("Session done"), sum.Correct, sum.Answered, sum.Accuracy()*100, sum.TotalReward)
		for _, t := range sum.Transitions {
			if t.Unlocked {
				fmt.Fprintf(out, "  %s unlocked new skills\n", t.SkillID)
			}
		}
		return nil
	}),
}

func init() {
	practiceCmd.Flags().String("student", "", "Student ID")
	practiceCmd.Flags().Int64Slice("pool", nil, "Only practice these content IDs")
	practiceCmd.Flags().Int("questions", 0, "Stop after this many answers (0 = until you quit)")
	addRecommendFlags(practiceCmd)
}
