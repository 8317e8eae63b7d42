package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <skill-id>",
	Short: "Check whether a skill is unlocked for a student",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		skillID := args[0]

		ok, err := e.tutor.IsUnlockedForStudent(ctx, skillID, student)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if ok {
			fmt.Fprintf(out, "%s %s is unlocked for %s\n", theme.Correct.Render("✓"), skillID, student)
			return nil
		}

		levels, err := e.mastery.Levels(ctx, student)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s is locked for %s. Needs level %d (%s) in:\n",
			theme.Incorrect.Render("✗"), skillID, student,
			skillgraph.UnlockThreshold, mastery.LevelName(skillgraph.UnlockThreshold))
		for _, id := range e.graph.MissingPrerequisites(skillID, levels) {
			fmt.Fprintf(out, "  - %-28s  currently %s\n", id, mastery.LevelName(levels[id]))
		}
		return nil
	}),
}

func init() {
	unlockCmd.Flags().String("student", "", "Student ID")
}
