package cmd

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/tutor"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var placementCmd = &cobra.Command{
	Use:   "placement",
	Short: "Run the placement test and seed a student's mastery",
	Long: "Ask one question per placement probe skill and seed mastery from the\n" +
		"answers. With --answers the questions are skipped and the given\n" +
		"results are recorded directly (e.g. --answers functions=true,optics=false).",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetStringToString("answers")
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		answers := make(map[string]bool, len(raw))
		for id, v := range raw {
			ok, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("answer for %s: %w", id, err)
			}
			answers[id] = ok
		}

		if len(answers) == 0 {
			questions, err := e.tutor.PlacementQuestions(ctx)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no placement questions: import or seed content first")
			}
			in := bufio.NewScanner(cmd.InOrStdin())
			for i, q := range questions {
				fmt.Fprintf(out, "\n%s  %s\n", theme.Label.Render(fmt.Sprintf("[%d/%d]", i+1, len(questions))), q.Skill.Name)
				fmt.Fprintf(out, "%s\n> ", q.Content.Prompt)
				var answer string
				if in.Scan() {
					answer = in.Text()
				}
				correct := tutor.Grade(answer, q.Content.CorrectAnswer)
				answers[q.Skill.ID] = correct
				if correct {
					fmt.Fprintln(out, theme.Correct.Render("✓ correct"))
				} else {
					fmt.Fprintln(out, theme.Incorrect.Render("✗ answer was "+q.Content.CorrectAnswer))
				}
			}
			if err := in.Err(); err != nil {
				return err
			}
		}

		outcomes, err := e.tutor.Placement(ctx, student, answers)
		if err != nil {
			return err
		}
		sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].SkillID < outcomes[j].SkillID })

		fmt.Fprintf(out, "\nPlacement for %s\n", student)
		fmt.Fprintln(out, strings.Repeat("─", 50))
		for _, o := range outcomes {
			note := ""
			if !o.Seeded {
				note = theme.Hint.Render("  (kept existing progress)")
			}
			fmt.Fprintf(out, "%-28s  %s%s\n", o.SkillID, mastery.LevelName(o.Level), note)
		}
		return nil
	}),
}

func init() {
	placementCmd.Flags().String("student", "", "Student ID")
	placementCmd.Flags().StringToString("answers", nil, "Record results without asking: skill=true|false,...")
}
