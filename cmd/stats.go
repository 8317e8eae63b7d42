package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

const statsWidth = 64

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics for a student",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		rows, err := e.mastery.List(ctx, student)
		if err != nil {
			return err
		}
		state, err := e.tutor.KnowledgeState(ctx, student)
		if err != nil {
			return err
		}
		recent, err := e.store.Attempts().Recent(ctx, student, e.model.Window())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ov := mastery.BuildOverview(e.graph, rows)
		fmt.Fprintln(out, theme.Title.Render("Progress for "+student))
		fmt.Fprintf(out, "  skills started:  %d / %d\n", ov.Started, ov.TotalSkills)
		fmt.Fprintf(out, "  unlocked:        %d\n", ov.Unlocked)
		fmt.Fprintf(out, "  mastered:        %d\n", ov.Mastered)
		fmt.Fprintf(out, "  average level:   %.2f\n\n", ov.AverageLevel)

		cats := make([]string, 0, len(ov.ByCategory))
		for c := range ov.ByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			cp := ov.ByCategory[c]
			bar := components.ProgressBar{
				Label:       fmt.Sprintf("%s %d/%d", c, cp.Proficient, cp.Total),
				LabelWidth:  18,
				Percent:     ratio(cp.Proficient, cp.Total),
				ShowPercent: true,
				Width:       statsWidth,
			}
			fmt.Fprintln(out, bar.View())
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Label.Render(fmt.Sprintf("Topic proficiency (last %d answers)", len(recent))))
		for _, t := range knowledge.AllTopics() {
			bar := components.ProgressBar{
				Label:       t.DisplayName(),
				LabelWidth:  20,
				Percent:     state.Of(t),
				ShowPercent: true,
				Width:       statsWidth,
			}
			fmt.Fprintln(out, bar.View())
		}
		fmt.Fprintf(out, "\n  accuracy:             %.0f%%\n", state.AccuracyRate*100)
		fmt.Fprintf(out, "  preferred difficulty: %.1f\n", state.PreferredDifficulty)

		if len(rows) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-28s  %-12s  %8s  %8s\n", "Skill", "Level", "Attempts", "Accuracy")
			fmt.Fprintln(out, strings.Repeat("─", 64))
			sort.Slice(rows, func(i, j int) bool { return rows[i].SkillID < rows[j].SkillID })
			for i := range rows {
				m := &rows[i]
				style := theme.Level(m.Level, skillgraph.UnlockThreshold, skillgraph.MaxLevel)
				fmt.Fprintf(out, "%-28s  %s  %8d  %7.0f%%\n",
					m.SkillID, style.Render(fmt.Sprintf("%-12s", mastery.LevelName(m.Level))),
					m.TotalAttempts, m.Accuracy())
			}
		}
		return nil
	}),
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func init() {
	statsCmd.Flags().String("student", "", "Student ID")
}
