package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Browse and manage the skill graph",
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all skills (optionally filtered by category or topic)",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		category, _ := cmd.Flags().GetString("category")
		topic, _ := cmd.Flags().GetString("topic")

		var skills []skillgraph.Skill
		switch {
		case category != "" && topic != "":
			return fmt.Errorf("use --category or --topic, not both")
		case category != "":
			skills = e.graph.ByCategory(category)
			if len(skills) == 0 {
				return fmt.Errorf("no skills found for category %q (have: %s)",
					category, strings.Join(e.graph.Categories(), ", "))
			}
		case topic != "":
			t, err := knowledge.ParseTopic(topic)
			if err != nil {
				return err
			}
			skills = e.graph.ByTopic(t)
			if len(skills) == 0 {
				return fmt.Errorf("no skills found for topic %q", topic)
			}
		default:
			skills = e.graph.TopologicalOrder()
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-28s  %-34s  %-12s  %-14s  %s\n",
			"ID", "Name", "Tier", "Category", "Prerequisites")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, s := range skills {
			fmt.Fprintf(out, "%-28s  %-34s  %-12s  %-14s  %s\n",
				s.ID, truncate(s.Name, 34), s.Difficulty, s.Category,
				strings.Join(s.Prerequisites, ", "))
		}
		fmt.Fprintf(out, "\n%d skills\n", len(skills))
		return nil
	}),
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-id>",
	Short: "Show one skill with its prerequisites and dependents",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		s, err := e.graph.Skill(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Title.Render(s.Name))
		fmt.Fprintf(out, "  id:          %s\n", s.ID)
		fmt.Fprintf(out, "  category:    %s\n", s.Category)
		fmt.Fprintf(out, "  topic:       %s\n", s.Topic.DisplayName())
		fmt.Fprintf(out, "  tier:        %s\n", s.Difficulty)
		fmt.Fprintf(out, "  est. hours:  %.1f\n", s.EstimatedHours)
		if s.Description != "" {
			fmt.Fprintf(out, "\n  %s\n", s.Description)
		}
		fmt.Fprintf(out, "\n  needs:   %s\n", joinIDs(e.graph.Prerequisites(s.ID)))
		fmt.Fprintf(out, "  unlocks: %s\n", joinIDs(e.graph.Dependents(s.ID)))
		return nil
	}),
}

var skillPathCmd = &cobra.Command{
	Use:   "path <target-skill>",
	Short: "Show what a student still has to learn before a skill",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		levels, err := e.mastery.Levels(cmd.Context(), student)
		if err != nil {
			return err
		}
		path, err := e.graph.LearningPath(args[0], levels)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(path.Steps) == 0 {
			fmt.Fprintf(out, "%s has already unlocked everything %s needs.\n", student, path.Target.Name)
			return nil
		}
		fmt.Fprintf(out, "Path to %s for %s\n\n", theme.Title.Render(path.Target.Name), student)
		for i, st := range path.Steps {
			state := skillgraph.ResolveState(st.Level, st.Unlocked)
			fmt.Fprintf(out, "%2d. %s %-28s  %-12s  %s\n",
				i+1, state.Icon(), st.Skill.ID, mastery.LevelName(st.Level),
				theme.Hint.Render(fmt.Sprintf("%.1fh", st.Skill.EstimatedHours)))
		}
		fmt.Fprintf(out, "\n%d skills, about %.1f hours (%.1f days at %.0fh/day)\n",
			len(path.Steps), path.EstimatedHours, path.EstimatedDays, skillgraph.HoursPerDay)
		return nil
	}),
}

var skillNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Rank the skills a student should work on next",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		student, err := studentFlag(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		levels, err := e.mastery.Levels(ctx, student)
		if err != nil {
			return err
		}
		last, err := e.mastery.LastAssessed(ctx, student)
		if err != nil {
			return err
		}
		recs := e.graph.RecommendNext(levels, last, time.Now(), limit)

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "Nothing to recommend: every available skill is mastered.")
			return nil
		}
		fmt.Fprintf(out, "%-28s  %-12s  %7s  %8s\n", "Skill", "Level", "Unlocks", "Priority")
		fmt.Fprintln(out, strings.Repeat("─", 62))
		for _, r := range recs {
			style := theme.Level(r.Level, skillgraph.UnlockThreshold, skillgraph.MaxLevel)
			fmt.Fprintf(out, "%-28s  %s  %7d  %8.2f\n",
				r.Skill.ID, style.Render(fmt.Sprintf("%-12s", mastery.LevelName(r.Level))),
				r.Unlocks, r.Priority)
		}
		return nil
	}),
}

var skillImportCmd = &cobra.Command{
	Use:   "import <catalog.json|->",
	Short: "Replace the stored skill catalog",
	Long: "Replace the stored skill catalog with a JSON catalog file. The whole\n" +
		"catalog is validated (schema, dangling prerequisites, cycles) before\n" +
		"anything is written.",
	Args: cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		var skills []skillgraph.Skill
		err := readFrom(cmd, args, func(r io.Reader) (err error) {
			skills, err = skillgraph.ParseCatalog(r)
			return err
		})
		if err != nil {
			return err
		}
		if err := e.store.Skills().Replace(cmd.Context(), skills); err != nil {
			return err
		}
		e.log.Info("skill catalog imported", "file", args[0], "skills", len(skills))
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d skills.\n", len(skills))
		return nil
	}),
}

var skillExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the stored skill catalog as JSON (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		return writeTo(cmd, args, func(w io.Writer) error {
			return skillgraph.WriteCatalog(w, e.graph.Skills())
		})
	}),
}

func init() {
	skillListCmd.Flags().String("category", "", "Filter by category (e.g. Physics)")
	skillListCmd.Flags().String("topic", "", "Filter by topic (e.g. organic_chemistry)")
	skillPathCmd.Flags().String("student", "", "Student ID")
	skillNextCmd.Flags().String("student", "", "Student ID")
	skillNextCmd.Flags().Int("limit", 5, "Maximum number of skills to show")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillPathCmd)
	skillCmd.AddCommand(skillNextCmd)
	skillCmd.AddCommand(skillImportCmd)
	skillCmd.AddCommand(skillExportCmd)
}
