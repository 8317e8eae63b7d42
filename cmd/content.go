package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/tutor"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage the question bank",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored questions",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		q, err := contentQuery(cmd)
		if err != nil {
			return err
		}
		items, err := e.store.Content().ListContent(cmd.Context(), q)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%6s  %-22s  %4s  %-11s  %-24s  %s\n",
			"ID", "Topic", "Diff", "Format", "Skill", "Prompt")
		fmt.Fprintln(out, strings.Repeat("─", 110))
		for _, it := range items {
			fmt.Fprintf(out, "%6d  %-22s  %4d  %-11s  %-24s  %s\n",
				it.ID, it.Topic.DisplayName(), it.Difficulty, it.Format, it.SkillID, truncate(it.Prompt, 32))
		}
		fmt.Fprintf(out, "\n%d questions\n", len(items))
		return nil
	}),
}

var contentImportCmd = &cobra.Command{
	Use:   "import <bank.json|->",
	Short: "Add or replace questions from a JSON question bank",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		var items []tutor.ContentInfo
		err := readFrom(cmd, args, func(r io.Reader) (err error) {
			items, err = content.Parse(r)
			return err
		})
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.SkillID != "" && !e.graph.Has(it.SkillID) {
				return fmt.Errorf("question %d: unknown skill %q", it.ID, it.SkillID)
			}
		}
		if err := e.store.Content().Upsert(cmd.Context(), items); err != nil {
			return err
		}
		e.log.Info("question bank imported", "items", len(items))
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions.\n", len(items))
		return nil
	}),
}

var contentExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write stored questions as a JSON question bank (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		q, err := contentQuery(cmd)
		if err != nil {
			return err
		}
		items, err := e.store.Content().ListContent(cmd.Context(), q)
		if err != nil {
			return err
		}
		return writeTo(cmd, args, func(w io.Writer) error {
			return content.Write(w, items)
		})
	}),
}

var contentSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate placeholder questions for every skill",
	Long: "Generate placeholder questions for every skill in the catalog, with\n" +
		"difficulty spread across the skill's tier. Re-running with the same\n" +
		"--first-id replaces the earlier questions.",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		perSkill, _ := cmd.Flags().GetInt("per-skill")
		firstID, _ := cmd.Flags().GetInt64("first-id")
		if perSkill < 1 {
			return fmt.Errorf("--per-skill must be at least 1")
		}
		if firstID < 1 {
			return fmt.Errorf("--first-id must be at least 1")
		}
		items := content.Generate(e.graph, perSkill, firstID)
		if err := e.store.Content().Upsert(cmd.Context(), items); err != nil {
			return err
		}
		e.log.Info("question bank seeded", "items", len(items), "first_id", firstID)
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d questions (ids %d-%d).\n",
			len(items), firstID, firstID+int64(len(items))-1)
		return nil
	}),
}

func contentQuery(cmd *cobra.Command) (tutor.ContentQuery, error) {
	skills, _ := cmd.Flags().GetStringSlice("skill")
	topics, _ := cmd.Flags().GetStringSlice("topic")
	limit, _ := cmd.Flags().GetInt("limit")
	q := tutor.ContentQuery{SkillIDs: skills, Limit: limit}
	for _, s := range topics {
		t, err := knowledge.ParseTopic(s)
		if err != nil {
			return tutor.ContentQuery{}, err
		}
		q.Topics = append(q.Topics, t)
	}
	return q, nil
}

func init() {
	for _, c := range []*cobra.Command{contentListCmd, contentExportCmd} {
		c.Flags().StringSlice("skill", nil, "Only questions for these skills")
		c.Flags().StringSlice("topic", nil, "Only questions on these topics")
		c.Flags().Int("limit", 0, "Maximum number of questions (0 = all)")
	}
	contentSeedCmd.Flags().Int("per-skill", 5, "Questions to generate per skill")
	contentSeedCmd.Flags().Int64("first-id", 1, "ID of the first generated question")

	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentImportCmd)
	contentCmd.AddCommand(contentExportCmd)
	contentCmd.AddCommand(contentSeedCmd)
}
