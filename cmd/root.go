package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adaptiq",
	Short: "Adaptive practice-question engine",
	Long: "adaptiq tracks per-topic proficiency, gates skills behind prerequisites and\n" +
		"picks the next practice question with a tabular Q-learning agent.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (overrides ADAPTIQ_CONFIG env var)")
	pf.String("db", "", "Database DSN or SQLite file (overrides ADAPTIQ_DB env var)")
	pf.String("driver", "", "Store driver: sqlite or postgres")
	pf.String("qtable", "", "Q-table backend: memory, sql or redis")
	pf.String("log", "", "Log mode: dev, production or quiet")
	pf.Bool("trace", false, "Print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(placementCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(paceCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(peersCmd)
	rootCmd.AddCommand(qtableCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
