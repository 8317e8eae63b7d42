package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

var qtableCmd = &cobra.Command{
	Use:   "qtable",
	Short: "Inspect and move the learned Q-table",
}

var qtableStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored Q-values",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		st, err := e.agent.Stats(cmd.Context())
		if err != nil {
			return err
		}
		cfg := e.agent.Config()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend:       %s\n", e.cfg.QTable.Backend)
		fmt.Fprintf(out, "actions:       %d (%s projection)\n", cfg.Projection.Size(), e.cfg.Agent.Projection)
		fmt.Fprintf(out, "states:        %d of %d\n", st.States, qlearn.NumStates)
		fmt.Fprintf(out, "cells:         %d\n", st.Cells)
		fmt.Fprintf(out, "updates:       %d\n", st.Updates)
		if st.Cells > 0 {
			fmt.Fprintf(out, "values:        mean %.4f, min %.4f, max %.4f\n", st.Mean, st.Min, st.Max)
		}
		fmt.Fprintf(out, "learning rate: %.3f\n", cfg.LearningRate)
		fmt.Fprintf(out, "discount:      %.3f\n", cfg.Discount)
		fmt.Fprintf(out, "exploration:   %.3f\n", cfg.Exploration)
		return nil
	}),
}

var qtableExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the Q-table as a versioned JSON snapshot (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		snap, err := e.agent.Export(cmd.Context())
		if err != nil {
			return err
		}
		return writeTo(cmd, args, func(w io.Writer) error {
			return qlearn.WriteSnapshot(w, snap)
		})
	}),
}

var qtableImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Load a JSON snapshot into the Q-table",
	Args:  cobra.ExactArgs(1),
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		var snap *qlearn.Snapshot
		err := readFrom(cmd, args, func(r io.Reader) (err error) {
			snap, err = qlearn.ReadSnapshot(r)
			return err
		})
		if err != nil {
			return err
		}
		if err := e.agent.Import(cmd.Context(), snap); err != nil {
			return err
		}
		e.dirty = true
		e.log.Info("q-table snapshot imported", "version", snap.Version, "cells", len(snap.Entries))
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cells (snapshot %s).\n", len(snap.Entries), snap.Version)
		return nil
	}),
}

// clearer is implemented by the persistent Q-table backends.
type clearer interface {
	Clear(ctx context.Context) error
}

var qtableResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget everything the agent has learned",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to reset without --yes")
		}
		ctx := cmd.Context()
		if c, ok := e.table.(clearer); ok {
			if err := c.Clear(ctx); err != nil {
				return err
			}
		} else {
			// The memory backend only lives in snapshots.
			if err := e.store.Snapshots().Prune(ctx, 0); err != nil {
				return err
			}
			st, err := e.agent.Stats(ctx)
			if err != nil {
				return err
			}
			e.restoredUpdates = st.Updates
		}
		e.log.Info("q-table reset", "backend", e.cfg.QTable.Backend)
		fmt.Fprintln(cmd.OutOrStdout(), "Q-table cleared.")
		return nil
	}),
}

func init() {
	qtableResetCmd.Flags().Bool("yes", false, "Confirm the reset")

	qtableCmd.AddCommand(qtableStatsCmd)
	qtableCmd.AddCommand(qtableExportCmd)
	qtableCmd.AddCommand(qtableImportCmd)
	qtableCmd.AddCommand(qtableResetCmd)
}
