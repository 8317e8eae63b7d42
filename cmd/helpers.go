package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// studentFlag returns the required --student flag.
func studentFlag(cmd *cobra.Command) (string, error) {
	s, _ := cmd.Flags().GetString("student")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("--student is required")
	}
	return s, nil
}

// writeTo runs write against the file named by args[0], or stdout when no
// file is given.
func writeTo(cmd *cobra.Command, args []string, write func(io.Writer) error) error {
	if len(args) == 0 || args[0] == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readFrom runs read against the file named by args[0], or stdin for "-".
func readFrom(cmd *cobra.Command, args []string, read func(io.Reader) error) error {
	if len(args) == 0 || args[0] == "-" {
		return read(cmd.InOrStdin())
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return read(f)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func joinIDs(skills []skillgraph.Skill) string {
	if len(skills) == 0 {
		return "-"
	}
	ids := make([]string, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	return strings.Join(ids, ", ")
}
