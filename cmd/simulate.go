package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// simStudent is a synthetic learner whose chance of answering correctly
// falls with question difficulty and rises with practice.
type simStudent struct {
	ID      string
	Ability float64 // difficulty at which the student is right half the time
	rng     *rand.Rand
}

func (s *simStudent) answer(info tutor.ContentInfo, practiced int) (correct bool, secs float64) {
	skill := s.Ability + 0.05*float64(practiced)
	p := 1 / (1 + math.Exp(float64(info.Difficulty)-skill))
	correct = s.rng.Float64() < p
	secs = float64(info.Difficulty)*12 + s.rng.NormFloat64()*10
	return correct, max(secs, 5)
}

type simResult struct {
	Student   string
	Ability   float64
	Answered  int
	Correct   int
	Reward    float64
	Degraded  int
	Unlocks   int
	NoContent bool
}

func simulateStudent(ctx context.Context, t *tutor.Service, s *simStudent, questions int, opts tutor.RecommendOptions) (simResult, error) {
	res := simResult{Student: s.ID, Ability: s.Ability}
	for i := 0; i < questions; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rec, err := t.NextQuestion(ctx, s.ID, nil, opts)
		if err != nil {
			return res, err
		}
		if rec.ContentID == 0 {
			res.NoContent = true
			return res, nil
		}
		if rec.Outcome == tutor.Degraded {
			res.Degraded++
		}
		info, err := t.Content(ctx, rec.ContentID)
		if err != nil {
			return res, err
		}
		correct, secs := s.answer(info, i)
		answer := info.CorrectAnswer
		if !correct {
			answer = "?"
		}
		out, err := t.SubmitAnswer(ctx, tutor.Submission{
			StudentID: s.ID,
			ContentID: info.ID,
			Answer:    answer,
			TimeSpent: secs,
		})
		if err != nil {
			return res, fmt.Errorf("%s question %d: %w", s.ID, info.ID, err)
		}
		res.Answered++
		res.Reward += out.Reward.Total
		if out.Correct {
			res.Correct++
		}
		if out.Mastery != nil {
			if tr := out.Mastery.Transition(); tr != nil && tr.Unlocked {
				res.Unlocks++
			}
		}
	}
	return res, nil
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Train the agent on synthetic students",
	Long: "Run synthetic students through the full recommend/answer cycle. Each\n" +
		"student has a random ability; answers are right with a probability that\n" +
		"falls with difficulty. Useful for warming up a fresh Q-table.",
	RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
		flags := cmd.Flags()
		students, _ := flags.GetInt("students")
		questions, _ := flags.GetInt("questions")
		workers, _ := flags.GetInt("workers")
		seed, _ := flags.GetUint64("seed")
		if students < 1 || questions < 1 {
			return fmt.Errorf("--students and --questions must be positive")
		}
		opts, err := recommendOptions(cmd)
		if err != nil {
			return err
		}
		if seed == 0 {
			seed = rand.Uint64()
		}

		run := strings.SplitN(uuid.NewString(), "-", 2)[0]
		e.log.Info("simulation started", "run", run, "students", students, "questions", questions, "seed", seed)

		var (
			mu      sync.Mutex
			results []simResult
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(workers, 1))
		for i := 0; i < students; i++ {
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			s := &simStudent{
				ID:      fmt.Sprintf("sim-%s-%03d", run, i+1),
				Ability: knowledge.MinDifficulty + rng.Float64()*(knowledge.MaxDifficulty-knowledge.MinDifficulty),
				rng:     rng,
			}
			g.Go(func() error {
				r, err := simulateStudent(ctx, e.tutor, s, questions, opts)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		sort.Slice(results, func(i, j int) bool { return results[i].Student < results[j].Student })
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-20s  %7s  %8s  %8s  %8s  %7s\n", "Student", "Ability", "Answered", "Accuracy", "Reward", "Unlocks")
		fmt.Fprintln(out, strings.Repeat("─", 68))
		var answered, correct, degraded int
		for _, r := range results {
			fmt.Fprintf(out, "%-20s  %7.1f  %8d  %7.0f%%  %+8.2f  %7d\n",
				r.Student, r.Ability, r.Answered, ratio(r.Correct, r.Answered)*100, r.Reward, r.Unlocks)
			answered += r.Answered
			correct += r.Correct
			degraded += r.Degraded
		}

		st, err := e.agent.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d answers, %.0f%% correct, %d degraded picks\n",
			answered, ratio(correct, answered)*100, degraded)
		fmt.Fprintf(out, "Q-table: %d cells over %d states, mean %.4f\n", st.Cells, st.States, st.Mean)
		e.log.Info("simulation finished", "run", run, "answers", answered, "cells", st.Cells)
		return nil
	}),
}

func init() {
	simulateCmd.Flags().Int("students", 10, "Number of synthetic students")
	simulateCmd.Flags().Int("questions", 30, "Questions per student")
	simulateCmd.Flags().Int("workers", 4, "Students simulated concurrently")
	simulateCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	addRecommendFlags(simulateCmd)
}
