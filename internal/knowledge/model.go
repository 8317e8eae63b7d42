// Package knowledge estimates a student's per-topic proficiency from their
// recent attempt history.
package knowledge

import (
	"context"
	"fmt"
)

// DefaultWindow is how many recent attempts feed the estimate.
const DefaultWindow = 50

// Observation is one graded attempt as seen by the estimator.
type Observation struct {
	Topic   Topic
	Correct bool
}

// AttemptSource reads a student's most recent attempts, newest first.
type AttemptSource interface {
	RecentObservations(ctx context.Context, studentID string, limit int) ([]Observation, error)
}

// Model computes knowledge states from an attempt source.
type Model struct {
	source AttemptSource
	window int
}

// NewModel creates a model reading at most window attempts per student.
// A non-positive window selects DefaultWindow.
func NewModel(source AttemptSource, window int) *Model {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Model{source: source, window: window}
}

// Window returns the number of attempts considered.
func (m *Model) Window() int {
	return m.window
}

// Compute returns the student's current state. Unknown students get the
// neutral state.
func (m *Model) Compute(ctx context.Context, studentID string) (State, error) {
	obs, err := m.source.RecentObservations(ctx, studentID, m.window)
	if err != nil {
		return State{}, fmt.Errorf("load attempts for %s: %w", studentID, err)
	}
	if len(obs) > m.window {
		obs = obs[:m.window]
	}
	return FromObservations(obs), nil
}

// After returns the state the student would have once obs is recorded, so
// callers can capture a post-attempt state before persisting the attempt.
func (m *Model) After(ctx context.Context, studentID string, obs Observation) (State, error) {
	prev, err := m.source.RecentObservations(ctx, studentID, m.window-1)
	if err != nil {
		return State{}, fmt.Errorf("load attempts for %s: %w", studentID, err)
	}
	if len(prev) > m.window-1 {
		prev = prev[:m.window-1]
	}
	all := make([]Observation, 0, len(prev)+1)
	all = append(all, obs)
	all = append(all, prev...)
	return FromObservations(all), nil
}

// FromObservations is the pure estimator behind Compute. Observations on
// non-canonical topics count toward accuracy only.
func FromObservations(obs []Observation) State {
	s := NeutralState()
	if len(obs) == 0 {
		return s
	}

	var correct, total [NumTopics]int
	var allCorrect int
	for _, o := range obs {
		if o.Correct {
			allCorrect++
		}
		i := o.Topic.Index()
		if i < 0 {
			continue
		}
		total[i]++
		if o.Correct {
			correct[i]++
		}
	}

	for i := range s.Proficiency {
		if total[i] > 0 {
			s.Proficiency[i] = clamp01(float64(correct[i]) / float64(total[i]))
		}
	}
	s.AccuracyRate = clamp01(float64(allCorrect) / float64(len(obs)))
	s.PreferredDifficulty = MinDifficulty + (MaxDifficulty-MinDifficulty)*s.AccuracyRate
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
