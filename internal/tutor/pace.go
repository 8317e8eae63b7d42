package tutor

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/reward"
)

// Pace derivation reads this many of the student's latest attempts and
// needs at least MinPaceSamples timed ones.
const (
	PaceWindow     = 20
	MinPaceSamples = 5
)

// PaceProfile summarizes how fast a student answers relative to the
// expected time for each question's difficulty.
type PaceProfile struct {
	// Speed is the mean of expected over actual time. 1 is on baseline,
	// above 1 is faster.
	Speed    float64
	Category string // very_slow, slow, normal, fast or very_fast
	Pace     Pace
	Samples  int
	Accuracy float64 // percent correct over the samples
	// Adjustment is +1 when harder content is due, -1 when easier content
	// is due and 0 otherwise.
	Adjustment int
}

// ProfilePace derives a pace profile from attempts. Untimed attempts are
// skipped; fewer than MinPaceSamples timed ones give a normal profile.
func ProfilePace(attempts []Attempt) PaceProfile {
	var (
		speed   float64
		n       int
		correct int
	)
	for _, a := range attempts {
		if a.TimeSpent <= 0 {
			continue
		}
		speed += reward.ExpectedSeconds(float64(a.Difficulty)) / a.TimeSpent
		n++
		if a.Correct {
			correct++
		}
	}
	p := PaceProfile{Speed: 1, Category: "normal", Pace: PaceNormal, Samples: n}
	if n < MinPaceSamples {
		return p
	}
	p.Speed = speed / float64(n)
	p.Accuracy = float64(correct) / float64(n) * 100

	switch {
	case p.Speed >= 1.5:
		p.Category, p.Pace = "very_fast", PaceFast
	case p.Speed >= 1.2:
		p.Category, p.Pace = "fast", PaceFast
	case p.Speed >= 0.8:
		p.Category, p.Pace = "normal", PaceNormal
	case p.Speed >= 0.6:
		p.Category, p.Pace = "slow", PaceSlow
	default:
		p.Category, p.Pace = "very_slow", PaceSlow
	}
	switch {
	case p.Speed > 1.3 && p.Accuracy > 80:
		p.Adjustment = 1
	case p.Speed < 0.7 || p.Accuracy < 50:
		p.Adjustment = -1
	}
	return p
}

// LearningPace profiles the student's latest attempts.
func (s *Service) LearningPace(ctx context.Context, studentID string) (PaceProfile, error) {
	rows, err := s.attempts.Recent(ctx, studentID, PaceWindow)
	if err != nil {
		return PaceProfile{}, fmt.Errorf("recent attempts for %s: %w", studentID, err)
	}
	return ProfilePace(rows), nil
}
