// Package reward scores a single attempt for the Q-learning update.
package reward

import "math"

const (
	MinDifficulty = 1
	MaxDifficulty = 10

	// Min and Max bound every reward.
	Min = -1.0
	Max = 1.0
)

// Term weights. They sum to one so the unclipped reward already lands in
// [Min, Max] for in-range inputs.
const (
	WeightCorrectness = 0.75
	WeightTime        = 0.15
	WeightChallenge   = 0.10
)

// Input describes one graded attempt.
type Input struct {
	Correct bool
	// TimeSpent is the response time in seconds.
	TimeSpent float64
	// Difficulty is the item difficulty on the 1..10 scale.
	Difficulty float64
	// StudentLevel is the student's proficiency on the item's topic in [0,1].
	StudentLevel float64
}

// Breakdown exposes the individual terms of a reward.
type Breakdown struct {
	Correctness float64
	Time        float64
	Challenge   float64
	Total       float64
}

// Compute returns the clipped reward for in.
func Compute(in Input) float64 {
	return Explain(in).Total
}

// Explain returns the reward together with its terms.
func Explain(in Input) Breakdown {
	d := clamp(orDefault(in.Difficulty, 5), MinDifficulty, MaxDifficulty)
	b := Breakdown{
		Correctness: correctnessTerm(in.Correct, d),
		Time:        TimeEfficiency(in.TimeSpent, d),
		Challenge:   challengeTerm(d, in.StudentLevel),
	}
	total := WeightCorrectness*b.Correctness + WeightTime*b.Time + WeightChallenge*b.Challenge
	b.Total = clamp(total, Min, Max)
	return b
}

// ExpectedSeconds is the baseline response time for a difficulty.
func ExpectedSeconds(difficulty float64) float64 {
	return 20 + 10*clamp(difficulty, MinDifficulty, MaxDifficulty)
}

// TimeEfficiency is +1 for an instant answer, 0 at the expected time and
// falls to -1 at twice the expected time. Non-finite or negative times
// score 0.
func TimeEfficiency(seconds, difficulty float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	expected := ExpectedSeconds(difficulty)
	return clamp((expected-seconds)/expected, -1, 1)
}

// correctnessTerm grows with difficulty for correct answers and shrinks in
// magnitude with difficulty for wrong ones: missing an easy item costs more.
func correctnessTerm(correct bool, d float64) float64 {
	n := (d - MinDifficulty) / (MaxDifficulty - MinDifficulty)
	if correct {
		return 0.5 + 0.5*n
	}
	return -(1 - 0.5*n)
}

// challengeTerm peaks when the difficulty matches the student's level
// mapped onto the difficulty scale.
func challengeTerm(d, level float64) float64 {
	level = clamp(orDefault(level, 0.5), 0, 1)
	target := MinDifficulty + (MaxDifficulty-MinDifficulty)*level
	return clamp(1-math.Abs(d-target)/4.5, -1, 1)
}

func orDefault(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
