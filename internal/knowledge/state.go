package knowledge

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// NeutralProficiency is reported for topics with no evidence.
	NeutralProficiency = 0.5

	// NeutralAccuracy is reported when the student has no attempts.
	NeutralAccuracy = 0.5

	DefaultDifficulty = 5.0
	MinDifficulty     = 1.0
	MaxDifficulty     = 10.0
)

// Snapshot keys for the two aggregate fields. Topic fields use the topic key.
const (
	KeyAccuracyRate        = "accuracy_rate"
	KeyPreferredDifficulty = "preferred_difficulty"
)

// ErrMalformedState is returned when a state snapshot is missing fields,
// carries unknown fields, or holds out-of-range values.
var ErrMalformedState = errors.New("malformed knowledge state")

// State is a student's estimated knowledge: one proficiency per canonical
// topic, an aggregate accuracy and a preferred difficulty.
type State struct {
	Proficiency         [NumTopics]float64
	AccuracyRate        float64
	PreferredDifficulty float64
}

// NeutralState is the state of a student with no attempts.
func NeutralState() State {
	var s State
	for i := range s.Proficiency {
		s.Proficiency[i] = NeutralProficiency
	}
	s.AccuracyRate = NeutralAccuracy
	s.PreferredDifficulty = DefaultDifficulty
	return s
}

// Of returns the proficiency for t (NeutralProficiency for unknown topics).
func (s State) Of(t Topic) float64 {
	i := t.Index()
	if i < 0 {
		return NeutralProficiency
	}
	return s.Proficiency[i]
}

// With returns a copy of s with t's proficiency replaced.
func (s State) With(t Topic, p float64) State {
	if i := t.Index(); i >= 0 {
		s.Proficiency[i] = p
	}
	return s
}

// MeanProficiency averages the topic proficiencies.
func (s State) MeanProficiency() float64 {
	var sum float64
	for _, p := range s.Proficiency {
		sum += p
	}
	return sum / NumTopics
}

// Validate checks every field is finite and within range.
func (s State) Validate() error {
	for i, p := range s.Proficiency {
		if !finite(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: %s = %v", ErrMalformedState, topics[i], p)
		}
	}
	if !finite(s.AccuracyRate) || s.AccuracyRate < 0 || s.AccuracyRate > 1 {
		return fmt.Errorf("%w: %s = %v", ErrMalformedState, KeyAccuracyRate, s.AccuracyRate)
	}
	if !finite(s.PreferredDifficulty) || s.PreferredDifficulty < MinDifficulty || s.PreferredDifficulty > MaxDifficulty {
		return fmt.Errorf("%w: %s = %v", ErrMalformedState, KeyPreferredDifficulty, s.PreferredDifficulty)
	}
	return nil
}

// Map flattens the state into its snapshot form.
func (s State) Map() map[string]float64 {
	m := make(map[string]float64, NumTopics+2)
	for i, t := range topics {
		m[string(t)] = s.Proficiency[i]
	}
	m[KeyAccuracyRate] = s.AccuracyRate
	m[KeyPreferredDifficulty] = s.PreferredDifficulty
	return m
}

// NewState builds a State from its snapshot form. The key set must be
// exactly the canonical topics plus the two aggregate keys.
func NewState(m map[string]float64) (State, error) {
	var s State
	var missing, unknown []string

	for i, t := range topics {
		v, ok := m[string(t)]
		if !ok {
			missing = append(missing, string(t))
			continue
		}
		s.Proficiency[i] = v
	}
	if v, ok := m[KeyAccuracyRate]; ok {
		s.AccuracyRate = v
	} else {
		missing = append(missing, KeyAccuracyRate)
	}
	if v, ok := m[KeyPreferredDifficulty]; ok {
		s.PreferredDifficulty = v
	} else {
		missing = append(missing, KeyPreferredDifficulty)
	}
	for k := range m {
		if k == KeyAccuracyRate || k == KeyPreferredDifficulty || Topic(k).Valid() {
			continue
		}
		unknown = append(unknown, k)
	}

	if len(missing) > 0 {
		return State{}, fmt.Errorf("%w: missing %s", ErrMalformedState, strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return State{}, fmt.Errorf("%w: unknown %s", ErrMalformedState, strings.Join(unknown, ", "))
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
