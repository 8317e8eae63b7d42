// Package qlearn implements the tabular Q-learning agent that picks the next
// practice item: state discretization, action projection, epsilon-greedy
// selection and the one-step TD update.
package qlearn

import (
	"fmt"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// Bin thresholds. Proficiency and accuracy share the same cut points.
const (
	lowCut  = 0.4
	highCut = 0.7

	easyDifficulty   = 4.0
	mediumDifficulty = 7.0

	binsPerField = 3
	numFields    = knowledge.NumTopics + 2
)

// NumStates is the number of distinct state buckets.
var NumStates = func() int64 {
	n := int64(1)
	for i := 0; i < numFields; i++ {
		n *= binsPerField
	}
	return n
}()

// Discretize maps a knowledge state onto a bucket in [0, NumStates). Fields
// are read in canonical order (topics, then accuracy, then preferred
// difficulty) and combined as base-3 digits, most significant first.
func Discretize(s knowledge.State) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	var bucket int64
	for _, p := range s.Proficiency {
		bucket = bucket*binsPerField + int64(scoreBin(p))
	}
	bucket = bucket*binsPerField + int64(scoreBin(s.AccuracyRate))
	bucket = bucket*binsPerField + int64(difficultyBin(s.PreferredDifficulty))
	return bucket, nil
}

// Bins decodes a bucket back into its per-field bin indices.
func Bins(bucket int64) ([]int, error) {
	if err := validBucket(bucket); err != nil {
		return nil, err
	}
	out := make([]int, numFields)
	for i := numFields - 1; i >= 0; i-- {
		out[i] = int(bucket % binsPerField)
		bucket /= binsPerField
	}
	return out, nil
}

func scoreBin(v float64) int {
	switch {
	case v < lowCut:
		return 0
	case v < highCut:
		return 1
	default:
		return 2
	}
}

func difficultyBin(d float64) int {
	switch {
	case d <= easyDifficulty:
		return 0
	case d <= mediumDifficulty:
		return 1
	default:
		return 2
	}
}

func validBucket(b int64) error {
	if b < 0 || b >= NumStates {
		return fmt.Errorf("%w: bucket %d outside [0, %d)", ErrInvalidState, b, NumStates)
	}
	return nil
}
