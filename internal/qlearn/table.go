package qlearn

import (
	"context"
	"math"
)

// Entry is one stored Q-value.
type Entry struct {
	State  int64   `json:"state"`
	Action int     `json:"action"`
	Value  float64 `json:"value"`
}

// TDUpdate carries one temporal-difference update to a Table.
type TDUpdate struct {
	State  int64
	Action int
	Reward float64
	Next   int64

	Alpha   float64
	Gamma   float64
	Actions int
}

// Table stores Q-values. Implementations must serialize the read-modify-write
// of Update per (state, action) cell so concurrent updates are not lost.
// Cells that were never written read as 0.
type Table interface {
	Get(ctx context.Context, state int64, action int) (float64, error)
	Update(ctx context.Context, u TDUpdate) (float64, error)
	Entries(ctx context.Context) ([]Entry, error)
	Load(ctx context.Context, entries []Entry) error
	Close() error
}

// Apply computes the new value for the updated cell given its old value and
// the stored values of the next state's row.
func (u TDUpdate) Apply(old float64, nextRow []float64) float64 {
	return old + u.Alpha*(u.Reward+u.Gamma*MaxValue(nextRow, u.Actions)-old)
}

// MaxValue is max over all actions of a row given only its stored cells.
// When fewer than actions cells are stored the implicit zeros take part.
func MaxValue(stored []float64, actions int) float64 {
	best := math.Inf(-1)
	for _, v := range stored {
		if v > best {
			best = v
		}
	}
	if len(stored) < actions || len(stored) == 0 {
		best = math.Max(best, 0)
	}
	return best
}
