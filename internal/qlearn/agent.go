package qlearn

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultConfidence is reported when there is no runner-up to compare with.
const DefaultConfidence = 0.5

// Config holds the agent's learning constants.
type Config struct {
	LearningRate float64
	Discount     float64
	Exploration  float64
	Projection   Projection
}

// DefaultConfig returns α=0.1, γ=0.9, ε=0.1 over 20 modulo slots.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.1,
		Discount:     0.9,
		Exploration:  0.1,
		Projection:   ModuloProjection{Slots: DefaultActions},
	}
}

func (c Config) validate() error {
	if math.IsNaN(c.LearningRate) || c.LearningRate < 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in [0, 1], got %v", c.LearningRate)
	}
	if math.IsNaN(c.Discount) || c.Discount < 0 || c.Discount >= 1 {
		return fmt.Errorf("discount must be in [0, 1), got %v", c.Discount)
	}
	if math.IsNaN(c.Exploration) || c.Exploration < 0 || c.Exploration > 1 {
		return fmt.Errorf("exploration must be in [0, 1], got %v", c.Exploration)
	}
	if c.Projection == nil || c.Projection.Size() <= 0 {
		return fmt.Errorf("projection must have at least one slot")
	}
	return nil
}

// Candidate is a content item eligible for selection. Bonus is added to its
// Q-value before comparison.
type Candidate struct {
	ContentID int64
	Bonus     float64
}

// Candidates wraps plain content ids.
func Candidates(ids ...int64) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{ContentID: id}
	}
	return out
}

// Selection is the agent's choice.
type Selection struct {
	ContentID  int64
	Action     int
	Value      float64
	Confidence float64
	Explored   bool
}

// Stats summarizes the table.
type Stats struct {
	Updates int64
	Cells   int
	States  int
	Mean    float64
	Min     float64
	Max     float64
}

// Agent is an epsilon-greedy tabular learner over a Table.
type Agent struct {
	table Table
	cfg   Config

	rngMu sync.Mutex
	rng   *rand.Rand

	updates atomic.Int64
}

// Option configures an Agent.
type Option func(*Agent)

// WithRand sets the random source used for exploration.
func WithRand(r *rand.Rand) Option {
	return func(a *Agent) { a.rng = r }
}

// NewAgent creates an agent owning table. Close releases the table.
func NewAgent(table Table, cfg Config, opts ...Option) (*Agent, error) {
	if table == nil {
		return nil, fmt.Errorf("agent needs a table")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Agent{table: table, cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.rng == nil {
		seed := uint64(time.Now().UnixNano())
		a.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return a, nil
}

// Config returns the agent's configuration.
func (a *Agent) Config() Config {
	return a.cfg
}

// Action projects a content id onto the action space.
func (a *Agent) Action(contentID int64) (int, error) {
	return a.cfg.Projection.Action(contentID)
}

// SelectAction picks among candidates for the given state. With probability
// exploration it picks uniformly at random; otherwise it takes the highest
// Q-value plus bonus, breaking ties by the lowest content id.
func (a *Agent) SelectAction(ctx context.Context, state int64, candidates []Candidate, exploration float64) (Selection, error) {
	if err := validBucket(state); err != nil {
		return Selection{}, err
	}
	cands := dedupe(candidates)
	if len(cands) == 0 {
		return Selection{}, ErrNoCandidates
	}

	actions := make([]int, len(cands))
	values := make([]float64, len(cands))
	for i, c := range cands {
		act, err := a.cfg.Projection.Action(c.ContentID)
		if err != nil {
			return Selection{}, err
		}
		q, err := a.table.Get(ctx, state, act)
		if err != nil {
			return Selection{}, fmt.Errorf("read Q(%d, %d): %w", state, act, err)
		}
		actions[i] = act
		values[i] = q + c.Bonus
	}

	chosen := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[chosen] {
			chosen = i
		}
	}

	explored := false
	if exploration = clampUnit(exploration); exploration > 0 && a.randFloat() < exploration {
		chosen = a.randIntN(len(cands))
		explored = true
	}

	return Selection{
		ContentID:  cands[chosen].ContentID,
		Action:     actions[chosen],
		Value:      values[chosen],
		Confidence: confidence(values, chosen),
		Explored:   explored,
	}, nil
}

// Update applies Q ← Q + α(r + γ·max Q(next, ·) − Q) and returns the new value.
func (a *Agent) Update(ctx context.Context, state int64, action int, reward float64, next int64) (float64, error) {
	if err := validBucket(state); err != nil {
		return 0, err
	}
	if err := validBucket(next); err != nil {
		return 0, err
	}
	if action < 0 || action >= a.cfg.Projection.Size() {
		return 0, fmt.Errorf("%w: action %d outside [0, %d)", ErrActionOverflow, action, a.cfg.Projection.Size())
	}
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidReward, reward)
	}

	v, err := a.table.Update(ctx, TDUpdate{
		State:   state,
		Action:  action,
		Reward:  reward,
		Next:    next,
		Alpha:   a.cfg.LearningRate,
		Gamma:   a.cfg.Discount,
		Actions: a.cfg.Projection.Size(),
	})
	if err != nil {
		return 0, fmt.Errorf("update Q(%d, %d): %w", state, action, err)
	}
	a.updates.Add(1)
	return v, nil
}

// Value reads a single Q-value.
func (a *Agent) Value(ctx context.Context, state int64, action int) (float64, error) {
	return a.table.Get(ctx, state, action)
}

// Stats summarizes the stored values.
func (a *Agent) Stats(ctx context.Context) (Stats, error) {
	entries, err := a.table.Entries(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Updates: a.updates.Load(), Cells: len(entries)}
	if len(entries) == 0 {
		return st, nil
	}
	states := make(map[int64]struct{})
	st.Min, st.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, e := range entries {
		states[e.State] = struct{}{}
		sum += e.Value
		st.Min = math.Min(st.Min, e.Value)
		st.Max = math.Max(st.Max, e.Value)
	}
	st.States = len(states)
	st.Mean = sum / float64(len(entries))
	return st, nil
}

// Close releases the table.
func (a *Agent) Close() error {
	return a.table.Close()
}

// confidence squashes the margin between the chosen value and the best other
// value into [0, 1].
func confidence(values []float64, chosen int) float64 {
	if len(values) < 2 {
		return DefaultConfidence
	}
	best := math.Inf(-1)
	for i, v := range values {
		if i != chosen && v > best {
			best = v
		}
	}
	return (1 + math.Tanh(values[chosen]-best)) / 2
}

// dedupe drops repeated content ids and orders candidates by id so ties
// resolve to the lowest id.
func dedupe(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	seen := make(map[int64]bool, len(cands))
	for _, c := range cands {
		if seen[c.ContentID] {
			continue
		}
		seen[c.ContentID] = true
		out = append(out, c)
	}
	slices.SortFunc(out, func(x, y Candidate) int { return cmp.Compare(x.ContentID, y.ContentID) })
	return out
}

func (a *Agent) randFloat() float64 {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Float64()
}

func (a *Agent) randIntN(n int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.IntN(n)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
