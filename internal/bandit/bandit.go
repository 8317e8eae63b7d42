// Package bandit learns which content format works best for each student
// with an epsilon-greedy multi-armed bandit. Every distinct format is an arm.
package bandit

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// InitialValue is the estimate of an arm that was never pulled.
const InitialValue = 0.5

// DefaultEpsilon is the exploration rate when none is configured.
const DefaultEpsilon = 0.1

// Arm is one format's running reward tally for a student.
type Arm struct {
	Format      string
	Pulls       int
	TotalReward float64
}

// Value is the mean reward, or InitialValue before the first pull.
func (a Arm) Value() float64 {
	if a.Pulls == 0 {
		return InitialValue
	}
	return a.TotalReward / float64(a.Pulls)
}

// Repo persists arms per student.
type Repo interface {
	// Arms returns the student's pulled arms in format order.
	Arms(ctx context.Context, studentID string) ([]Arm, error)
	// Record adds one pull with reward to the student's arm for format.
	Record(ctx context.Context, studentID, format string, reward float64) error
}

// Choice is a Select result.
type Choice struct {
	Format   string
	Value    float64
	Explored bool
}

// Stats summarizes a student's arms.
type Stats struct {
	Arms       []Arm
	TotalPulls int
	Best       string // empty before any pull
	Epsilon    float64
}

// Bandit selects formats and records their rewards.
type Bandit struct {
	repo    Repo
	epsilon float64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Bandit.
type Option func(*Bandit)

// WithRand sets the random source used for exploration.
func WithRand(r *rand.Rand) Option {
	return func(b *Bandit) { b.rng = r }
}

// New creates a bandit over repo with exploration rate epsilon in [0, 1].
func New(repo Repo, epsilon float64, opts ...Option) (*Bandit, error) {
	if repo == nil {
		return nil, fmt.Errorf("bandit needs a repo")
	}
	if math.IsNaN(epsilon) || epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("epsilon must be in [0, 1], got %v", epsilon)
	}
	b := &Bandit{repo: repo, epsilon: epsilon}
	for _, o := range opts {
		o(b)
	}
	if b.rng == nil {
		seed := uint64(time.Now().UnixNano())
		b.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return b, nil
}

// Normalize folds case and surrounding space so "Visual " and "visual" are
// the same arm.
func Normalize(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// Select picks one of available formats for the student. With probability
// epsilon it explores uniformly; otherwise it takes the highest value, ties
// going to the first format in sorted order. Empty formats are ignored and
// an empty result means nothing was available.
func (b *Bandit) Select(ctx context.Context, studentID string, available []string) (Choice, error) {
	formats := distinct(available)
	if len(formats) == 0 {
		return Choice{}, nil
	}
	values, err := b.values(ctx, studentID)
	if err != nil {
		return Choice{}, err
	}
	valueOf := func(f string) float64 {
		if v, ok := values[f]; ok {
			return v
		}
		return InitialValue
	}

	if b.explore() {
		f := formats[b.intN(len(formats))]
		return Choice{Format: f, Value: valueOf(f), Explored: true}, nil
	}
	best := formats[0]
	for _, f := range formats[1:] {
		if valueOf(f) > valueOf(best) {
			best = f
		}
	}
	return Choice{Format: best, Value: valueOf(best)}, nil
}

// Update records reward for format. Rewards are clamped to [0, 1].
func (b *Bandit) Update(ctx context.Context, studentID, format string, reward float64) error {
	f := Normalize(format)
	if f == "" {
		return fmt.Errorf("empty format")
	}
	if math.IsNaN(reward) {
		return fmt.Errorf("reward is NaN")
	}
	if err := b.repo.Record(ctx, studentID, f, min(max(reward, 0), 1)); err != nil {
		return fmt.Errorf("record %s for %s: %w", f, studentID, err)
	}
	return nil
}

// Stats reports the student's arms.
func (b *Bandit) Stats(ctx context.Context, studentID string) (Stats, error) {
	arms, err := b.repo.Arms(ctx, studentID)
	if err != nil {
		return Stats{}, fmt.Errorf("arms for %s: %w", studentID, err)
	}
	st := Stats{Arms: arms, Epsilon: b.epsilon}
	bestValue := math.Inf(-1)
	for _, a := range arms {
		st.TotalPulls += a.Pulls
		if a.Pulls > 0 && a.Value() > bestValue {
			st.Best, bestValue = a.Format, a.Value()
		}
	}
	return st, nil
}

// Epsilon returns the exploration rate.
func (b *Bandit) Epsilon() float64 { return b.epsilon }

func (b *Bandit) values(ctx context.Context, studentID string) (map[string]float64, error) {
	arms, err := b.repo.Arms(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("arms for %s: %w", studentID, err)
	}
	out := make(map[string]float64, len(arms))
	for _, a := range arms {
		out[a.Format] = a.Value()
	}
	return out, nil
}

func (b *Bandit) explore() bool {
	if b.epsilon == 0 {
		return false
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Float64() < b.epsilon
}

func (b *Bandit) intN(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.IntN(n)
}

func distinct(formats []string) []string {
	var out []string
	for _, f := range formats {
		if f = Normalize(f); f != "" {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Reward scores one answer on [0, 1] for the format it was shown in: 0.6
// for a correct answer or 0.1 for a wrong one, plus a time term that
// prefers engaged answers between one and five minutes.
func Reward(correct bool, timeSpent float64) float64 {
	r := 0.1
	if correct {
		r = 0.6
	}
	switch {
	case timeSpent >= 60 && timeSpent <= 300:
		r += 0.2
	case timeSpent < 60:
		r += 0.1
	default:
		r += 0.15
	}
	return min(r, 1)
}

// MemoryRepo is a Repo held in process memory.
type MemoryRepo struct {
	mu   sync.Mutex
	arms map[string]map[string]Arm
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{arms: make(map[string]map[string]Arm)}
}

func (r *MemoryRepo) Arms(_ context.Context, studentID string) ([]Arm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Arm, 0, len(r.arms[studentID]))
	for _, a := range r.arms[studentID] {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Arm) int { return cmp.Compare(a.Format, b.Format) })
	return out, nil
}

func (r *MemoryRepo) Record(_ context.Context, studentID, format string, reward float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byFormat, ok := r.arms[studentID]
	if !ok {
		byFormat = make(map[string]Arm)
		r.arms[studentID] = byFormat
	}
	a := byFormat[format]
	a.Format = format
	a.Pulls++
	a.TotalReward += reward
	byFormat[format] = a
	return nil
}
