package mastery

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrConflict is returned by a Repo when a write lost an optimistic-lock race.
var ErrConflict = errors.New("mastery record changed concurrently")

// Repo reads and writes StudentMastery rows keyed by (student, skill).
type Repo interface {
	// Get returns nil, nil when the student has no record for the skill.
	Get(ctx context.Context, studentID, skillID string) (*StudentMastery, error)
	List(ctx context.Context, studentID string) ([]StudentMastery, error)
	// Create inserts a new row with Version 1. It returns ErrConflict when
	// the row already exists.
	Create(ctx context.Context, m *StudentMastery) error
	// Update writes m only if the stored version still equals m.Version, then
	// increments m.Version. It returns ErrConflict otherwise.
	Update(ctx context.Context, m *StudentMastery) error
}

// MemoryRepo is a Repo held in process memory.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[[2]string]StudentMastery
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[[2]string]StudentMastery)}
}

func (r *MemoryRepo) Get(_ context.Context, studentID, skillID string) (*StudentMastery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[[2]string{studentID, skillID}]
	if !ok {
		return nil, nil
	}
	return clone(m), nil
}

func (r *MemoryRepo) List(_ context.Context, studentID string) ([]StudentMastery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StudentMastery
	for k, m := range r.rows {
		if k[0] == studentID {
			out = append(out, *clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out, nil
}

func (r *MemoryRepo) Create(_ context.Context, m *StudentMastery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{m.StudentID, m.SkillID}
	if _, ok := r.rows[key]; ok {
		return ErrConflict
	}
	m.Version = 1
	r.rows[key] = *clone(*m)
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, m *StudentMastery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{m.StudentID, m.SkillID}
	cur, ok := r.rows[key]
	if !ok || cur.Version != m.Version {
		return ErrConflict
	}
	m.Version++
	r.rows[key] = *clone(*m)
	return nil
}

func clone(m StudentMastery) *StudentMastery {
	if m.MasteredAt != nil {
		t := *m.MasteredAt
		m.MasteredAt = &t
	}
	return &m
}
