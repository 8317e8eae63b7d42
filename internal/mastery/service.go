// Package mastery tracks per-skill mastery levels for each student.
package mastery

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/adaptiq/internal/skillgraph"
)

const (
	lockStripes = 64

	// DefaultMaxRetries bounds optimistic-lock retries per write.
	DefaultMaxRetries = 8
)

// Service records attempts against mastery rows. Writes for the same
// (student, skill) are serialized in process by a striped lock and across
// processes by the repo's version check.
type Service struct {
	repo       Repo
	locks      [lockStripes]sync.Mutex
	now        func() time.Time
	maxRetries int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewService creates a mastery service over repo.
func NewService(repo Repo, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, maxRetries: DefaultMaxRetries}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result is the outcome of one recorded attempt.
type Result struct {
	Before  StudentMastery // zero value when the row was created
	After   StudentMastery
	Created bool
}

// Transition returns the level change, or nil when the level did not move.
func (r Result) Transition() *Transition {
	if r.Before.Level == r.After.Level {
		return nil
	}
	return &Transition{
		SkillID:  r.After.SkillID,
		From:     r.Before.Level,
		To:       r.After.Level,
		Unlocked: r.Before.Level < skillgraph.UnlockThreshold && r.After.Level >= skillgraph.UnlockThreshold,
	}
}

// Get returns the student's record for a skill, or nil when none exists.
func (s *Service) Get(ctx context.Context, studentID, skillID string) (*StudentMastery, error) {
	m, err := s.repo.Get(ctx, studentID, skillID)
	if err != nil {
		return nil, fmt.Errorf("get mastery %s/%s: %w", studentID, skillID, err)
	}
	return m, nil
}

// List returns all of the student's records.
func (s *Service) List(ctx context.Context, studentID string) ([]StudentMastery, error) {
	rows, err := s.repo.List(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery for %s: %w", studentID, err)
	}
	return rows, nil
}

// Levels returns the student's level per skill for unlock checks.
func (s *Service) Levels(ctx context.Context, studentID string) (skillgraph.Levels, error) {
	rows, err := s.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	levels := make(skillgraph.Levels, len(rows))
	for _, m := range rows {
		levels[m.SkillID] = m.Level
	}
	return levels, nil
}

// LastAssessed returns when each of the student's skills was last assessed.
func (s *Service) LastAssessed(ctx context.Context, studentID string) (map[string]time.Time, error) {
	rows, err := s.List(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, m := range rows {
		out[m.SkillID] = m.LastAssessedAt
	}
	return out, nil
}

// RecordAttempt applies one graded attempt, creating the row on first
// evidence.
func (s *Service) RecordAttempt(ctx context.Context, studentID, skillID string, correct bool, secs float64) (Result, error) {
	now := s.now()
	return s.mutate(ctx, studentID, skillID, func(m *StudentMastery) bool {
		m.record(correct, secs, now)
		return true
	})
}

// PlacementOutcome reports what placement did for one skill.
type PlacementOutcome struct {
	SkillID string
	Level   int
	Seeded  bool // false when the student already had evidence for the skill
}

// Place seeds mastery from one placement answer per skill: correct answers
// start at PlacementCorrectLevel, wrong ones at PlacementWrongLevel. Skills
// the student already has a record for are left untouched.
func (s *Service) Place(ctx context.Context, studentID string, answers map[string]bool) ([]PlacementOutcome, error) {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := s.now()
	out := make([]PlacementOutcome, 0, len(ids))
	for _, id := range ids {
		correct := answers[id]
		res, err := s.mutate(ctx, studentID, id, func(m *StudentMastery) bool {
			if m.TotalAttempts > 0 {
				return false
			}
			m.place(correct, 0, now)
			return true
		})
		if err != nil {
			return out, err
		}
		out = append(out, PlacementOutcome{SkillID: id, Level: res.After.Level, Seeded: res.Created})
	}
	return out, nil
}

// mutate runs a read-modify-write on one row. fn returns false to leave the
// row unchanged.
func (s *Service) mutate(ctx context.Context, studentID, skillID string, fn func(*StudentMastery) bool) (Result, error) {
	mu := s.lockFor(studentID, skillID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		cur, err := s.repo.Get(ctx, studentID, skillID)
		if err != nil {
			return Result{}, fmt.Errorf("get mastery %s/%s: %w", studentID, skillID, err)
		}

		if cur == nil {
			m := &StudentMastery{StudentID: studentID, SkillID: skillID}
			fn(m)
			err = s.repo.Create(ctx, m)
			if errors.Is(err, ErrConflict) {
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("create mastery %s/%s: %w", studentID, skillID, err)
			}
			return Result{After: *m, Created: true}, nil
		}

		before := *clone(*cur)
		if !fn(cur) {
			return Result{Before: before, After: before}, nil
		}
		err = s.repo.Update(ctx, cur)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("update mastery %s/%s: %w", studentID, skillID, err)
		}
		return Result{Before: before, After: *cur}, nil
	}
	return Result{}, fmt.Errorf("mastery %s/%s: %w after %d attempts", studentID, skillID, ErrConflict, s.maxRetries)
}

func (s *Service) lockFor(studentID, skillID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(studentID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(skillID))
	return &s.locks[h.Sum32()%lockStripes]
}
