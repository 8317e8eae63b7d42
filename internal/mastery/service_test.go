package mastery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo fails the first n updates with ErrConflict.
type flakyRepo struct {
	*MemoryRepo
	mu        sync.Mutex
	conflicts int
}

func (r *flakyRepo) Update(ctx context.Context, m *StudentMastery) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return ErrConflict
	}
	r.mu.Unlock()
	return r.MemoryRepo.Update(ctx, m)
}

type failingRepo struct{ *MemoryRepo }

func (failingRepo) Get(context.Context, string, string) (*StudentMastery, error) {
	return nil, errors.New("disk on fire")
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestService_RecordAttempt_CreatesRow(t *testing.T) {
	svc := NewService(NewMemoryRepo(), WithClock(fixedClock()))
	ctx := context.Background()

	res, err := svc.RecordAttempt(ctx, "s1", "functions", true, 42)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.After.Level)
	assert.Equal(t, 1, res.After.TotalAttempts)
	assert.Equal(t, 1, res.After.CorrectAttempts)
	assert.Equal(t, int64(1), res.After.Version)
	assert.Equal(t, fixedClock()(), res.After.LastAssessedAt)

	tr := res.Transition()
	require.NotNil(t, tr)
	assert.Equal(t, 0, tr.From)
	assert.Equal(t, 1, tr.To)
	assert.False(t, tr.Unlocked)
}

func TestService_RecordAttempt_ReachesUnlock(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	var unlocked *Transition
	for i := 0; i < 10; i++ {
		res, err := svc.RecordAttempt(ctx, "s1", "functions", true, 30)
		require.NoError(t, err)
		if tr := res.Transition(); tr != nil && tr.Unlocked {
			unlocked = tr
		}
	}
	require.NotNil(t, unlocked)
	assert.Equal(t, 3, unlocked.To)

	m, err := svc.Get(ctx, "s1", "functions")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Level)
	assert.Equal(t, int64(10), m.Version)
}

func TestService_RecordAttempt_RetriesConflicts(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo()}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.RecordAttempt(ctx, "s1", "kinematics", true, 0)
	require.NoError(t, err)

	repo.conflicts = 3
	res, err := svc.RecordAttempt(ctx, "s1", "kinematics", false, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.After.TotalAttempts)
	assert.Equal(t, 1, res.After.CorrectAttempts)
}

func TestService_RecordAttempt_GivesUpAfterRetries(t *testing.T) {
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo()}
	svc := NewService(repo, WithMaxRetries(2))
	ctx := context.Background()

	_, err := svc.RecordAttempt(ctx, "s1", "kinematics", true, 0)
	require.NoError(t, err)

	repo.conflicts = 5
	_, err = svc.RecordAttempt(ctx, "s1", "kinematics", true, 0)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_RecordAttempt_RepoError(t *testing.T) {
	svc := NewService(failingRepo{NewMemoryRepo()})
	_, err := svc.RecordAttempt(context.Background(), "s1", "goc", true, 0)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestService_ConcurrentAttempts_NoLostIncrements(t *testing.T) {
	repo := NewMemoryRepo()
	// Two services share one repo, so only the version check guards them.
	a, b := NewService(repo), NewService(repo, WithMaxRetries(1000))
	a.maxRetries = 1000
	ctx := context.Background()

	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		svc := a
		if w%2 == 1 {
			svc = b
		}
		wg.Add(1)
		go func(svc *Service, correct bool) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := svc.RecordAttempt(ctx, "s1", "integration", correct, 1); err != nil {
					t.Error(err)
					return
				}
			}
		}(svc, w%4 != 0)
	}
	wg.Wait()

	m, err := repo.Get(ctx, "s1", "integration")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 8*perWorker, m.TotalAttempts)
	assert.Equal(t, 6*perWorker, m.CorrectAttempts)
	assert.InDelta(t, float64(8*perWorker), m.TotalPracticeSecs, 1e-9)
}

func TestService_Levels(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.RecordAttempt(ctx, "s1", "functions", true, 0)
		require.NoError(t, err)
	}
	_, err := svc.RecordAttempt(ctx, "s1", "goc", false, 0)
	require.NoError(t, err)
	_, err = svc.RecordAttempt(ctx, "s2", "goc", true, 0)
	require.NoError(t, err)

	levels, err := svc.Levels(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"functions": 2, "goc": 1}, map[string]int(levels))

	last, err := svc.LastAssessed(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, last, 2)
}

func TestService_Place(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	// Existing evidence is not overwritten by placement.
	_, err := svc.RecordAttempt(ctx, "s1", "kinematics", false, 0)
	require.NoError(t, err)

	out, err := svc.Place(ctx, "s1", map[string]bool{
		"functions":  true,
		"goc":        false,
		"kinematics": true,
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, PlacementOutcome{SkillID: "functions", Level: 3, Seeded: true}, out[0])
	assert.Equal(t, PlacementOutcome{SkillID: "goc", Level: 1, Seeded: true}, out[1])
	assert.Equal(t, PlacementOutcome{SkillID: "kinematics", Level: 1, Seeded: false}, out[2])

	m, err := svc.Get(ctx, "s1", "functions")
	require.NoError(t, err)
	assert.Equal(t, 3, m.PlacementLevel)
	assert.Equal(t, 1, m.TotalAttempts)

	k, err := svc.Get(ctx, "s1", "kinematics")
	require.NoError(t, err)
	assert.Equal(t, 0, k.PlacementLevel)
}

func TestService_Get_Missing(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	m, err := svc.Get(context.Background(), "nobody", "functions")
	require.NoError(t, err)
	assert.Nil(t, m)
}
