package gaps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

type fakeStates struct {
	state knowledge.State
	err   error
}

func (f fakeStates) Compute(context.Context, string) (knowledge.State, error) {
	return f.state, f.err
}

// allProficient is a state with no gaps.
func allProficient() knowledge.State {
	s := knowledge.NeutralState()
	for _, t := range knowledge.AllTopics() {
		s = s.With(t, 0.9)
	}
	return s
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		p    float64
		want Severity
	}{
		{0, SeverityCritical},
		{0.29, SeverityCritical},
		{0.3, SeverityHigh},
		{0.49, SeverityHigh},
		{0.5, SeverityMedium},
		{0.69, SeverityMedium},
		{0.7, SeverityLow},
		{1, SeverityLow},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.p); got != tt.want {
			t.Errorf("SeverityFor(%v) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		p    float64
		want int
	}{
		{0.1, 10}, // clamped
		{0.45, 9},
		{0.6, 6},
		{0.69, 5},
		{0.95, 3},
		{1.0, 3},
	}
	for _, tt := range tests {
		got := Priority(SeverityFor(tt.p), tt.p)
		if got != tt.want {
			t.Errorf("Priority(%v) = %d, want %d", tt.p, got, tt.want)
		}
		if got < 1 || got > 10 {
			t.Errorf("Priority(%v) = %d out of range", tt.p, got)
		}
	}
}

func TestEstimatedHours(t *testing.T) {
	tests := []struct {
		p    float64
		want float64
	}{
		{0.1, 70},
		{0.45, 35},
		{0.6, 20},
		{0.8, 0},
	}
	for _, tt := range tests {
		if got := EstimatedHours(tt.p); got != tt.want {
			t.Errorf("EstimatedHours(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestAnalyze_ReportsOnlyGapsSorted(t *testing.T) {
	state := allProficient().
		With(knowledge.Calculus, 0.1).
		With(knowledge.Optics, 0.45).
		With(knowledge.Algebra, 0.45).
		With(knowledge.Vectors, 0.69)

	a := NewAnalyzer(fakeStates{state: state}, NewMemoryRepo())
	got, err := a.Analyze(context.Background(), "s1")
	require.NoError(t, err)

	var topics []knowledge.Topic
	for _, g := range got {
		topics = append(topics, g.Topic)
		assert.Equal(t, TargetLevel, g.TargetLevel)
		assert.NotZero(t, g.ID)
	}
	want := []knowledge.Topic{knowledge.Calculus, knowledge.Algebra, knowledge.Optics, knowledge.Vectors}
	if diff := cmp.Diff(want, topics); diff != "" {
		t.Errorf("gap order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, SeverityCritical, got[0].Severity)
	assert.Equal(t, 70.0, got[0].EstimatedHours)
}

func TestAnalyze_NoGaps(t *testing.T) {
	a := NewAnalyzer(fakeStates{state: allProficient()}, NewMemoryRepo())
	got, err := a.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, Recommendations(got))
}

func TestAnalyze_UpsertKeepsProgress(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := NewAnalyzer(fakeStates{state: allProficient().With(knowledge.Calculus, 0.2)}, repo)

	first, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = a.UpdateProgress(ctx, "s1", first[0].ID, 40)
	require.NoError(t, err)

	a.states = fakeStates{state: allProficient().With(knowledge.Calculus, 0.55)}
	second, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, SeverityMedium, second[0].Severity)
	assert.Equal(t, 40.0, second[0].ProgressPercentage)
	assert.True(t, second[0].Addressed)

	stored, err := a.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.55, stored[0].ProficiencyLevel, 1e-12)
}

func TestAnalyze_PurgesOffCurriculumTopics(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	stale := Gap{StudentID: "s1", Topic: "astrology", Priority: 10}
	require.NoError(t, repo.Upsert(ctx, &stale))
	other := Gap{StudentID: "s2", Topic: "astrology", Priority: 10}
	require.NoError(t, repo.Upsert(ctx, &other))

	a := NewAnalyzer(fakeStates{state: allProficient()}, repo)
	_, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)

	s1, err := repo.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, s1)

	s2, err := repo.List(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, s2, 1, "purge must only touch the analyzed student")
}

func TestAnalyze_DropsRecoveredTopics(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := NewAnalyzer(fakeStates{state: allProficient().
		With(knowledge.Calculus, 0.2).
		With(knowledge.Optics, 0.4)}, repo)

	first, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, first, 2)

	a.states = fakeStates{state: allProficient().With(knowledge.Optics, 0.5)}
	_, err = a.Analyze(ctx, "s1")
	require.NoError(t, err)

	stored, err := a.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, knowledge.Optics, stored[0].Topic)

	a.states = fakeStates{state: allProficient()}
	got, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	stored, err = a.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestAnalyze_StateError(t *testing.T) {
	a := NewAnalyzer(fakeStates{err: errors.New("boom")}, NewMemoryRepo())
	_, err := a.Analyze(context.Background(), "s1")
	assert.ErrorContains(t, err, "boom")
}

func TestUpdateProgress(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	a := NewAnalyzer(fakeStates{state: allProficient().With(knowledge.Optics, 0.2)}, repo)
	gs, err := a.Analyze(ctx, "s1")
	require.NoError(t, err)
	id := gs[0].ID

	g, err := a.UpdateProgress(ctx, "s1", id, 150)
	require.NoError(t, err)
	assert.Equal(t, 100.0, g.ProgressPercentage)

	g, err = a.UpdateProgress(ctx, "s1", id, -5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.ProgressPercentage)
	assert.False(t, g.Addressed)

	_, err = a.UpdateProgress(ctx, "s2", id, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.UpdateProgress(ctx, "s1", 999, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecommendations(t *testing.T) {
	gs := []Gap{
		{Topic: knowledge.Optics, Severity: SeverityMedium, Priority: 6, EstimatedHours: 20},
		{Topic: knowledge.Calculus, Severity: SeverityCritical, Priority: 10, EstimatedHours: 70},
		{Topic: knowledge.Algebra, Severity: SeverityHigh, Priority: 9, EstimatedHours: 35},
		{Topic: knowledge.Vectors, Severity: SeverityCritical, Priority: 10, EstimatedHours: 60},
	}
	want := []string{
		"Focus on Calculus first, it is your highest priority gap",
		"Address 2 critical gap(s) before moving to advanced topics",
		"Consider a structured review plan to work through multiple gaps",
		"Estimated 185.0 hours needed to reach target proficiency across all gaps",
	}
	if diff := cmp.Diff(want, Recommendations(gs)); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_AssessedAt(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewAnalyzer(fakeStates{state: allProficient().With(knowledge.Optics, 0.2)}, NewMemoryRepo())
	a.now = func() time.Time { return at }

	got, err := a.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	want := []Gap{{
		StudentID:        "s1",
		Topic:            knowledge.Optics,
		ProficiencyLevel: 0.2,
		TargetLevel:      TargetLevel,
		Severity:         SeverityCritical,
		Priority:         10,
		EstimatedHours:   60,
		AssessedAt:       at,
	}}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Gap{}, "ID")); diff != "" {
		t.Errorf("gap mismatch (-want +got):\n%s", diff)
	}
}
