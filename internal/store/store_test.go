package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/adaptiq/internal/bandit"
	"github.com/abhisek/adaptiq/internal/gaps"
	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/peers"
	"github.com/abhisek/adaptiq/internal/qlearn"
	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/tutor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{
		tableContent, tableSkills, tablePrerequisites, tableMastery,
		tableAttempts, tableGaps, tableQValues, tableSnapshots, tableBandit,
	} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if i == 0 && seq != 1 {
			t.Errorf("first sequence = %d, want 1", seq)
		}
		if seq <= prev {
			t.Errorf("seq[%d] = %d, not greater than %d", i, seq, prev)
		}
		prev = seq
	}

	// Reopening the counter keeps the stored position.
	sc, err := newSequenceCounter(ctx, s.DB(), s.Dialect())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}
	seq, err := sc.Next(ctx)
	if err != nil {
		t.Fatalf("next after reopen: %v", err)
	}
	if seq != prev+1 {
		t.Errorf("sequence after reopen = %d, want %d", seq, prev+1)
	}
}

func sampleContent() []tutor.ContentInfo {
	return []tutor.ContentInfo{
		{ID: 1, Topic: knowledge.Algebra, Difficulty: 3, CorrectAnswer: "B", Format: "text", SkillID: "algebra_basics"},
		{ID: 2, Topic: knowledge.Algebra, Difficulty: 6, CorrectAnswer: "C", Format: "visual", SkillID: "quadratic_equations"},
		{ID: 3, Topic: knowledge.Mechanics, Difficulty: 5, CorrectAnswer: "A", Format: "text", SkillID: "kinematics"},
		{ID: 4, Topic: knowledge.Calculus, Difficulty: 8, CorrectAnswer: "D", Prompt: "d/dx x^2 at 1?"},
	}
}

func TestContentRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.Content()
	ctx := context.Background()

	if err := repo.Upsert(ctx, sampleContent()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.Content(ctx, 4)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if diff := cmp.Diff(sampleContent()[3], got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}

	// Upsert replaces existing rows.
	changed := sampleContent()[0]
	changed.Difficulty = 9
	if err := repo.Upsert(ctx, []tutor.ContentInfo{changed}); err != nil {
		t.Fatalf("upsert changed: %v", err)
	}
	got, err = repo.Content(ctx, 1)
	if err != nil {
		t.Fatalf("content 1: %v", err)
	}
	if got.Difficulty != 9 {
		t.Errorf("difficulty = %d, want 9", got.Difficulty)
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestContentNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Content().Content(context.Background(), 99)
	if !errors.Is(err, tutor.ErrNotFound) {
		t.Errorf("err = %v, want tutor.ErrNotFound", err)
	}
}

func TestContentUpsertValidates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tests := []struct {
		name string
		item tutor.ContentInfo
	}{
		{"unknown topic", tutor.ContentInfo{ID: 1, Topic: "astrology", Difficulty: 3}},
		{"difficulty too low", tutor.ContentInfo{ID: 1, Topic: knowledge.Optics, Difficulty: 0}},
		{"difficulty too high", tutor.ContentInfo{ID: 1, Topic: knowledge.Optics, Difficulty: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Content().Upsert(ctx, []tutor.ContentInfo{tt.item}); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestListContentFilters(t *testing.T) {
	s := openTestStore(t)
	repo := s.Content()
	ctx := context.Background()
	if err := repo.Upsert(ctx, sampleContent()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	tests := []struct {
		name string
		q    tutor.ContentQuery
		want []int64
	}{
		{"all", tutor.ContentQuery{}, []int64{1, 2, 3, 4}},
		{"by skill", tutor.ContentQuery{SkillIDs: []string{"kinematics", "quadratic_equations"}}, []int64{2, 3}},
		{"by topic", tutor.ContentQuery{Topics: []knowledge.Topic{knowledge.Algebra}}, []int64{1, 2}},
		{"skill and topic", tutor.ContentQuery{
			SkillIDs: []string{"algebra_basics", "kinematics"},
			Topics:   []knowledge.Topic{knowledge.Mechanics},
		}, []int64{3}},
		{"limit", tutor.ContentQuery{Limit: 2}, []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.ListContent(ctx, tt.q)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var got []int64
			for _, it := range items {
				got = append(got, it.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSkillGraphSeedsDefaultCatalog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g, err := s.Skills().Graph(ctx)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	want := skillgraph.DefaultGraph()
	if g.Len() != want.Len() {
		t.Fatalf("len = %d, want %d", g.Len(), want.Len())
	}

	stored, err := s.Skills().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, sk := range stored {
		orig, err := want.Skill(sk.ID)
		if err != nil {
			t.Errorf("unexpected skill %s: %v", sk.ID, err)
			continue
		}
		if diff := cmp.Diff(orig, sk); diff != "" {
			t.Errorf("skill %s mismatch (-want +got):\n%s", sk.ID, diff)
		}
	}
}

func TestSkillReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	skills := []skillgraph.Skill{
		{ID: "a", Name: "A", Category: "Mathematics", Topic: knowledge.Algebra, Difficulty: skillgraph.TierBeginner, EstimatedHours: 2},
		{ID: "b", Name: "B", Category: "Mathematics", Topic: knowledge.Calculus, Difficulty: skillgraph.TierIntermediate, EstimatedHours: 3,
			Prerequisites: []string{"a"}},
	}
	if err := s.Skills().Replace(ctx, skills); err != nil {
		t.Fatalf("replace: %v", err)
	}
	g, err := s.Skills().Graph(ctx)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("len = %d, want 2", g.Len())
	}
	if prereqs := g.Prerequisites("b"); len(prereqs) != 1 || prereqs[0].ID != "a" {
		t.Errorf("prerequisites of b = %+v, want [a]", prereqs)
	}

	cyclic := []skillgraph.Skill{
		{ID: "a", Name: "A", Category: "Mathematics", Topic: knowledge.Algebra, Difficulty: skillgraph.TierBeginner, EstimatedHours: 1,
			Prerequisites: []string{"b"}},
		{ID: "b", Name: "B", Category: "Mathematics", Topic: knowledge.Algebra, Difficulty: skillgraph.TierBeginner, EstimatedHours: 1,
			Prerequisites: []string{"a"}},
	}
	if err := s.Skills().Replace(ctx, cyclic); err == nil {
		t.Fatal("expected cycle to be rejected")
	}
	// The rejected catalog must not have replaced the stored one.
	stored, err := s.Skills().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 2 || len(stored[0].Prerequisites) != 0 {
		t.Errorf("stored catalog changed: %+v", stored)
	}
}

func TestMasteryOptimisticLocking(t *testing.T) {
	s := openTestStore(t)
	repo := s.Mastery()
	ctx := context.Background()

	m := &mastery.StudentMastery{StudentID: "s1", SkillID: "algebra_basics", Level: 1, TotalAttempts: 1}
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("version = %d, want 1", m.Version)
	}
	dup := &mastery.StudentMastery{StudentID: "s1", SkillID: "algebra_basics"}
	if err := repo.Create(ctx, dup); !errors.Is(err, mastery.ErrConflict) {
		t.Errorf("duplicate create err = %v, want ErrConflict", err)
	}

	stale := *m
	now := time.Now().UTC().Truncate(time.Microsecond)
	m.TotalAttempts = 2
	m.MasteredAt = &now
	if err := repo.Update(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.Update(ctx, &stale); !errors.Is(err, mastery.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	got, err := repo.Get(ctx, "s1", "algebra_basics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAttempts != 2 || got.Version != 2 {
		t.Errorf("got attempts=%d version=%d, want 2/2", got.TotalAttempts, got.Version)
	}
	if got.MasteredAt == nil || !got.MasteredAt.Equal(now) {
		t.Errorf("mastered_at = %v, want %v", got.MasteredAt, now)
	}

	missing, err := repo.Get(ctx, "s1", "calculus_limits")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing row, got %+v", missing)
	}
}

func TestMasteryServiceConcurrentAttempts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	// Two services share the table, so writes race through the version column.
	services := []*mastery.Service{
		mastery.NewService(s.Mastery(), mastery.WithMaxRetries(100)),
		mastery.NewService(s.Mastery(), mastery.WithMaxRetries(100)),
	}

	const perWorker = 5
	var g errgroup.Group
	for w := 0; w < 6; w++ {
		svc := services[w%len(services)]
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				if _, err := svc.RecordAttempt(ctx, "s1", "algebra_basics", true, 10); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("record attempts: %v", err)
	}

	rows, err := services[0].List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].TotalAttempts != 6*perWorker {
		t.Errorf("total attempts = %d, want %d", rows[0].TotalAttempts, 6*perWorker)
	}
	if rows[0].Level != 5 {
		t.Errorf("level = %d, want 5", rows[0].Level)
	}
}

func TestAttemptsAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	pre := knowledge.NeutralState()
	post := pre.With(knowledge.Algebra, 0.75)
	created := time.Now().UTC().Truncate(time.Microsecond)

	topics := []knowledge.Topic{knowledge.Algebra, knowledge.Optics, knowledge.Algebra}
	var seqs []int64
	for i, topic := range topics {
		a := &tutor.Attempt{
			ID:         "attempt-" + string(rune('a'+i)),
			StudentID:  "s1",
			ContentID:  int64(i + 1),
			SkillID:    "algebra_basics",
			Topic:      topic,
			Difficulty: 4,
			Correct:    i != 1,
			TimeSpent:  30,
			PreState:   pre,
			Action:     i,
			Reward:     0.8,
			PostState:  post,
			CreatedAt:  created,
		}
		if err := repo.Append(ctx, a); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		seqs = append(seqs, a.Sequence)
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Errorf("sequences not increasing: %v", seqs)
		}
	}
	// Another student's attempts stay separate.
	if err := repo.Append(ctx, &tutor.Attempt{ID: "other", StudentID: "s2", Topic: knowledge.Optics,
		PreState: pre, PostState: pre}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	recent, err := repo.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d, want 2", len(recent))
	}
	if recent[0].ID != "attempt-c" || recent[1].ID != "attempt-b" {
		t.Errorf("recent order = %s, %s; want attempt-c, attempt-b", recent[0].ID, recent[1].ID)
	}
	if diff := cmp.Diff(post, recent[0].PostState); diff != "" {
		t.Errorf("post state mismatch (-want +got):\n%s", diff)
	}
	if !recent[0].CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", recent[0].CreatedAt, created)
	}

	obs, err := repo.RecentObservations(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	want := []knowledge.Observation{
		{Topic: knowledge.Algebra, Correct: true},
		{Topic: knowledge.Optics, Correct: false},
		{Topic: knowledge.Algebra, Correct: true},
	}
	if diff := cmp.Diff(want, obs); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestKnowledgeModelOverAttempts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		a := &tutor.Attempt{
			ID: "a" + string(rune('0'+i)), StudentID: "s1", Topic: knowledge.Vectors, Correct: i%2 == 0,
			PreState: knowledge.NeutralState(), PostState: knowledge.NeutralState(),
		}
		if err := s.Attempts().Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	state, err := knowledge.NewModel(s.Attempts(), 0).Compute(ctx, "s1")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got := state.Of(knowledge.Vectors); got != 0.5 {
		t.Errorf("vectors = %v, want 0.5", got)
	}
}

func TestGapRepoKeepsProgressAcrossUpserts(t *testing.T) {
	s := openTestStore(t)
	repo := s.Gaps()
	ctx := context.Background()

	g := &gaps.Gap{StudentID: "s1", Topic: knowledge.Optics, ProficiencyLevel: 0.2, TargetLevel: gaps.TargetLevel,
		Severity: gaps.SeverityCritical, Priority: 10, EstimatedHours: 60}
	if err := repo.Upsert(ctx, g); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if g.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	id := g.ID

	updated, err := repo.SetProgress(ctx, "s1", id, 40)
	if err != nil {
		t.Fatalf("set progress: %v", err)
	}
	if updated.ProgressPercentage != 40 || !updated.Addressed {
		t.Errorf("progress = %v addressed = %v, want 40/true", updated.ProgressPercentage, updated.Addressed)
	}

	again := &gaps.Gap{StudentID: "s1", Topic: knowledge.Optics, ProficiencyLevel: 0.45, TargetLevel: gaps.TargetLevel,
		Severity: gaps.SeverityHigh, Priority: 8, EstimatedHours: 35}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != id {
		t.Errorf("id = %d, want %d", again.ID, id)
	}
	if again.ProgressPercentage != 40 || !again.Addressed {
		t.Errorf("progress lost: %+v", again)
	}

	list, err := repo.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Severity != gaps.SeverityHigh || list[0].Priority != 8 {
		t.Errorf("list = %+v", list)
	}

	if _, err := repo.SetProgress(ctx, "s2", id, 10); !errors.Is(err, gaps.ErrNotFound) {
		t.Errorf("other student's gap err = %v, want ErrNotFound", err)
	}
}

func TestGapRepoPurge(t *testing.T) {
	s := openTestStore(t)
	repo := s.Gaps()
	ctx := context.Background()

	for _, topic := range []knowledge.Topic{knowledge.Optics, "retired_topic", knowledge.Algebra} {
		g := &gaps.Gap{StudentID: "s1", Topic: topic, Severity: gaps.SeverityMedium, Priority: 4}
		if err := repo.Upsert(ctx, g); err != nil {
			t.Fatalf("upsert %s: %v", topic, err)
		}
	}
	n, err := repo.Purge(ctx, "s1", knowledge.AllTopics())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	list, err := repo.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("remaining = %d, want 2", len(list))
	}
}

func TestAnalyzerOverStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := gaps.NewAnalyzer(knowledge.NewModel(s.Attempts(), 0), s.Gaps())

	state := knowledge.NeutralState().With(knowledge.Mechanics, 0.1).With(knowledge.Probability, 0.9)
	got, err := a.AnalyzeState(ctx, "s1", state)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(got) == 0 || got[0].Topic != knowledge.Mechanics {
		t.Fatalf("first gap = %+v, want mechanics", got)
	}
	for _, g := range got {
		if g.Topic == knowledge.Probability {
			t.Error("probability at 0.9 should not be a gap")
		}
	}
	stored, err := a.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != len(got) {
		t.Errorf("stored = %d, want %d", len(stored), len(got))
	}

	recovered := state.With(knowledge.Mechanics, 0.8)
	if _, err := a.AnalyzeState(ctx, "s1", recovered); err != nil {
		t.Fatalf("reanalyze: %v", err)
	}
	stored, err = a.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, g := range stored {
		if g.Topic == knowledge.Mechanics {
			t.Errorf("recovered topic still stored: %+v", g)
		}
	}
	if len(stored) != len(got)-1 {
		t.Errorf("stored = %d, want %d", len(stored), len(got)-1)
	}
}

func TestBanditRepoConcurrentRecords(t *testing.T) {
	s := openTestStore(t)
	repo := s.Bandit()
	ctx := context.Background()

	const workers, perWorker = 4, 5
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				if err := repo.Record(ctx, "s1", "visual", 0.5); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Record(ctx, "s1", "text", 1); err != nil {
		t.Fatalf("record text: %v", err)
	}
	if err := repo.Record(ctx, "s2", "text", 0); err != nil {
		t.Fatalf("record s2: %v", err)
	}

	arms, err := repo.Arms(ctx, "s1")
	if err != nil {
		t.Fatalf("arms: %v", err)
	}
	want := []bandit.Arm{
		{Format: "text", Pulls: 1, TotalReward: 1},
		{Format: "visual", Pulls: workers * perWorker, TotalReward: 0.5 * workers * perWorker},
	}
	if diff := cmp.Diff(want, arms); diff != "" {
		t.Errorf("arms mismatch (-want +got):\n%s", diff)
	}
}

func TestBanditOverStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	b, err := bandit.New(s.Bandit(), 0)
	if err != nil {
		t.Fatalf("new bandit: %v", err)
	}
	if err := b.Update(ctx, "s1", "Interactive", bandit.Reward(true, 120)); err != nil {
		t.Fatalf("update: %v", err)
	}
	c, err := b.Select(ctx, "s1", []string{"text", "interactive"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if c.Format != "interactive" {
		t.Errorf("format = %q, want interactive", c.Format)
	}
}

func TestAttemptInteractionsAcrossStudents(t *testing.T) {
	s := openTestStore(t)
	repo := s.Attempts()
	ctx := context.Background()

	for i, student := range []string{"s1", "s2", "s1"} {
		a := &tutor.Attempt{
			ID: fmt.Sprintf("a%d", i), StudentID: student, ContentID: int64(10 + i), Topic: knowledge.Algebra,
			Difficulty: 3, Correct: i != 1, TimeSpent: float64(20 + i),
			PreState: knowledge.NeutralState(), PostState: knowledge.NeutralState(), CreatedAt: time.Now(),
		}
		if err := repo.Append(ctx, a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.Interactions(ctx, 2)
	if err != nil {
		t.Fatalf("interactions: %v", err)
	}
	want := []peers.Interaction{
		{StudentID: "s1", ContentID: 12, Correct: true, TimeSpent: 22},
		{StudentID: "s2", ContentID: 11, Correct: false, TimeSpent: 21},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("interactions mismatch (-want +got):\n%s", diff)
	}

	all, err := repo.Interactions(ctx, 0)
	if err != nil {
		t.Fatalf("all interactions: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestQTableUpdate(t *testing.T) {
	s := openTestStore(t)
	q := s.QTable()
	ctx := context.Background()

	v, err := q.Get(ctx, 7, 3)
	if err != nil {
		t.Fatalf("get unseen: %v", err)
	}
	if v != 0 {
		t.Errorf("unseen cell = %v, want 0", v)
	}

	u := qlearn.TDUpdate{State: 7, Action: 3, Reward: 1, Next: 7, Alpha: 0.5, Gamma: 0.9, Actions: 20}
	v, err = q.Update(ctx, u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v != 0.5 {
		t.Errorf("first update = %v, want 0.5", v)
	}
	// Second update sees its own cell as the best next value:
	// 0.5 + 0.5*(1 + 0.9*0.5 - 0.5) = 0.975.
	v, err = q.Update(ctx, u)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := v - 0.975; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("second update = %v, want 0.975", v)
	}

	entries, err := q.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || entries[0].State != 7 || entries[0].Action != 3 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestQTableLoadAndClear(t *testing.T) {
	s := openTestStore(t)
	q := s.QTable()
	ctx := context.Background()

	var entries []qlearn.Entry
	for i := 0; i < 1200; i++ {
		entries = append(entries, qlearn.Entry{State: int64(i / 20), Action: i % 20, Value: float64(i) / 100})
	}
	if err := q.Load(ctx, entries); err != nil {
		t.Fatalf("load: %v", err)
	}
	// Loading again overwrites matching cells.
	if err := q.Load(ctx, []qlearn.Entry{{State: 0, Action: 0, Value: 9}}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := q.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("entries = %d, want %d", len(got), len(entries))
	}
	if got[0].Value != 9 {
		t.Errorf("Q(0,0) = %v, want 9", got[0].Value)
	}

	if err := q.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = q.Entries(ctx)
	if err != nil {
		t.Fatalf("entries after clear: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entries after clear = %d, want 0", len(got))
	}
}

func TestAgentOverQTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	agent, err := qlearn.NewAgent(s.QTable(), qlearn.DefaultConfig())
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	state, err := qlearn.Discretize(knowledge.NeutralState())
	if err != nil {
		t.Fatalf("discretize: %v", err)
	}
	action, err := agent.Action(42)
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	if _, err := agent.Update(ctx, state, action, 1, state); err != nil {
		t.Fatalf("update: %v", err)
	}
	sel, err := agent.SelectAction(ctx, state, qlearn.Candidates(41, 42), 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.ContentID != 42 {
		t.Errorf("selected %d, want 42", sel.ContentID)
	}

	snap, err := agent.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snap.Entries) != 1 {
		t.Errorf("snapshot entries = %d, want 1", len(snap.Entries))
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	repo := s.Snapshots()
	ctx := context.Background()

	// No snapshot yet.
	snap, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	now := time.Now().UTC().Truncate(time.Second)
	want := &qlearn.Snapshot{
		Version:      qlearn.SnapshotVersion,
		CreatedAt:    now,
		Actions:      20,
		LearningRate: 0.1,
		Discount:     0.9,
		Updates:      3,
		Entries:      []qlearn.Entry{{State: 1, Action: 2, Value: 0.25}},
	}
	if _, err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err = repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap == nil {
		t.Fatal("expected non-nil snapshot")
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.Snapshots()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := repo.Save(ctx, &qlearn.Snapshot{Version: qlearn.SnapshotVersion, Updates: int64(i + 1)}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	if err := repo.Prune(ctx, 5); err != nil {
		t.Fatalf("prune: %v", err)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + tableSnapshots).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("remaining snapshots = %d, want 5", count)
	}

	snap, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.Updates != 7 {
		t.Errorf("latest updates = %d, want 7", snap.Updates)
	}

	// Pruning with fewer than keep rows is a no-op.
	if err := repo.Prune(ctx, 10); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + tableSnapshots).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("remaining snapshots = %d, want 5", count)
	}
}

// TestPostgres runs a smoke test against a real server when
// ADAPTIQ_TEST_POSTGRES_DSN is set.
func TestPostgres(t *testing.T) {
	dsn := os.Getenv("ADAPTIQ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ADAPTIQ_TEST_POSTGRES_DSN not set")
	}
	s, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Content().Upsert(ctx, sampleContent()); err != nil {
		t.Fatalf("upsert content: %v", err)
	}
	if _, err := s.Content().Content(ctx, 3); err != nil {
		t.Fatalf("content: %v", err)
	}

	q := s.QTable()
	if err := q.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := q.Update(ctx, qlearn.TDUpdate{State: 1, Action: 0, Reward: 1, Next: 2, Alpha: 1, Gamma: 0, Actions: 20})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent updates: %v", err)
	}
	v, err := q.Get(ctx, 1, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 1 {
		t.Errorf("Q(1,0) = %v, want 1", v)
	}
}
