package skillgraph

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New(DefaultCatalog())
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return g
}

func TestSkill_Exists(t *testing.T) {
	g := testGraph(t)
	s, err := g.Skill("quadratic-equations")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name != "Quadratic Equations" {
		t.Errorf("got name %q, want %q", s.Name, "Quadratic Equations")
	}
	if s.Topic != knowledge.Algebra {
		t.Errorf("got topic %q, want %q", s.Topic, knowledge.Algebra)
	}
	if s.Difficulty != TierIntermediate {
		t.Errorf("got tier %q, want %q", s.Difficulty, TierIntermediate)
	}
}

func TestSkill_NotFound(t *testing.T) {
	g := testGraph(t)
	_, err := g.Skill("nonexistent")
	if !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound, got %v", err)
	}
}

func TestSkills_Count(t *testing.T) {
	g := testGraph(t)
	if g.Len() != 28 {
		t.Errorf("got %d skills, want 28", g.Len())
	}
	if len(g.Skills()) != g.Len() {
		t.Errorf("Skills() and Len() disagree")
	}
}

func TestByCategory(t *testing.T) {
	g := testGraph(t)
	tests := []struct {
		category string
		want     int
	}{
		{CategoryMathematics, 15},
		{CategoryPhysics, 7},
		{CategoryChemistry, 6},
		{"Biology", 0},
	}
	for _, tt := range tests {
		if got := len(g.ByCategory(tt.category)); got != tt.want {
			t.Errorf("ByCategory(%q): got %d skills, want %d", tt.category, got, tt.want)
		}
	}
	if got := g.Categories(); len(got) != 3 || got[0] != CategoryChemistry {
		t.Errorf("Categories() = %v", got)
	}
}

func TestByTopic_EveryTopicCovered(t *testing.T) {
	g := testGraph(t)
	for _, topic := range knowledge.AllTopics() {
		if len(g.ByTopic(topic)) == 0 {
			t.Errorf("topic %q has no skills", topic)
		}
	}
}

func TestTopologicalOrder_PrereqsFirst(t *testing.T) {
	g := testGraph(t)
	order := g.TopologicalOrder()
	pos := make(map[string]int, len(order))
	for i, s := range order {
		pos[s.ID] = i
	}
	for _, s := range order {
		for _, p := range s.Prerequisites {
			if pos[p] >= pos[s.ID] {
				t.Errorf("prerequisite %q appears after %q", p, s.ID)
			}
		}
	}
}

func TestRoots(t *testing.T) {
	g := testGraph(t)
	for _, s := range g.Roots() {
		if len(s.Prerequisites) != 0 {
			t.Errorf("root %q has prerequisites", s.ID)
		}
	}
}

func TestPrerequisitesAndDependents(t *testing.T) {
	g := testGraph(t)
	prereqs := g.Prerequisites("trig-equations")
	if len(prereqs) != 2 {
		t.Fatalf("got %d prerequisites, want 2", len(prereqs))
	}
	deps := g.Dependents("sets-relations")
	want := map[string]bool{"functions": true, "quadratic-equations": true, "probability-basics": true}
	if len(deps) != len(want) {
		t.Fatalf("got %d dependents, want %d", len(deps), len(want))
	}
	for _, d := range deps {
		if !want[d.ID] {
			t.Errorf("unexpected dependent %q", d.ID)
		}
	}
	if g.Prerequisites("nope") != nil {
		t.Error("unknown skill should have no prerequisites")
	}
}

func TestIsUnlocked_RootsAlwaysUnlocked(t *testing.T) {
	g := testGraph(t)
	for _, levels := range []Levels{nil, {}, {"functions": 5}} {
		for _, s := range g.Roots() {
			if !g.IsUnlocked(s.ID, levels) {
				t.Errorf("root %q should be unlocked for %v", s.ID, levels)
			}
		}
	}
}

func TestIsUnlocked_RequiresThreshold(t *testing.T) {
	g := testGraph(t)
	for level := 0; level <= MaxLevel; level++ {
		got := g.IsUnlocked("quadratic-equations", Levels{"sets-relations": level})
		want := level >= UnlockThreshold
		if got != want {
			t.Errorf("sets-relations level %d: unlocked=%v, want %v", level, got, want)
		}
	}
}

func TestIsUnlocked_DirectAttemptsDoNotBypassPrerequisite(t *testing.T) {
	g := testGraph(t)
	levels := Levels{"quadratic-equations": 4}
	if g.IsUnlocked("quadratic-equations", levels) {
		t.Error("quadratic-equations must stay locked without sets-relations")
	}
	if missing := g.MissingPrerequisites("quadratic-equations", levels); len(missing) != 1 || missing[0] != "sets-relations" {
		t.Errorf("MissingPrerequisites = %v", missing)
	}
}

func TestIsUnlocked_AllPrerequisitesNeeded(t *testing.T) {
	g := testGraph(t)
	levels := Levels{"trig-ratios": 3}
	if g.IsUnlocked("trig-equations", levels) {
		t.Error("trig-equations needs quadratic-equations too")
	}
	levels["quadratic-equations"] = 3
	if !g.IsUnlocked("trig-equations", levels) {
		t.Error("trig-equations should unlock once both prerequisites reach 3")
	}
}

func TestIsUnlocked_UnknownSkill(t *testing.T) {
	g := testGraph(t)
	if g.IsUnlocked("nonexistent", Levels{}) {
		t.Error("unknown skill should not be unlocked")
	}
}

func TestState(t *testing.T) {
	g := testGraph(t)
	tests := []struct {
		id     string
		levels Levels
		want   SkillState
	}{
		{"quadratic-equations", Levels{}, StateLocked},
		{"sets-relations", Levels{}, StateAvailable},
		{"sets-relations", Levels{"sets-relations": 2}, StateLearning},
		{"sets-relations", Levels{"sets-relations": 3}, StateProficient},
		{"sets-relations", Levels{"sets-relations": 5}, StateMastered},
	}
	for _, tt := range tests {
		if got := g.State(tt.id, tt.levels); got != tt.want {
			t.Errorf("State(%q, %v) = %s, want %s", tt.id, tt.levels, got.Label(), tt.want.Label())
		}
	}
}

func TestAvailableAndBlockedPartition(t *testing.T) {
	g := testGraph(t)
	levels := Levels{"sets-relations": 3, "kinematics": 5}
	available := g.AvailableSkills(levels)
	blocked := g.BlockedSkills(levels)

	seen := map[string]bool{}
	for _, s := range available {
		if s.ID == "kinematics" {
			t.Error("mastered skill should not be available")
		}
		seen[s.ID] = true
	}
	for _, s := range blocked {
		if seen[s.ID] {
			t.Errorf("%q is both available and blocked", s.ID)
		}
	}
	if len(available)+len(blocked) != g.Len()-1 {
		t.Errorf("available+blocked = %d, want %d", len(available)+len(blocked), g.Len()-1)
	}
}

func TestFrontierSkills_PrefersNonRoots(t *testing.T) {
	g := testGraph(t)
	frontier := g.FrontierSkills(Levels{"sets-relations": 3})
	if len(frontier) == 0 {
		t.Fatal("expected frontier skills")
	}
	for _, s := range frontier {
		if len(s.Prerequisites) == 0 {
			t.Errorf("frontier should skip roots when non-roots are available, got %q", s.ID)
		}
	}
	if got := g.FrontierSkills(Levels{}); len(got) != len(g.Roots()) {
		t.Errorf("new student frontier = %d skills, want the %d roots", len(got), len(g.Roots()))
	}
}

func TestLearningPath(t *testing.T) {
	g := testGraph(t)
	path, err := g.LearningPath("integration", Levels{"sets-relations": 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, st := range path.Steps {
		ids = append(ids, st.Skill.ID)
	}
	want := []string{"functions", "limits-continuity", "differentiation", "integration"}
	if len(ids) != len(want) {
		t.Fatalf("path = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, ids[i], want[i])
		}
	}
	if path.EstimatedHours != 44 {
		t.Errorf("hours = %v, want 44", path.EstimatedHours)
	}
	if path.EstimatedDays != 22 {
		t.Errorf("days = %v, want 22", path.EstimatedDays)
	}
	if !path.Steps[0].Unlocked || path.Steps[1].Unlocked {
		t.Errorf("only the first step should be unlocked: %+v", path.Steps[:2])
	}
}

func TestLearningPath_NotFound(t *testing.T) {
	g := testGraph(t)
	if _, err := g.LearningPath("nope", nil); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("expected ErrSkillNotFound, got %v", err)
	}
}

func TestRecommendNext(t *testing.T) {
	g := testGraph(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	levels := Levels{"sets-relations": 3}

	recs := g.RecommendNext(levels, nil, now, 0)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Priority > recs[i-1].Priority {
			t.Errorf("recommendations not sorted at %d", i)
		}
	}
	// sets-relations: 3/5*30 + min(3*10, 30) + 20 = 68
	if recs[0].Skill.ID != "sets-relations" || recs[0].Priority != 68 {
		t.Errorf("top = %s (%.1f), want sets-relations (68)", recs[0].Skill.ID, recs[0].Priority)
	}

	recent := map[string]time.Time{"sets-relations": now.Add(-time.Hour)}
	recs = g.RecommendNext(levels, recent, now, 3)
	if len(recs) != 3 {
		t.Fatalf("limit ignored: got %d", len(recs))
	}
	for _, r := range recs {
		if r.Skill.ID == "sets-relations" && r.Priority != 48 {
			t.Errorf("recently assessed priority = %.1f, want 48", r.Priority)
		}
	}
}

func TestPlacementProbes(t *testing.T) {
	g := testGraph(t)
	probes := g.PlacementProbes()
	if len(probes) != knowledge.NumTopics {
		t.Fatalf("got %d probes, want %d", len(probes), knowledge.NumTopics)
	}
	seen := map[knowledge.Topic]bool{}
	for _, p := range probes {
		if seen[p.Topic] {
			t.Errorf("topic %q probed twice", p.Topic)
		}
		seen[p.Topic] = true
	}
	if probes[0].ID != "kinematics" {
		t.Errorf("mechanics probe = %q, want kinematics", probes[0].ID)
	}
}

func TestResolveState_Icons(t *testing.T) {
	for s := StateLocked; s <= StateMastered; s++ {
		if s.Icon() == "?" || s.Label() == "Unknown" {
			t.Errorf("state %d has no display", s)
		}
	}
}
