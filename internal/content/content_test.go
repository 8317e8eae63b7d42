package content

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/skillgraph"
)

func TestBank_RoundTrip(t *testing.T) {
	items := Generate(skillgraph.DefaultGraph(), 3, 100)

	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing items", `{}`},
		{"unknown topic", `{"items": [{"id": 1, "topic": "astrology", "difficulty": 3, "correct_answer": "A"}]}`},
		{"difficulty too high", `{"items": [{"id": 1, "topic": "optics", "difficulty": 11, "correct_answer": "A"}]}`},
		{"fractional difficulty", `{"items": [{"id": 1, "topic": "optics", "difficulty": 2.5, "correct_answer": "A"}]}`},
		{"zero id", `{"items": [{"id": 0, "topic": "optics", "difficulty": 3, "correct_answer": "A"}]}`},
		{"empty answer", `{"items": [{"id": 1, "topic": "optics", "difficulty": 3, "correct_answer": ""}]}`},
		{"extra field", `{"items": [{"id": 1, "topic": "optics", "difficulty": 3, "correct_answer": "A", "hint": "x"}]}`},
		{"duplicate id", `{"items": [
			{"id": 1, "topic": "optics", "difficulty": 3, "correct_answer": "A"},
			{"id": 1, "topic": "algebra", "difficulty": 4, "correct_answer": "B"}
		]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.json)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	g := skillgraph.DefaultGraph()
	items := Generate(g, 4, 1)
	if len(items) != g.Len()*4 {
		t.Fatalf("got %d items, want %d", len(items), g.Len()*4)
	}

	seen := make(map[int64]bool)
	for i, it := range items {
		if it.ID != int64(i+1) {
			t.Errorf("item %d has id %d", i, it.ID)
		}
		seen[it.ID] = true
		if it.Difficulty < 1 || it.Difficulty > 10 {
			t.Errorf("item %d difficulty %d out of range", it.ID, it.Difficulty)
		}
		if !it.Topic.Valid() {
			t.Errorf("item %d has topic %q", it.ID, it.Topic)
		}
		sk, err := g.Skill(it.SkillID)
		if err != nil {
			t.Fatalf("item %d: %v", it.ID, err)
		}
		if sk.Topic != it.Topic {
			t.Errorf("item %d topic %s, skill topic %s", it.ID, it.Topic, sk.Topic)
		}
	}

	// Each skill's items span its tier range.
	first := items[:4]
	r := tierRange[mustSkill(t, g, first[0].SkillID).Difficulty]
	if first[0].Difficulty != r[0] || first[3].Difficulty != r[1] {
		t.Errorf("difficulties %d..%d, want %d..%d", first[0].Difficulty, first[3].Difficulty, r[0], r[1])
	}

	if got := Generate(g, 0, 1); got != nil {
		t.Errorf("perSkill 0 should generate nothing, got %d", len(got))
	}
	if one := Generate(g, 1, 1); one[0].Topic == knowledge.Topic("") {
		t.Error("single-item generation lost the topic")
	}
}

func mustSkill(t *testing.T, g *skillgraph.Graph, id string) skillgraph.Skill {
	t.Helper()
	s, err := g.Skill(id)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
