package skillgraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

func skill(id string, prereqs ...string) Skill {
	return Skill{
		ID:             id,
		Name:           id,
		Topic:          knowledge.Algebra,
		Difficulty:     TierBeginner,
		EstimatedHours: 1,
		Prerequisites:  prereqs,
	}
}

func TestValidate_DefaultCatalogPasses(t *testing.T) {
	if err := testGraph(t).Validate(); err != nil {
		t.Fatalf("default catalog validation failed: %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		skills []Skill
		want   string
	}{
		{"cycle", []Skill{skill("a", "c"), skill("b", "a"), skill("c", "b"), skill("root")}, "cycle"},
		{"two-node cycle", []Skill{skill("a", "b"), skill("b", "a")}, "cycle"},
		{"self loop", []Skill{skill("a", "a")}, "itself"},
		{"dangling", []Skill{skill("a"), skill("b", "nonexistent")}, "nonexistent"},
		{"duplicate", []Skill{skill("a"), skill("a")}, "duplicate"},
		{"empty", nil, "empty"},
		{"bad tier", []Skill{{ID: "a", Topic: knowledge.Algebra, Difficulty: "legendary", EstimatedHours: 1}}, "tier"},
		{"bad topic", []Skill{{ID: "a", Topic: "astrology", Difficulty: TierBeginner, EstimatedHours: 1}}, "topic"},
		{"zero hours", []Skill{{ID: "a", Topic: knowledge.Algebra, Difficulty: TierBeginner}}, "EstimatedHours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.skills)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if g != nil {
				t.Error("graph should be nil on error")
			}
			if !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("error should wrap ErrInvalidGraph: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	skills := []Skill{skill("a"), skill("b", "a")}
	g, err := New(skills)
	if err != nil {
		t.Fatal(err)
	}
	skills[1].Prerequisites[0] = "zzz"
	if !g.IsUnlocked("b", Levels{"a": 3}) {
		t.Error("graph changed when caller mutated input")
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustNew([]Skill{skill("a", "a")})
}
