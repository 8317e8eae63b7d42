package skillgraph

import (
	"fmt"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// Tier is an ordinal difficulty tier.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierExpert       Tier = "expert"
)

// AllTiers returns the tiers from easiest to hardest.
func AllTiers() []Tier {
	return []Tier{TierBeginner, TierIntermediate, TierAdvanced, TierExpert}
}

// Rank returns 1..4 for known tiers and 0 otherwise.
func (t Tier) Rank() int {
	switch t {
	case TierBeginner:
		return 1
	case TierIntermediate:
		return 2
	case TierAdvanced:
		return 3
	case TierExpert:
		return 4
	default:
		return 0
	}
}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if t.Rank() == 0 {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// Skill is a curriculum node.
type Skill struct {
	ID             string
	Name           string
	Description    string
	Category       string
	Topic          knowledge.Topic
	Difficulty     Tier
	EstimatedHours float64
	Prerequisites  []string
}

// UnlockThreshold is the mastery level every prerequisite must reach before
// a dependent skill unlocks.
const UnlockThreshold = 3

// MaxLevel is the top mastery level.
const MaxLevel = 5

// Levels maps skill ID to a student's mastery level. Missing skills are level 0.
type Levels map[string]int

// SkillState represents a skill's state relative to the student.
type SkillState int

const (
	StateLocked     SkillState = iota // A prerequisite is below the unlock threshold
	StateAvailable                    // Unlocked, no attempts yet
	StateLearning                     // Level 1-2
	StateProficient                   // Level 3-4
	StateMastered                     // Level 5
)

// ResolveState derives the display state from a level and the unlock check.
func ResolveState(level int, unlocked bool) SkillState {
	switch {
	case level >= MaxLevel:
		return StateMastered
	case level >= UnlockThreshold:
		return StateProficient
	case level > 0:
		return StateLearning
	case unlocked:
		return StateAvailable
	default:
		return StateLocked
	}
}

// Icon returns the display icon for a skill state.
func (s SkillState) Icon() string {
	switch s {
	case StateLocked:
		return "🔒"
	case StateAvailable:
		return "🔓"
	case StateLearning:
		return "📖"
	case StateProficient:
		return "📝"
	case StateMastered:
		return "✅"
	default:
		return "?"
	}
}

// Label returns the display label for a skill state.
func (s SkillState) Label() string {
	switch s {
	case StateLocked:
		return "Locked"
	case StateAvailable:
		return "Available"
	case StateLearning:
		return "Learning"
	case StateProficient:
		return "Proficient"
	case StateMastered:
		return "Mastered"
	default:
		return "Unknown"
	}
}
