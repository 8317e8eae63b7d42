package mastery

import "github.com/abhisek/adaptiq/internal/skillgraph"

// Level names, indexed by level.
var levelNames = [...]string{
	0: "Not Started",
	1: "Beginner",
	2: "Developing",
	3: "Proficient",
	4: "Advanced",
	5: "Master",
}

// LevelName returns the display name of a mastery level.
func LevelName(level int) string {
	if level < 0 || level >= len(levelNames) {
		return "Unknown"
	}
	return levelNames[level]
}

// LevelFor applies the level rule to an accuracy percentage and attempt
// count. Zero attempts is level 0; any evidence is at least level 1.
func LevelFor(accuracyPct float64, attempts int) int {
	switch {
	case accuracyPct >= 95 && attempts >= 20:
		return 5
	case accuracyPct >= 85 && attempts >= 15:
		return 4
	case accuracyPct >= 75 && attempts >= 10:
		return 3
	case accuracyPct >= 60 && attempts >= 5:
		return 2
	case attempts >= 1:
		return 1
	default:
		return 0
	}
}

// Placement levels. A correct placement answer seeds the skill at the
// unlock threshold; a wrong one at level 1.
const (
	PlacementCorrectLevel = skillgraph.UnlockThreshold
	PlacementWrongLevel   = 1
)

// placementFloorAttempts is how many attempts a placement level keeps acting
// as a floor. It matches the attempts the rule needs to award level 3 on
// its own.
const placementFloorAttempts = 10

// Transition records a level change caused by one recorded attempt.
type Transition struct {
	SkillID  string
	From     int
	To       int
	Unlocked bool // crossed the unlock threshold upward
}
