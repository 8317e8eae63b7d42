package skillgraph

import (
	"math"
	"sort"
	"time"
)

// HoursPerDay converts a path's estimated hours into days.
const HoursPerDay = 2.0

// PathStep is one skill on a learning path.
type PathStep struct {
	Skill    Skill
	Level    int
	Unlocked bool
}

// Path is the ordered list of skills a student still needs before (and
// including) a target skill.
type Path struct {
	Target         Skill
	Steps          []PathStep
	EstimatedHours float64
	EstimatedDays  float64
}

// LearningPath returns the target and all of its transitive prerequisites
// still below UnlockThreshold, prerequisites first.
func (g *Graph) LearningPath(targetID string, levels Levels) (Path, error) {
	target, err := g.Skill(targetID)
	if err != nil {
		return Path{}, err
	}

	visited := make(map[string]bool)
	var ids []string
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, p := range g.byID[id].Prerequisites {
			walk(p)
		}
		if levels[id] < UnlockThreshold {
			ids = append(ids, id)
		}
	}
	walk(targetID)

	sort.SliceStable(ids, func(i, j int) bool {
		return g.topoIndex[ids[i]] < g.topoIndex[ids[j]]
	})

	path := Path{Target: target}
	for _, id := range ids {
		s := cloneSkill(*g.byID[id])
		path.Steps = append(path.Steps, PathStep{
			Skill:    s,
			Level:    levels[id],
			Unlocked: g.IsUnlocked(id, levels),
		})
		path.EstimatedHours += s.EstimatedHours
	}
	path.EstimatedDays = math.Round(path.EstimatedHours/HoursPerDay*10) / 10
	return path, nil
}

// Recommendation is a ranked next skill.
type Recommendation struct {
	Skill    Skill
	Level    int
	Unlocks  int
	Priority float64
}

// tierBonus favors easier skills.
var tierBonus = map[Tier]float64{
	TierBeginner:     20,
	TierIntermediate: 10,
	TierAdvanced:     5,
	TierExpert:       2,
}

// recentWindow is how long a just-practiced skill is deprioritized.
const recentWindow = 24 * time.Hour

// RecommendNext ranks unlocked, unmastered skills. Skills close to their next
// level, skills that unlock many others and easier skills rank higher;
// skills assessed within the last day rank lower. Ties keep topological order.
func (g *Graph) RecommendNext(levels Levels, lastAssessed map[string]time.Time, now time.Time, limit int) []Recommendation {
	var recs []Recommendation
	for _, s := range g.AvailableSkills(levels) {
		level := levels[s.ID]
		unlocks := len(g.dependents[s.ID])

		priority := float64(level) / MaxLevel * 30
		priority += math.Min(float64(unlocks)*10, 30)
		priority += tierBonus[s.Difficulty]
		if at, ok := lastAssessed[s.ID]; ok && !at.IsZero() && now.Sub(at) < recentWindow {
			priority -= 20
		}

		recs = append(recs, Recommendation{Skill: s, Level: level, Unlocks: unlocks, Priority: priority})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
