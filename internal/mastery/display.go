package mastery

import (
	"math"

	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// CategoryProgress counts a student's skills in one category.
type CategoryProgress struct {
	Total      int
	Started    int
	Proficient int
	Mastered   int
}

// Overview summarizes a student's mastery across the catalog.
type Overview struct {
	TotalSkills  int
	Started      int
	Unlocked     int
	Mastered     int
	AverageLevel float64
	ByCategory   map[string]CategoryProgress
}

// BuildOverview summarizes rows against the graph. Rows for skills not in
// the graph are ignored.
func BuildOverview(g *skillgraph.Graph, rows []StudentMastery) Overview {
	levels := make(skillgraph.Levels, len(rows))
	for _, m := range rows {
		if g.Has(m.SkillID) {
			levels[m.SkillID] = m.Level
		}
	}

	ov := Overview{TotalSkills: g.Len(), ByCategory: make(map[string]CategoryProgress)}
	var levelSum int
	for _, s := range g.Skills() {
		cp := ov.ByCategory[s.Category]
		cp.Total++

		level := levels[s.ID]
		if g.IsUnlocked(s.ID, levels) {
			ov.Unlocked++
		}
		if level > 0 {
			ov.Started++
			cp.Started++
			levelSum += level
		}
		if level >= skillgraph.UnlockThreshold {
			cp.Proficient++
		}
		if level >= skillgraph.MaxLevel {
			ov.Mastered++
			cp.Mastered++
		}
		ov.ByCategory[s.Category] = cp
	}
	if ov.Started > 0 {
		ov.AverageLevel = math.Round(float64(levelSum)/float64(ov.Started)*100) / 100
	}
	return ov
}
