package skillgraph

import "github.com/abhisek/adaptiq/internal/knowledge"

// PlacementProbes picks one skill per topic for a placement quiz: the
// easiest tier, earliest in topological order. Topics without skills are
// skipped.
func (g *Graph) PlacementProbes() []Skill {
	var out []Skill
	for _, t := range knowledge.AllTopics() {
		skills := g.byTopic[t]
		if len(skills) == 0 {
			continue
		}
		best := skills[0]
		for _, s := range skills[1:] {
			if s.Difficulty.Rank() < best.Difficulty.Rank() {
				best = s
			}
		}
		out = append(out, cloneSkill(best))
	}
	return out
}
