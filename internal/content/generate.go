package content

import (
	"fmt"

	"github.com/abhisek/adaptiq/internal/skillgraph"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// Formats cycled through by Generate.
var Formats = []string{"text", "visual", "interactive"}

// tierRange is the difficulty span generated for each tier.
var tierRange = map[skillgraph.Tier][2]int{
	skillgraph.TierBeginner:     {1, 3},
	skillgraph.TierIntermediate: {3, 6},
	skillgraph.TierAdvanced:     {5, 8},
	skillgraph.TierExpert:       {7, 10},
}

// Generate builds a placeholder bank with perSkill multiple-choice items for
// every skill in g, in topological order. Ids start at firstID.
// Difficulties spread across the skill's tier range.
func Generate(g *skillgraph.Graph, perSkill int, firstID int64) []tutor.ContentInfo {
	if perSkill <= 0 {
		return nil
	}
	skills := g.TopologicalOrder()
	out := make([]tutor.ContentInfo, 0, len(skills)*perSkill)
	id := firstID
	for _, s := range skills {
		r := tierRange[s.Difficulty]
		for i := 0; i < perSkill; i++ {
			d := r[0]
			if perSkill > 1 {
				d = r[0] + (r[1]-r[0])*i/(perSkill-1)
			}
			out = append(out, tutor.ContentInfo{
				ID:            id,
				Topic:         s.Topic,
				Difficulty:    d,
				CorrectAnswer: string(rune('A' + id%4)),
				Format:        Formats[int(id)%len(Formats)],
				SkillID:       s.ID,
				Prompt:        fmt.Sprintf("%s: practice question %d of %d", s.Name, i+1, perSkill),
			})
			id++
		}
	}
	return out
}
