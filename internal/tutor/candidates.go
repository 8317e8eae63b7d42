package tutor

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// DefaultCandidateLimit caps how many content items NextQuestion considers.
const DefaultCandidateLimit = 20

// Candidates returns content ids the student may practice now. Content
// attached to frontier skills (unlocked, not started) comes first, then
// content for skills already in progress. When no content is attached to
// those skills, content is matched by their topics instead.
func (s *Service) Candidates(ctx context.Context, studentID string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	levels, err := s.mastery.Levels(ctx, studentID)
	if err != nil {
		return nil, err
	}

	skills := orderForPractice(s.graph, levels)
	if len(skills) == 0 {
		return nil, nil
	}

	var items []ContentInfo
	var topics []knowledge.Topic
	seenTopic := make(map[knowledge.Topic]bool)
	for _, sk := range skills {
		if !seenTopic[sk.Topic] {
			seenTopic[sk.Topic] = true
			topics = append(topics, sk.Topic)
		}
		if len(items) >= limit {
			continue
		}
		got, err := s.content.ListContent(ctx, ContentQuery{SkillIDs: []string{sk.ID}, Limit: limit - len(items)})
		if err != nil {
			return nil, fmt.Errorf("list content for %s: %w", sk.ID, err)
		}
		items = append(items, got...)
	}
	if len(items) == 0 {
		items, err = s.content.ListContent(ctx, ContentQuery{Topics: topics, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("list content by topic: %w", err)
		}
	}

	out := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it.ID)
		}
	}
	return out, nil
}

// orderForPractice lists frontier skills first, then the remaining
// available skills, each in topological order.
func orderForPractice(g *skillgraph.Graph, levels skillgraph.Levels) []skillgraph.Skill {
	frontier := g.FrontierSkills(levels)
	out := make([]skillgraph.Skill, 0, len(frontier))
	picked := make(map[string]bool, len(frontier))
	for _, sk := range frontier {
		picked[sk.ID] = true
		out = append(out, sk)
	}
	for _, sk := range g.AvailableSkills(levels) {
		if !picked[sk.ID] {
			out = append(out, sk)
		}
	}
	return out
}
