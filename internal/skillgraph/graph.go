// Package skillgraph holds the prerequisite DAG of curriculum skills and the
// unlock rules that gate them.
package skillgraph

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// ErrSkillNotFound is returned for unknown skill IDs.
var ErrSkillNotFound = errors.New("skill not found")

// Graph is a validated, immutable skill DAG with precomputed indices.
// It is safe for concurrent use.
type Graph struct {
	skills     []Skill
	byID       map[string]*Skill
	byTopic    map[knowledge.Topic][]Skill
	byCategory map[string][]Skill
	roots      []Skill
	dependents map[string][]string
	topoOrder  []Skill
	topoIndex  map[string]int
}

// New validates skills and builds the graph. Cycles, duplicate IDs,
// dangling prerequisites, unknown tiers or topics and non-positive hours are
// all construction errors.
func New(skills []Skill) (*Graph, error) {
	if err := validateSkills(skills); err != nil {
		return nil, err
	}
	return buildGraph(skills), nil
}

// MustNew is New for static catalogs.
func MustNew(skills []Skill) *Graph {
	g, err := New(skills)
	if err != nil {
		panic(err)
	}
	return g
}

// buildGraph constructs the graph from a validated slice of skills.
// It builds all indices including topological order (Kahn's algorithm).
func buildGraph(skills []Skill) *Graph {
	gr := &Graph{
		skills:     cloneSkills(skills),
		byID:       make(map[string]*Skill, len(skills)),
		byTopic:    make(map[knowledge.Topic][]Skill),
		byCategory: make(map[string][]Skill),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(skills)),
	}

	// Build ID index
	for i := range gr.skills {
		gr.byID[gr.skills[i].ID] = &gr.skills[i]
	}

	// Build reverse edges (dependents)
	for i := range gr.skills {
		for _, prereqID := range gr.skills[i].Prerequisites {
			gr.dependents[prereqID] = append(gr.dependents[prereqID], gr.skills[i].ID)
		}
	}
	for id := range gr.dependents {
		sort.Strings(gr.dependents[id])
	}

	// Topological sort (Kahn's algorithm)
	inDegree := make(map[string]int, len(gr.skills))
	for i := range gr.skills {
		inDegree[gr.skills[i].ID] = len(gr.skills[i].Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort initial queue for deterministic ordering
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		gr.topoOrder = append(gr.topoOrder, *gr.byID[id])
		for _, depID := range gr.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	for i, s := range gr.topoOrder {
		gr.topoIndex[s.ID] = i
	}

	// Roots, topic and category groups all follow topological order
	for _, s := range gr.topoOrder {
		if len(s.Prerequisites) == 0 {
			gr.roots = append(gr.roots, s)
		}
		gr.byTopic[s.Topic] = append(gr.byTopic[s.Topic], s)
		gr.byCategory[s.Category] = append(gr.byCategory[s.Category], s)
	}

	return gr
}

// Skill returns a skill by ID.
func (g *Graph) Skill(id string) (Skill, error) {
	s, ok := g.byID[id]
	if !ok {
		return Skill{}, fmt.Errorf("%w: %q", ErrSkillNotFound, id)
	}
	return cloneSkill(*s), nil
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Len returns the number of skills.
func (g *Graph) Len() int {
	return len(g.skills)
}

// Skills returns all skills in catalog order.
func (g *Graph) Skills() []Skill {
	return cloneSkills(g.skills)
}

// ByTopic returns the skills of a topic in topological order.
func (g *Graph) ByTopic(t knowledge.Topic) []Skill {
	return cloneSkills(g.byTopic[t])
}

// ByCategory returns the skills of a category in topological order.
func (g *Graph) ByCategory(category string) []Skill {
	return cloneSkills(g.byCategory[category])
}

// Categories returns the category names, sorted.
func (g *Graph) Categories() []string {
	out := make([]string, 0, len(g.byCategory))
	for c := range g.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Roots returns all skills with no prerequisites.
func (g *Graph) Roots() []Skill {
	return cloneSkills(g.roots)
}

// Prerequisites returns the direct prerequisite skills for a given skill ID.
func (g *Graph) Prerequisites(id string) []Skill {
	s, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]Skill, 0, len(s.Prerequisites))
	for _, prereqID := range s.Prerequisites {
		if p, ok := g.byID[prereqID]; ok {
			result = append(result, cloneSkill(*p))
		}
	}
	return result
}

// Dependents returns skills that directly depend on the given skill ID.
func (g *Graph) Dependents(id string) []Skill {
	depIDs := g.dependents[id]
	result := make([]Skill, 0, len(depIDs))
	for _, depID := range depIDs {
		if s, ok := g.byID[depID]; ok {
			result = append(result, cloneSkill(*s))
		}
	}
	return result
}

// IsUnlocked reports whether every prerequisite of id has reached
// UnlockThreshold. Skills without prerequisites are always unlocked; unknown
// skills never are.
func (g *Graph) IsUnlocked(id string, levels Levels) bool {
	s, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range s.Prerequisites {
		if levels[prereqID] < UnlockThreshold {
			return false
		}
	}
	return true
}

// MissingPrerequisites returns the prerequisites of id still below the
// unlock threshold, in declaration order.
func (g *Graph) MissingPrerequisites(id string, levels Levels) []string {
	s, ok := g.byID[id]
	if !ok {
		return nil
	}
	var out []string
	for _, prereqID := range s.Prerequisites {
		if levels[prereqID] < UnlockThreshold {
			out = append(out, prereqID)
		}
	}
	return out
}

// State returns the display state of a skill for a student.
func (g *Graph) State(id string, levels Levels) SkillState {
	return ResolveState(levels[id], g.IsUnlocked(id, levels))
}

// AvailableSkills returns unlocked skills below MaxLevel, in topological order.
func (g *Graph) AvailableSkills(levels Levels) []Skill {
	var result []Skill
	for _, s := range g.topoOrder {
		if levels[s.ID] < MaxLevel && g.IsUnlocked(s.ID, levels) {
			result = append(result, cloneSkill(s))
		}
	}
	return result
}

// FrontierSkills returns available skills the student has not started,
// preferring ones with prerequisites (forward progress). Falls back to
// every unstarted available skill.
func (g *Graph) FrontierSkills(levels Levels) []Skill {
	var unstarted, frontier []Skill
	for _, s := range g.AvailableSkills(levels) {
		if levels[s.ID] > 0 {
			continue
		}
		unstarted = append(unstarted, s)
		if len(s.Prerequisites) > 0 {
			frontier = append(frontier, s)
		}
	}
	if len(frontier) == 0 {
		return unstarted
	}
	return frontier
}

// BlockedSkills returns all skills that have at least one prerequisite
// below the unlock threshold.
func (g *Graph) BlockedSkills(levels Levels) []Skill {
	var result []Skill
	for _, s := range g.topoOrder {
		if !g.IsUnlocked(s.ID, levels) {
			result = append(result, cloneSkill(s))
		}
	}
	return result
}

// TopologicalOrder returns all skills in a valid topological order.
func (g *Graph) TopologicalOrder() []Skill {
	return cloneSkills(g.topoOrder)
}

// Validate re-runs the structural checks on the graph's skills.
func (g *Graph) Validate() error {
	return validateSkills(g.skills)
}

func cloneSkill(s Skill) Skill {
	s.Prerequisites = slices.Clone(s.Prerequisites)
	return s
}

func cloneSkills(skills []Skill) []Skill {
	if skills == nil {
		return nil
	}
	out := make([]Skill, len(skills))
	for i, s := range skills {
		out[i] = cloneSkill(s)
	}
	return out
}
