package skillgraph

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidGraph is wrapped by every construction failure.
var ErrInvalidGraph = errors.New("skill graph validation failed")

// validateSkills reports every structural problem in skills at once.
func validateSkills(skills []Skill) error {
	var errs []string

	if len(skills) == 0 {
		return fmt.Errorf("%w:\n  catalog is empty", ErrInvalidGraph)
	}

	idSet := make(map[string]bool, len(skills))

	for _, s := range skills {
		if s.ID == "" {
			errs = append(errs, fmt.Sprintf("skill %q has an empty ID", s.Name))
			continue
		}
		if idSet[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate skill ID: %q", s.ID))
		}
		idSet[s.ID] = true

		if s.Difficulty.Rank() == 0 {
			errs = append(errs, fmt.Sprintf("skill %q has unknown tier %q", s.ID, s.Difficulty))
		}
		if !s.Topic.Valid() {
			errs = append(errs, fmt.Sprintf("skill %q has unknown topic %q", s.ID, s.Topic))
		}
		if math.IsNaN(s.EstimatedHours) || s.EstimatedHours <= 0 {
			errs = append(errs, fmt.Sprintf("skill %q: EstimatedHours must be > 0, got %v", s.ID, s.EstimatedHours))
		}
	}

	for _, s := range skills {
		for _, prereqID := range s.Prerequisites {
			if prereqID == s.ID {
				errs = append(errs, fmt.Sprintf("skill %q lists itself as a prerequisite", s.ID))
				continue
			}
			if !idSet[prereqID] {
				errs = append(errs, fmt.Sprintf("skill %q references nonexistent prerequisite %q", s.ID, prereqID))
			}
		}
	}

	if cycle := findCycle(skills, idSet); cycle != nil {
		errs = append(errs, fmt.Sprintf("cycle detected: %s", strings.Join(cycle, " -> ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidGraph, strings.Join(errs, "\n  "))
	}
	return nil
}

// findCycle walks prerequisite edges depth-first and returns the first cycle
// found as a closed path (first id repeated at the end), or nil.
func findCycle(skills []Skill, known map[string]bool) []string {
	prereqs := make(map[string][]string, len(skills))
	for _, s := range skills {
		prereqs[s.ID] = s.Prerequisites
	}

	const (
		unseen = iota
		onStack
		done
	)
	color := make(map[string]int, len(skills))
	var stack []string
	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = onStack
		stack = append(stack, id)
		for _, p := range prereqs[id] {
			if !known[p] || p == id {
				continue // reported above
			}
			switch color[p] {
			case onStack:
				i := len(stack) - 1
				for stack[i] != p {
					i--
				}
				return append(append([]string(nil), stack[i:]...), p)
			case unseen:
				if c := visit(p); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = done
		return nil
	}

	for _, s := range skills {
		if color[s.ID] == unseen {
			if c := visit(s.ID); c != nil {
				return c
			}
		}
	}
	return nil
}
