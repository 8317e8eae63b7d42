package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// SkillRepo stores the skill catalog and its prerequisite edges.
type SkillRepo struct {
	s *Store
}

// Replace validates skills as a graph and swaps them in for the stored
// catalog in one transaction.
func (r *SkillRepo) Replace(ctx context.Context, skills []skillgraph.Skill) error {
	if _, err := skillgraph.New(skills); err != nil {
		return err
	}
	b := r.s.builder()
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{tablePrerequisites, tableSkills} {
			query, args := b.Delete(table).Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		ins := b.Insert(tableSkills).
			Columns("id", "name", "description", "category", "topic", "tier", "estimated_hours")
		edges := b.Insert(tablePrerequisites).Columns("skill_id", "prerequisite_id", "position")
		nEdges := 0
		for _, sk := range skills {
			ins.Values(sk.ID, sk.Name, sk.Description, sk.Category, string(sk.Topic), string(sk.Difficulty), sk.EstimatedHours)
			for i, p := range sk.Prerequisites {
				edges.Values(sk.ID, p, i)
				nEdges++
			}
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert skills: %w", err)
		}
		if nEdges > 0 {
			query, args = edges.Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert prerequisites: %w", err)
			}
		}
		return nil
	})
}

// List returns the stored skills ordered by id, with prerequisites in
// declaration order.
func (r *SkillRepo) List(ctx context.Context) ([]skillgraph.Skill, error) {
	b := r.s.builder()
	query, args := b.Select("id", "name", "description", "category", "topic", "tier", "estimated_hours").
		From(b.Table(tableSkills)).
		OrderBy("id").
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []skillgraph.Skill
	index := make(map[string]int)
	for rows.Next() {
		var (
			sk          skillgraph.Skill
			topic, tier string
		)
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Description, &sk.Category, &topic, &tier, &sk.EstimatedHours); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		sk.Topic = knowledge.Topic(topic)
		sk.Difficulty = skillgraph.Tier(tier)
		index[sk.ID] = len(skills)
		skills = append(skills, sk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	query, args = b.Select("skill_id", "prerequisite_id").
		From(b.Table(tablePrerequisites)).
		OrderBy("skill_id", "position").
		Query()
	edges, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	defer edges.Close()
	for edges.Next() {
		var id, prereq string
		if err := edges.Scan(&id, &prereq); err != nil {
			return nil, fmt.Errorf("scan prerequisite: %w", err)
		}
		if i, ok := index[id]; ok {
			skills[i].Prerequisites = append(skills[i].Prerequisites, prereq)
		}
	}
	return skills, edges.Err()
}

// Graph builds the stored catalog. An empty catalog is seeded with
// skillgraph.DefaultCatalog first.
func (r *SkillRepo) Graph(ctx context.Context) (*skillgraph.Graph, error) {
	skills, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		skills = skillgraph.DefaultCatalog()
		if err := r.Replace(ctx, skills); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}
	return skillgraph.New(skills)
}
