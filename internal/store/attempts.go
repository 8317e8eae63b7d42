package store

import (
	"context"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/peers"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// AttemptRepo is the append-only interaction log. It implements
// tutor.AttemptLog and knowledge.AttemptSource.
type AttemptRepo struct {
	s *Store
}

var (
	_ tutor.AttemptLog        = (*AttemptRepo)(nil)
	_ knowledge.AttemptSource = (*AttemptRepo)(nil)
	_ peers.Source            = (*AttemptRepo)(nil)
)

var attemptColumns = []string{
	"id", "sequence", "student_id", "content_id", "skill_id", "topic", "difficulty", "correct",
	"time_spent", "pre_state", "action", "reward", "post_state", "created_at",
}

// Append assigns the next global sequence to a and inserts it.
func (r *AttemptRepo) Append(ctx context.Context, a *tutor.Attempt) error {
	pre, err := json.Marshal(a.PreState.Map())
	if err != nil {
		return fmt.Errorf("marshal pre-state: %w", err)
	}
	post, err := json.Marshal(a.PostState.Map())
	if err != nil {
		return fmt.Errorf("marshal post-state: %w", err)
	}
	seq, err := r.s.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := r.s.builder().Insert(tableAttempts).
		Columns(attemptColumns...).
		Values(a.ID, seq, a.StudentID, a.ContentID, a.SkillID, string(a.Topic), a.Difficulty, a.Correct,
			a.TimeSpent, string(pre), a.Action, a.Reward, string(post), toMicros(a.CreatedAt)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	a.Sequence = seq
	return nil
}

// Recent returns the student's latest attempts, newest first.
func (r *AttemptRepo) Recent(ctx context.Context, studentID string, limit int) ([]tutor.Attempt, error) {
	sel := r.recent(studentID, limit, attemptColumns...)
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []tutor.Attempt
	for rows.Next() {
		var (
			a         tutor.Attempt
			topic     string
			pre, post string
			created   int64
		)
		if err := rows.Scan(&a.ID, &a.Sequence, &a.StudentID, &a.ContentID, &a.SkillID, &topic, &a.Difficulty,
			&a.Correct, &a.TimeSpent, &pre, &a.Action, &a.Reward, &post, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Topic = knowledge.Topic(topic)
		a.CreatedAt = fromMicros(created)
		if a.PreState, err = decodeState(pre); err != nil {
			return nil, fmt.Errorf("attempt %s pre-state: %w", a.ID, err)
		}
		if a.PostState, err = decodeState(post); err != nil {
			return nil, fmt.Errorf("attempt %s post-state: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecentObservations returns only topic and correctness of the latest
// attempts, newest first.
func (r *AttemptRepo) RecentObservations(ctx context.Context, studentID string, limit int) ([]knowledge.Observation, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args := r.recent(studentID, limit, "topic", "correct").Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var out []knowledge.Observation
	for rows.Next() {
		var (
			topic   string
			correct bool
		)
		if err := rows.Scan(&topic, &correct); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, knowledge.Observation{Topic: knowledge.Topic(topic), Correct: correct})
	}
	return out, rows.Err()
}

// Interactions returns the latest attempts across all students, newest
// first. A non-positive limit returns everything.
func (r *AttemptRepo) Interactions(ctx context.Context, limit int) ([]peers.Interaction, error) {
	b := r.s.builder()
	sel := b.Select("student_id", "content_id", "correct", "time_spent").
		From(b.Table(tableAttempts)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []peers.Interaction
	for rows.Next() {
		var in peers.Interaction
		if err := rows.Scan(&in.StudentID, &in.ContentID, &in.Correct, &in.TimeSpent); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Count returns the number of logged attempts.
func (r *AttemptRepo) Count(ctx context.Context) (int64, error) {
	b := r.s.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableAttempts)).Query()
	var n int64
	if err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (r *AttemptRepo) recent(studentID string, limit int, columns ...string) *entsql.Selector {
	b := r.s.builder()
	sel := b.Select(columns...).
		From(b.Table(tableAttempts)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return sel
}

func decodeState(raw string) (knowledge.State, error) {
	var m map[string]float64
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return knowledge.State{}, err
	}
	return knowledge.NewState(m)
}
