package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// ContentRepo stores question metadata. It implements tutor.ContentLookup.
type ContentRepo struct {
	s *Store
}

var _ tutor.ContentLookup = (*ContentRepo)(nil)

var contentColumns = []string{"id", "topic", "difficulty", "correct_answer", "format", "skill_id", "prompt"}

// Upsert inserts or replaces content items.
func (r *ContentRepo) Upsert(ctx context.Context, items []tutor.ContentInfo) error {
	if len(items) == 0 {
		return nil
	}
	ins := r.s.builder().Insert(tableContent).Columns(contentColumns...)
	for _, it := range items {
		if !it.Topic.Valid() {
			return fmt.Errorf("content %d: unknown topic %q", it.ID, it.Topic)
		}
		if it.Difficulty < 1 || it.Difficulty > 10 {
			return fmt.Errorf("content %d: difficulty %d outside 1..10", it.ID, it.Difficulty)
		}
		ins.Values(it.ID, string(it.Topic), it.Difficulty, it.CorrectAnswer, it.Format, it.SkillID, it.Prompt)
	}
	query, args := ins.OnConflict(
		entsql.ConflictColumns("id"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			for _, c := range contentColumns[1:] {
				u.SetExcluded(c)
			}
		}),
	).Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}
	return nil
}

// Content returns one item, wrapping tutor.ErrNotFound when missing.
func (r *ContentRepo) Content(ctx context.Context, id int64) (tutor.ContentInfo, error) {
	b := r.s.builder()
	query, args := b.Select(contentColumns...).
		From(b.Table(tableContent)).
		Where(entsql.EQ("id", id)).
		Query()
	it, err := scanContent(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return tutor.ContentInfo{}, fmt.Errorf("content %d: %w", id, tutor.ErrNotFound)
	}
	if err != nil {
		return tutor.ContentInfo{}, fmt.Errorf("query content %d: %w", id, err)
	}
	return it, nil
}

// ListContent returns items matching q ordered by id.
func (r *ContentRepo) ListContent(ctx context.Context, q tutor.ContentQuery) ([]tutor.ContentInfo, error) {
	b := r.s.builder()
	sel := b.Select(contentColumns...).From(b.Table(tableContent)).OrderBy("id")

	var preds []*entsql.Predicate
	if len(q.SkillIDs) > 0 {
		preds = append(preds, entsql.In("skill_id", toAny(q.SkillIDs)...))
	}
	if len(q.Topics) > 0 {
		ts := make([]string, len(q.Topics))
		for i, t := range q.Topics {
			ts[i] = string(t)
		}
		preds = append(preds, entsql.In("topic", toAny(ts)...))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var out []tutor.ContentInfo
	for rows.Next() {
		it, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Count returns the number of stored items.
func (r *ContentRepo) Count(ctx context.Context) (int, error) {
	b := r.s.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(tableContent)).Query()
	var n int
	if err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (tutor.ContentInfo, error) {
	var (
		it    tutor.ContentInfo
		topic string
	)
	if err := row.Scan(&it.ID, &topic, &it.Difficulty, &it.CorrectAnswer, &it.Format, &it.SkillID, &it.Prompt); err != nil {
		return tutor.ContentInfo{}, err
	}
	it.Topic = knowledge.Topic(topic)
	return it, nil
}

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
