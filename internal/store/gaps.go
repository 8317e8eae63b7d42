package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/gaps"
	"github.com/abhisek/adaptiq/internal/knowledge"
)

// GapRepo stores skill gaps, unique per (student, topic). It implements
// gaps.Repo.
type GapRepo struct {
	s *Store
}

var _ gaps.Repo = (*GapRepo)(nil)

var gapColumns = []string{
	"id", "student_id", "topic", "proficiency_level", "target_level", "severity", "priority",
	"estimated_hours", "progress_percentage", "addressed", "assessed_at",
}

func (r *GapRepo) List(ctx context.Context, studentID string) ([]gaps.Gap, error) {
	b := r.s.builder()
	query, args := b.Select(gapColumns...).
		From(b.Table(tableGaps)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("priority"), "topic").
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list gaps: %w", err)
	}
	defer rows.Close()

	var out []gaps.Gap
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GapRepo) Purge(ctx context.Context, studentID string, keep []knowledge.Topic) (int, error) {
	pred := entsql.EQ("student_id", studentID)
	if len(keep) > 0 {
		ts := make([]string, len(keep))
		for i, t := range keep {
			ts[i] = string(t)
		}
		pred = entsql.And(pred, entsql.NotIn("topic", toAny(ts)...))
	}
	query, args := r.s.builder().Delete(tableGaps).Where(pred).Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge gaps: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Upsert inserts g or updates the stored row for (student, topic), leaving
// its id, progress and addressed flag alone.
func (r *GapRepo) Upsert(ctx context.Context, g *gaps.Gap) error {
	// Only used when the row is new.
	id, err := r.s.seq.Next(ctx)
	if err != nil {
		return err
	}
	b := r.s.builder()
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		query, args := b.Insert(tableGaps).
			Columns(gapColumns...).
			Values(id, g.StudentID, string(g.Topic), g.ProficiencyLevel, g.TargetLevel, string(g.Severity),
				g.Priority, g.EstimatedHours, g.ProgressPercentage, g.Addressed, toMicros(g.AssessedAt)).
			OnConflict(
				entsql.ConflictColumns("student_id", "topic"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.SetExcluded("proficiency_level")
					u.SetExcluded("target_level")
					u.SetExcluded("severity")
					u.SetExcluded("priority")
					u.SetExcluded("estimated_hours")
					u.SetExcluded("assessed_at")
				}),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert gap: %w", err)
		}

		query, args = b.Select("id", "progress_percentage", "addressed").
			From(b.Table(tableGaps)).
			Where(entsql.And(entsql.EQ("student_id", g.StudentID), entsql.EQ("topic", string(g.Topic)))).
			Query()
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.ProgressPercentage, &g.Addressed); err != nil {
			return fmt.Errorf("read back gap: %w", err)
		}
		return nil
	})
}

func (r *GapRepo) SetProgress(ctx context.Context, studentID string, gapID int64, pct float64) (gaps.Gap, error) {
	b := r.s.builder()
	var out gaps.Gap
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		where := entsql.And(entsql.EQ("id", gapID), entsql.EQ("student_id", studentID))
		query, args := b.Update(tableGaps).
			Set("progress_percentage", pct).
			Set("addressed", pct > 0).
			Where(where).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update gap progress: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return gaps.ErrNotFound
		}

		query, args = b.Select(gapColumns...).From(b.Table(tableGaps)).
			Where(entsql.And(entsql.EQ("id", gapID), entsql.EQ("student_id", studentID))).
			Query()
		out, err = scanGap(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return gaps.ErrNotFound
		}
		return err
	})
	return out, err
}

func scanGap(row rowScanner) (gaps.Gap, error) {
	var (
		g               gaps.Gap
		topic, severity string
		assessed        int64
	)
	err := row.Scan(&g.ID, &g.StudentID, &topic, &g.ProficiencyLevel, &g.TargetLevel, &severity, &g.Priority,
		&g.EstimatedHours, &g.ProgressPercentage, &g.Addressed, &assessed)
	if err != nil {
		return gaps.Gap{}, err
	}
	g.Topic = knowledge.Topic(topic)
	g.Severity = gaps.Severity(severity)
	g.AssessedAt = fromMicros(assessed)
	return g, nil
}
