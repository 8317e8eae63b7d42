package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/mastery"
)

// MasteryRepo stores StudentMastery rows with optimistic versioning. It
// implements mastery.Repo.
type MasteryRepo struct {
	s *Store
}

var _ mastery.Repo = (*MasteryRepo)(nil)

var masteryColumns = []string{
	"student_id", "skill_id", "level", "total_attempts", "correct_attempts",
	"total_practice_secs", "placement_level", "last_assessed_at", "mastered_at", "version",
}

func (r *MasteryRepo) Get(ctx context.Context, studentID, skillID string) (*mastery.StudentMastery, error) {
	b := r.s.builder()
	query, args := b.Select(masteryColumns...).
		From(b.Table(tableMastery)).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("skill_id", skillID))).
		Query()
	m, err := scanMastery(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query mastery: %w", err)
	}
	return m, nil
}

func (r *MasteryRepo) List(ctx context.Context, studentID string) ([]mastery.StudentMastery, error) {
	b := r.s.builder()
	query, args := b.Select(masteryColumns...).
		From(b.Table(tableMastery)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("skill_id").
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	var out []mastery.StudentMastery
	for rows.Next() {
		m, err := scanMastery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MasteryRepo) Create(ctx context.Context, m *mastery.StudentMastery) error {
	query, args := r.s.builder().Insert(tableMastery).
		Columns(masteryColumns...).
		Values(m.StudentID, m.SkillID, m.Level, m.TotalAttempts, m.CorrectAttempts,
			m.TotalPracticeSecs, m.PlacementLevel, toMicros(m.LastAssessedAt), nullMicros(m.MasteredAt), 1).
		OnConflict(entsql.ConflictColumns("student_id", "skill_id"), entsql.DoNothing()).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert mastery: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return mastery.ErrConflict
	}
	m.Version = 1
	return nil
}

func (r *MasteryRepo) Update(ctx context.Context, m *mastery.StudentMastery) error {
	query, args := r.s.builder().Update(tableMastery).
		Set("level", m.Level).
		Set("total_attempts", m.TotalAttempts).
		Set("correct_attempts", m.CorrectAttempts).
		Set("total_practice_secs", m.TotalPracticeSecs).
		Set("placement_level", m.PlacementLevel).
		Set("last_assessed_at", toMicros(m.LastAssessedAt)).
		Set("mastered_at", nullMicros(m.MasteredAt)).
		Set("version", m.Version+1).
		Where(entsql.And(
			entsql.EQ("student_id", m.StudentID),
			entsql.EQ("skill_id", m.SkillID),
			entsql.EQ("version", m.Version),
		)).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update mastery: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return mastery.ErrConflict
	}
	m.Version++
	return nil
}

func scanMastery(row rowScanner) (*mastery.StudentMastery, error) {
	var (
		m          mastery.StudentMastery
		assessed   int64
		masteredAt sql.NullInt64
	)
	err := row.Scan(&m.StudentID, &m.SkillID, &m.Level, &m.TotalAttempts, &m.CorrectAttempts,
		&m.TotalPracticeSecs, &m.PlacementLevel, &assessed, &masteredAt, &m.Version)
	if err != nil {
		return nil, err
	}
	m.LastAssessedAt = fromMicros(assessed)
	if masteredAt.Valid {
		t := fromMicros(masteredAt.Int64)
		m.MasteredAt = &t
	}
	return &m, nil
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*t), Valid: true}
}
