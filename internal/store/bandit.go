package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/bandit"
)

// BanditRepo stores per-student format bandit arms. It implements
// bandit.Repo.
type BanditRepo struct {
	s *Store
}

var _ bandit.Repo = (*BanditRepo)(nil)

// Arms returns the student's pulled arms in format order.
func (r *BanditRepo) Arms(ctx context.Context, studentID string) ([]bandit.Arm, error) {
	b := r.s.builder()
	query, args := b.Select("format", "pulls", "total_reward").
		From(b.Table(tableBandit)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("format").
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bandit arms: %w", err)
	}
	defer rows.Close()

	var out []bandit.Arm
	for rows.Next() {
		var a bandit.Arm
		if err := rows.Scan(&a.Format, &a.Pulls, &a.TotalReward); err != nil {
			return nil, fmt.Errorf("scan bandit arm: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Record adds one pull in a single upsert, so concurrent records for the
// same arm add up.
func (r *BanditRepo) Record(ctx context.Context, studentID, format string, reward float64) error {
	query, args := r.s.builder().Insert(tableBandit).
		Columns("student_id", "format", "pulls", "total_reward", "updated_at").
		Values(studentID, format, 1, reward, toMicros(time.Now())).
		OnConflict(
			entsql.ConflictColumns("student_id", "format"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Add("pulls", 1)
				u.Add("total_reward", reward)
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record bandit pull: %w", err)
	}
	return nil
}
