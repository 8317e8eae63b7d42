package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

// QTable is a qlearn.Table stored in the q_values table. Each update runs in
// its own transaction; on Postgres the cell is locked with SELECT ... FOR
// UPDATE, on SQLite the single connection serializes writers.
type QTable struct {
	s *Store
}

var _ qlearn.Table = (*QTable)(nil)

func (q *QTable) Get(ctx context.Context, state int64, action int) (float64, error) {
	return q.get(ctx, q.s.db, state, action, false)
}

func (q *QTable) Update(ctx context.Context, u qlearn.TDUpdate) (float64, error) {
	var v float64
	err := q.s.withTx(ctx, func(tx *sql.Tx) error {
		b := q.s.builder()
		// Make sure the cell exists so it can be locked.
		query, args := b.Insert(tableQValues).
			Columns("state", "action", "value", "updated_at").
			Values(u.State, u.Action, 0.0, time.Now().UnixMicro()).
			OnConflict(entsql.ConflictColumns("state", "action"), entsql.DoNothing()).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed Q cell: %w", err)
		}

		old, err := q.get(ctx, tx, u.State, u.Action, q.s.dialect == dialect.Postgres)
		if err != nil {
			return err
		}
		nextRow, err := q.row(ctx, tx, u.Next)
		if err != nil {
			return err
		}
		v = u.Apply(old, nextRow)

		query, args = b.Update(tableQValues).
			Set("value", v).
			Set("updated_at", time.Now().UnixMicro()).
			Where(entsql.And(entsql.EQ("state", u.State), entsql.EQ("action", u.Action))).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("write Q cell: %w", err)
		}
		return nil
	})
	return v, err
}

func (q *QTable) Entries(ctx context.Context) ([]qlearn.Entry, error) {
	b := q.s.builder()
	query, args := b.Select("state", "action", "value").
		From(b.Table(tableQValues)).
		OrderBy("state", "action").
		Query()
	rows, err := q.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list Q cells: %w", err)
	}
	defer rows.Close()

	var out []qlearn.Entry
	for rows.Next() {
		var e qlearn.Entry
		if err := rows.Scan(&e.State, &e.Action, &e.Value); err != nil {
			return nil, fmt.Errorf("scan Q cell: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *QTable) Load(ctx context.Context, entries []qlearn.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UnixMicro()
	return q.s.withTx(ctx, func(tx *sql.Tx) error {
		const batch = 500
		for start := 0; start < len(entries); start += batch {
			end := min(start+batch, len(entries))
			ins := q.s.builder().Insert(tableQValues).Columns("state", "action", "value", "updated_at")
			for _, e := range entries[start:end] {
				ins.Values(e.State, e.Action, e.Value, now)
			}
			query, args := ins.OnConflict(
				entsql.ConflictColumns("state", "action"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.SetExcluded("value")
					u.SetExcluded("updated_at")
				}),
			).Query()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("load Q cells: %w", err)
			}
		}
		return nil
	})
}

// Clear deletes every stored value.
func (q *QTable) Clear(ctx context.Context) error {
	query, args := q.s.builder().Delete(tableQValues).Query()
	if _, err := q.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear Q cells: %w", err)
	}
	return nil
}

// Close is a no-op; the Store owns the connection.
func (q *QTable) Close() error { return nil }

func (q *QTable) get(ctx context.Context, db querier, state int64, action int, lock bool) (float64, error) {
	b := q.s.builder()
	sel := b.Select("value").
		From(b.Table(tableQValues)).
		Where(entsql.And(entsql.EQ("state", state), entsql.EQ("action", action)))
	if lock {
		sel.ForUpdate()
	}
	query, args := sel.Query()
	var v float64
	err := db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read Q(%d, %d): %w", state, action, err)
	}
	return v, nil
}

func (q *QTable) row(ctx context.Context, db querier, state int64) ([]float64, error) {
	b := q.s.builder()
	query, args := b.Select("value").
		From(b.Table(tableQValues)).
		Where(entsql.EQ("state", state)).
		Query()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read Q row %d: %w", state, err)
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
