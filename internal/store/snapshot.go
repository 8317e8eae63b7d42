package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

// SnapshotRepo keeps point-in-time copies of the Q-table so an in-memory
// table can be restored across runs.
type SnapshotRepo struct {
	s *Store
}

// Save stores snap and returns its id. Ids follow the global sequence, so
// a later snapshot always has a larger id.
func (r *SnapshotRepo) Save(ctx context.Context, snap *qlearn.Snapshot) (int64, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	id, err := r.s.seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	query, args := r.s.builder().Insert(tableSnapshots).
		Columns("id", "created_at", "data").
		Values(id, toMicros(snap.CreatedAt), string(data)).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recent snapshot, or nil if none exist.
func (r *SnapshotRepo) Latest(ctx context.Context) (*qlearn.Snapshot, error) {
	b := r.s.builder()
	query, args := b.Select("data").
		From(b.Table(tableSnapshots)).
		OrderBy(entsql.Desc("id")).
		Limit(1).
		Query()
	var data string
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	var snap qlearn.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Prune deletes all but the keep most recent snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) error {
	b := r.s.builder()
	query, args := b.Select("id").
		From(b.Table(tableSnapshots)).
		OrderBy(entsql.Desc("id")).
		Offset(keep).
		Limit(1).
		Query()
	var threshold int64
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // fewer than keep snapshots exist
	}
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	query, args = b.Delete(tableSnapshots).Where(entsql.LTE("id", threshold)).Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
