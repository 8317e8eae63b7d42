package qlearn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/mod/semver"
)

// SnapshotVersion is the current snapshot format. Snapshots with the same
// major version and an equal or older minor version can be imported.
const SnapshotVersion = "v1.0.0"

// Snapshot is a portable copy of the Q-table.
type Snapshot struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Actions      int       `json:"actions"`
	LearningRate float64   `json:"learning_rate"`
	Discount     float64   `json:"discount"`
	Updates      int64     `json:"updates"`
	Entries      []Entry   `json:"entries"`
}

// Export copies the table into a snapshot.
func (a *Agent) Export(ctx context.Context) (*Snapshot, error) {
	entries, err := a.table.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("export entries: %w", err)
	}
	return &Snapshot{
		Version:      SnapshotVersion,
		CreatedAt:    time.Now().UTC(),
		Actions:      a.cfg.Projection.Size(),
		LearningRate: a.cfg.LearningRate,
		Discount:     a.cfg.Discount,
		Updates:      a.updates.Load(),
		Entries:      entries,
	}, nil
}

// Import loads a snapshot into the table, overwriting matching cells.
func (a *Agent) Import(ctx context.Context, snap *Snapshot) error {
	if err := CheckCompatible(snap.Version); err != nil {
		return err
	}
	if snap.Actions != a.cfg.Projection.Size() {
		return fmt.Errorf("%w: snapshot has %d actions, agent has %d",
			ErrIncompatibleSnapshot, snap.Actions, a.cfg.Projection.Size())
	}
	for _, e := range snap.Entries {
		if err := validBucket(e.State); err != nil {
			return err
		}
		if e.Action < 0 || e.Action >= snap.Actions {
			return fmt.Errorf("%w: action %d", ErrActionOverflow, e.Action)
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return fmt.Errorf("%w: non-finite value at (%d, %d)", ErrIncompatibleSnapshot, e.State, e.Action)
		}
	}
	if err := a.table.Load(ctx, snap.Entries); err != nil {
		return fmt.Errorf("import entries: %w", err)
	}
	a.updates.Add(snap.Updates)
	return nil
}

// CheckCompatible reports whether a snapshot of version v can be imported.
func CheckCompatible(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid version %q", ErrIncompatibleSnapshot, v)
	}
	if semver.Major(v) != semver.Major(SnapshotVersion) || semver.Compare(v, SnapshotVersion) > 0 {
		return fmt.Errorf("%w: version %s, supported %s", ErrIncompatibleSnapshot, v, SnapshotVersion)
	}
	return nil
}

// WriteSnapshot encodes snap as indented JSON.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ReadSnapshot decodes a snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
