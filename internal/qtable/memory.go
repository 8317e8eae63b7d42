// Package qtable provides Q-table backends for the qlearn agent.
package qtable

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

// DefaultShards is the shard count used by NewMemory when given zero.
const DefaultShards = 64

// Memory is an in-process Q-table. Rows are spread over shards by state so
// updates on different states rarely contend; each shard's mutex serializes
// read-modify-write on its cells.
type Memory struct {
	shards []shard
}

type shard struct {
	mu   sync.RWMutex
	rows map[int64]map[int]float64
}

// NewMemory creates an empty table with n shards.
func NewMemory(n int) *Memory {
	if n <= 0 {
		n = DefaultShards
	}
	m := &Memory{shards: make([]shard, n)}
	for i := range m.shards {
		m.shards[i].rows = make(map[int64]map[int]float64)
	}
	return m
}

func (m *Memory) shardFor(state int64) *shard {
	return &m.shards[uint64(state)%uint64(len(m.shards))]
}

func (m *Memory) Get(_ context.Context, state int64, action int) (float64, error) {
	sh := m.shardFor(state)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.rows[state][action], nil
}

func (m *Memory) Update(_ context.Context, u qlearn.TDUpdate) (float64, error) {
	cur := m.shardFor(u.State)
	next := m.shardFor(u.Next)

	if cur == next {
		cur.mu.Lock()
		defer cur.mu.Unlock()
		return cur.apply(u, rowValues(cur.rows[u.Next])), nil
	}

	next.mu.RLock()
	nextRow := rowValues(next.rows[u.Next])
	next.mu.RUnlock()

	cur.mu.Lock()
	defer cur.mu.Unlock()
	return cur.apply(u, nextRow), nil
}

// apply must be called with sh.mu held for writing.
func (sh *shard) apply(u qlearn.TDUpdate, nextRow []float64) float64 {
	row := sh.rows[u.State]
	if row == nil {
		row = make(map[int]float64)
		sh.rows[u.State] = row
	}
	v := u.Apply(row[u.Action], nextRow)
	row[u.Action] = v
	return v
}

func (m *Memory) Entries(_ context.Context) ([]qlearn.Entry, error) {
	var out []qlearn.Entry
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		for state, row := range sh.rows {
			for action, v := range row {
				out = append(out, qlearn.Entry{State: state, Action: action, Value: v})
			}
		}
		sh.mu.RUnlock()
	}
	sortEntries(out)
	return out, nil
}

func (m *Memory) Load(_ context.Context, entries []qlearn.Entry) error {
	for _, e := range entries {
		sh := m.shardFor(e.State)
		sh.mu.Lock()
		row := sh.rows[e.State]
		if row == nil {
			row = make(map[int]float64)
			sh.rows[e.State] = row
		}
		row[e.Action] = e.Value
		sh.mu.Unlock()
	}
	return nil
}

// Close drops all rows.
func (m *Memory) Close() error {
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.Lock()
		sh.rows = make(map[int64]map[int]float64)
		sh.mu.Unlock()
	}
	return nil
}

func rowValues(row map[int]float64) []float64 {
	out := make([]float64, 0, len(row))
	for _, v := range row {
		out = append(out, v)
	}
	return out
}

func sortEntries(es []qlearn.Entry) {
	slices.SortFunc(es, func(a, b qlearn.Entry) int {
		if c := cmp.Compare(a.State, b.State); c != 0 {
			return c
		}
		return cmp.Compare(a.Action, b.Action)
	})
}

var (
	_ qlearn.Table = (*Memory)(nil)
	_ qlearn.Table = (*Redis)(nil)
)
