package gaps

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// ErrNotFound is returned when a gap id does not exist for the student.
var ErrNotFound = errors.New("skill gap not found")

// Repo persists Gap rows, unique per (student, topic).
type Repo interface {
	List(ctx context.Context, studentID string) ([]Gap, error)
	// Purge deletes the student's rows whose topic is not in keep and returns
	// how many were removed.
	Purge(ctx context.Context, studentID string, keep []knowledge.Topic) (int, error)
	// Upsert inserts g or updates the existing (student, topic) row. An
	// existing row keeps its ID, progress and addressed flag, which are
	// copied back into g.
	Upsert(ctx context.Context, g *Gap) error
	// SetProgress updates one row's progress. It returns ErrNotFound when the
	// gap does not belong to the student.
	SetProgress(ctx context.Context, studentID string, gapID int64, pct float64) (Gap, error)
}

// MemoryRepo is a Repo held in process memory.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Gap
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[int64]Gap)}
}

func (r *MemoryRepo) List(_ context.Context, studentID string) ([]Gap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Gap
	for _, g := range r.rows {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	SortByPriority(out)
	return out, nil
}

func (r *MemoryRepo) Purge(_ context.Context, studentID string, keep []knowledge.Topic) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	valid := make(map[knowledge.Topic]bool, len(keep))
	for _, t := range keep {
		valid[t] = true
	}
	n := 0
	for id, g := range r.rows {
		if g.StudentID == studentID && !valid[g.Topic] {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Upsert(_ context.Context, g *Gap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cur := range r.rows {
		if cur.StudentID == g.StudentID && cur.Topic == g.Topic {
			g.ID = id
			g.ProgressPercentage = cur.ProgressPercentage
			g.Addressed = cur.Addressed
			r.rows[id] = *g
			return nil
		}
	}
	r.nextID++
	g.ID = r.nextID
	r.rows[g.ID] = *g
	return nil
}

func (r *MemoryRepo) SetProgress(_ context.Context, studentID string, gapID int64, pct float64) (Gap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[gapID]
	if !ok || g.StudentID != studentID {
		return Gap{}, ErrNotFound
	}
	g.ProgressPercentage = pct
	g.Addressed = pct > 0
	r.rows[gapID] = g
	return g, nil
}

// SortByPriority orders gaps by priority descending, then by topic.
func SortByPriority(gs []Gap) {
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].Priority != gs[j].Priority {
			return gs[i].Priority > gs[j].Priority
		}
		return gs[i].Topic < gs[j].Topic
	})
}
