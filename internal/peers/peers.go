// Package peers recommends content from what similar students did well on.
// It is user-based collaborative filtering: students are compared by cosine
// similarity over the ratings of content both have answered.
package peers

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
)

// Defaults for Recommender.
const (
	DefaultNeighbors     = 10
	DefaultMinSimilarity = 0.3
	DefaultWindow        = 5000
)

// Interaction is one answered question, as read from the attempt log.
type Interaction struct {
	StudentID string
	ContentID int64
	Correct   bool
	TimeSpent float64
}

// Rating turns an interaction into an implicit rating on 1..5: a correct
// answer rates 5 when it came within the expected time for its difficulty
// and 4 otherwise, a wrong answer rates 2.
func Rating(in Interaction, expectedSeconds float64) float64 {
	switch {
	case !in.Correct:
		return 2
	case expectedSeconds > 0 && in.TimeSpent > 0 && in.TimeSpent <= expectedSeconds:
		return 5
	default:
		return 4
	}
}

// Neighbor is a similar student.
type Neighbor struct {
	StudentID  string
	Similarity float64
}

// Prediction is a content item with its predicted rating.
type Prediction struct {
	ContentID int64
	Rating    float64
	Support   int // neighbors who rated it
}

// Matrix is a student × content rating matrix. Repeated ratings of the same
// content are averaged.
type Matrix struct {
	ratings map[string]map[int64]float64
}

// Rated is a rating for one (student, content) pair.
type Rated struct {
	StudentID string
	ContentID int64
	Rating    float64
}

// NewMatrix builds a matrix from ratings.
func NewMatrix(rows []Rated) *Matrix {
	sums := make(map[string]map[int64][2]float64)
	for _, r := range rows {
		byContent, ok := sums[r.StudentID]
		if !ok {
			byContent = make(map[int64][2]float64)
			sums[r.StudentID] = byContent
		}
		acc := byContent[r.ContentID]
		byContent[r.ContentID] = [2]float64{acc[0] + r.Rating, acc[1] + 1}
	}
	m := &Matrix{ratings: make(map[string]map[int64]float64, len(sums))}
	for student, byContent := range sums {
		row := make(map[int64]float64, len(byContent))
		for id, acc := range byContent {
			row[id] = acc[0] / acc[1]
		}
		m.ratings[student] = row
	}
	return m
}

// Students returns how many students have ratings.
func (m *Matrix) Students() int { return len(m.ratings) }

// Seen reports whether the student rated the content.
func (m *Matrix) Seen(studentID string, contentID int64) bool {
	_, ok := m.ratings[studentID][contentID]
	return ok
}

// Similarity is the cosine similarity of two students over the content both
// rated. It is 0 when they share nothing.
func (m *Matrix) Similarity(a, b string) float64 {
	ra, rb := m.ratings[a], m.ratings[b]
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	var dot, na, nb float64
	for id, x := range ra {
		y, ok := rb[id]
		if !ok {
			continue
		}
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Similar returns up to k students with similarity at least minSim, most
// similar first, ties by student id.
func (m *Matrix) Similar(studentID string, k int, minSim float64) []Neighbor {
	if _, ok := m.ratings[studentID]; !ok || k <= 0 {
		return nil
	}
	var out []Neighbor
	for other := range m.ratings {
		if other == studentID {
			continue
		}
		if sim := m.Similarity(studentID, other); sim >= minSim && sim > 0 {
			out = append(out, Neighbor{StudentID: other, Similarity: sim})
		}
	}
	slices.SortFunc(out, func(a, b Neighbor) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.StudentID, b.StudentID)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Predict scores content the student has not rated by the similarity
// weighted mean of the neighbors' ratings. The best k are returned, highest
// rating first, ties by content id.
func (m *Matrix) Predict(studentID string, neighbors []Neighbor, k int) []Prediction {
	type acc struct {
		weighted, weight float64
		support          int
	}
	scores := make(map[int64]*acc)
	for _, n := range neighbors {
		for id, r := range m.ratings[n.StudentID] {
			if m.Seen(studentID, id) {
				continue
			}
			a, ok := scores[id]
			if !ok {
				a = &acc{}
				scores[id] = a
			}
			a.weighted += r * n.Similarity
			a.weight += n.Similarity
			a.support++
		}
	}
	out := make([]Prediction, 0, len(scores))
	for id, a := range scores {
		if a.weight > 0 {
			out = append(out, Prediction{ContentID: id, Rating: a.weighted / a.weight, Support: a.support})
		}
	}
	slices.SortFunc(out, func(a, b Prediction) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		return cmp.Compare(a.ContentID, b.ContentID)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Source reads recent interactions across all students.
type Source interface {
	// Interactions returns up to limit of the latest interactions.
	Interactions(ctx context.Context, limit int) ([]Interaction, error)
}

// ContentDifficulty resolves the difficulty used for the time baseline.
type ContentDifficulty func(ctx context.Context, contentID int64) (int, error)

// Recommender builds a fresh matrix from the source on every call.
type Recommender struct {
	src       Source
	expected  func(difficulty float64) float64
	Neighbors int
	MinSim    float64
	Window    int
}

// NewRecommender creates a recommender. expected gives the baseline answer
// time for a difficulty; interactions are rated against difficulty 5 when
// no per-content difficulty is known.
func NewRecommender(src Source, expected func(difficulty float64) float64) *Recommender {
	return &Recommender{
		src:       src,
		expected:  expected,
		Neighbors: DefaultNeighbors,
		MinSim:    DefaultMinSimilarity,
		Window:    DefaultWindow,
	}
}

// Result is a recommendation together with the neighbors it came from.
type Result struct {
	Neighbors   []Neighbor
	Predictions []Prediction
}

// Recommend returns up to k unseen content items for the student. difficulty
// may be nil.
func (r *Recommender) Recommend(ctx context.Context, studentID string, k int, difficulty ContentDifficulty) (Result, error) {
	rows, err := r.src.Interactions(ctx, r.Window)
	if err != nil {
		return Result{}, fmt.Errorf("load interactions: %w", err)
	}
	cache := make(map[int64]float64)
	rated := make([]Rated, 0, len(rows))
	for _, in := range rows {
		base, ok := cache[in.ContentID]
		if !ok {
			d := 5
			if difficulty != nil {
				if v, err := difficulty(ctx, in.ContentID); err == nil {
					d = v
				}
			}
			base = r.expected(float64(d))
			cache[in.ContentID] = base
		}
		rated = append(rated, Rated{StudentID: in.StudentID, ContentID: in.ContentID, Rating: Rating(in, base)})
	}
	m := NewMatrix(rated)
	ns := m.Similar(studentID, r.Neighbors, r.MinSim)
	return Result{Neighbors: ns, Predictions: m.Predict(studentID, ns, k)}, nil
}
