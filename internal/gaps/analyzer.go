package gaps

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/knowledge"
)

// StateSource computes a student's knowledge state. *knowledge.Model
// satisfies it.
type StateSource interface {
	Compute(ctx context.Context, studentID string) (knowledge.State, error)
}

// Analyzer turns knowledge states into stored gap rows.
type Analyzer struct {
	states StateSource
	repo   Repo
	now    func() time.Time
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(states StateSource, repo Repo) *Analyzer {
	return &Analyzer{states: states, repo: repo, now: time.Now}
}

// Analyze recomputes the student's gaps. Stored rows whose topic is no
// longer a gap are deleted, as are rows for topics outside the canonical
// set, so List afterwards returns exactly the current gaps.
func (a *Analyzer) Analyze(ctx context.Context, studentID string) ([]Gap, error) {
	state, err := a.states.Compute(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("knowledge state for %s: %w", studentID, err)
	}
	return a.apply(ctx, studentID, state)
}

// AnalyzeState is Analyze over a state the caller already computed.
func (a *Analyzer) AnalyzeState(ctx context.Context, studentID string, state knowledge.State) ([]Gap, error) {
	return a.apply(ctx, studentID, state)
}

func (a *Analyzer) apply(ctx context.Context, studentID string, state knowledge.State) ([]Gap, error) {
	now := a.now()
	var out []Gap
	var open []knowledge.Topic
	for _, t := range knowledge.AllTopics() {
		p := state.Of(t)
		if !IsGap(p) {
			continue
		}
		open = append(open, t)
		sev := SeverityFor(p)
		out = append(out, Gap{
			StudentID:        studentID,
			Topic:            t,
			ProficiencyLevel: p,
			TargetLevel:      TargetLevel,
			Severity:         sev,
			Priority:         Priority(sev, p),
			EstimatedHours:   EstimatedHours(p),
			AssessedAt:       now,
		})
	}

	// Empty open purges every row of the student.
	if _, err := a.repo.Purge(ctx, studentID, open); err != nil {
		return nil, fmt.Errorf("purge gaps for %s: %w", studentID, err)
	}
	for i := range out {
		if err := a.repo.Upsert(ctx, &out[i]); err != nil {
			return nil, fmt.Errorf("upsert gap %s/%s: %w", studentID, out[i].Topic, err)
		}
	}
	SortByPriority(out)
	return out, nil
}

// List returns the student's stored gaps by priority.
func (a *Analyzer) List(ctx context.Context, studentID string) ([]Gap, error) {
	gs, err := a.repo.List(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list gaps for %s: %w", studentID, err)
	}
	return gs, nil
}

// UpdateProgress records progress on closing one gap, clamped to [0,100].
func (a *Analyzer) UpdateProgress(ctx context.Context, studentID string, gapID int64, pct float64) (Gap, error) {
	g, err := a.repo.SetProgress(ctx, studentID, gapID, clampProgress(pct))
	if err != nil {
		return Gap{}, fmt.Errorf("gap %d for %s: %w", gapID, studentID, err)
	}
	return g, nil
}

// Recommendations turns a gap list into short study advice. An empty list
// yields no advice.
func Recommendations(gs []Gap) []string {
	if len(gs) == 0 {
		return nil
	}
	sorted := append([]Gap(nil), gs...)
	SortByPriority(sorted)

	recs := []string{
		fmt.Sprintf("Focus on %s first, it is your highest priority gap", sorted[0].Topic.DisplayName()),
	}
	critical := 0
	var hours float64
	for _, g := range gs {
		if g.Severity == SeverityCritical {
			critical++
		}
		hours += g.EstimatedHours
	}
	if critical > 0 {
		recs = append(recs, fmt.Sprintf("Address %d critical gap(s) before moving to advanced topics", critical))
	}
	if len(gs) > 3 {
		recs = append(recs, "Consider a structured review plan to work through multiple gaps")
	}
	recs = append(recs, fmt.Sprintf("Estimated %.1f hours needed to reach target proficiency across all gaps", hours))
	return recs
}
