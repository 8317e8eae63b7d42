// Package tutor wires the adaptive core together: it recommends the next
// question, grades answers and feeds the outcome back into mastery, the
// interaction log and the Q-table.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/adaptiq/internal/bandit"
	"github.com/abhisek/adaptiq/internal/gaps"
	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/peers"
	"github.com/abhisek/adaptiq/internal/qlearn"
	"github.com/abhisek/adaptiq/internal/reward"
	"github.com/abhisek/adaptiq/internal/skillgraph"
)

// Deps are the collaborators a Service needs. Logger, Bandit and Peers may
// be nil.
type Deps struct {
	Graph    *skillgraph.Graph
	Mastery  *mastery.Service
	Model    *knowledge.Model
	Agent    *qlearn.Agent
	Gaps     *gaps.Analyzer
	Content  ContentLookup
	Attempts AttemptLog
	Logger   *logger.Logger
	Bandit   *bandit.Bandit
	Peers    *peers.Recommender
}

// Service is the orchestration facade over the adaptive core.
type Service struct {
	graph    *skillgraph.Graph
	mastery  *mastery.Service
	model    *knowledge.Model
	agent    *qlearn.Agent
	gaps     *gaps.Analyzer
	content  ContentLookup
	attempts AttemptLog
	bandit   *bandit.Bandit
	peers    *peers.Recommender
	log      *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the random source for the fallback pick.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New creates a tutor service.
func New(d Deps, opts ...Option) (*Service, error) {
	var missing []string
	if d.Graph == nil {
		missing = append(missing, "graph")
	}
	if d.Mastery == nil {
		missing = append(missing, "mastery")
	}
	if d.Model == nil {
		missing = append(missing, "knowledge model")
	}
	if d.Agent == nil {
		missing = append(missing, "agent")
	}
	if d.Gaps == nil {
		missing = append(missing, "gap analyzer")
	}
	if d.Content == nil {
		missing = append(missing, "content lookup")
	}
	if d.Attempts == nil {
		missing = append(missing, "attempt log")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("tutor: missing dependencies: %v", missing)
	}

	s := &Service{
		graph:    d.Graph,
		mastery:  d.Mastery,
		model:    d.Model,
		agent:    d.Agent,
		gaps:     d.Gaps,
		content:  d.Content,
		attempts: d.Attempts,
		bandit:   d.Bandit,
		peers:    d.Peers,
		log:      d.Logger,
		tracer:   defaultTracer(),
		now:      time.Now,
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return s, nil
}

// Graph returns the skill graph.
func (s *Service) Graph() *skillgraph.Graph { return s.graph }

// Agent returns the Q-learning agent.
func (s *Service) Agent() *qlearn.Agent { return s.agent }

// Content looks up one content item.
func (s *Service) Content(ctx context.Context, id int64) (ContentInfo, error) {
	return s.content.Content(ctx, id)
}

// KnowledgeState computes the student's current state.
func (s *Service) KnowledgeState(ctx context.Context, studentID string) (knowledge.State, error) {
	return s.model.Compute(ctx, studentID)
}

// CalculateReward scores one attempt.
func (s *Service) CalculateReward(correct bool, timeSpent, difficulty, studentLevel float64) float64 {
	return reward.Compute(reward.Input{
		Correct:      correct,
		TimeSpent:    timeSpent,
		Difficulty:   difficulty,
		StudentLevel: studentLevel,
	})
}

// UpdateQValue applies one TD update.
func (s *Service) UpdateQValue(ctx context.Context, state int64, action int, r float64, next int64) (err error) {
	ctx, span := s.startSpan(ctx, "update_q_value",
		attribute.Int64("state", state), attribute.Int("action", action), attribute.Float64("reward", r))
	defer finishSpan(span, &err)

	_, err = s.agent.Update(ctx, state, action, r, next)
	return err
}

// IsUnlockedForStudent reports whether every prerequisite of skillID is at
// the unlock threshold for the student. A prerequisite without a mastery
// record counts as level 0.
func (s *Service) IsUnlockedForStudent(ctx context.Context, skillID, studentID string) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "is_unlocked_for_student", attribute.String("skill", skillID))
	defer finishSpan(span, &err)

	if !s.graph.Has(skillID) {
		return false, fmt.Errorf("skill %q: %w", skillID, ErrNotFound)
	}
	levels, err := s.mastery.Levels(ctx, studentID)
	if err != nil {
		return false, err
	}
	return s.graph.IsUnlocked(skillID, levels), nil
}

// checkUnlocked returns ErrNotFound for unknown skills and a
// *LockedSkillError for locked ones.
func (s *Service) checkUnlocked(ctx context.Context, studentID, skillID string) error {
	if !s.graph.Has(skillID) {
		return fmt.Errorf("skill %q: %w", skillID, ErrNotFound)
	}
	levels, err := s.mastery.Levels(ctx, studentID)
	if err != nil {
		return err
	}
	if missing := s.graph.MissingPrerequisites(skillID, levels); len(missing) > 0 {
		return &LockedSkillError{SkillID: skillID, Missing: missing}
	}
	return nil
}

// AnalyzeGaps recomputes and stores the student's skill gaps.
func (s *Service) AnalyzeGaps(ctx context.Context, studentID string) (out []gaps.Gap, err error) {
	ctx, span := s.startSpan(ctx, "analyze_gaps")
	defer finishSpan(span, &err)

	out, err = s.gaps.Analyze(ctx, studentID)
	span.SetAttributes(attribute.Int("gaps", len(out)))
	return out, err
}

// Placement seeds mastery from one answer per skill. Unknown skills fail
// the whole call before anything is written.
func (s *Service) Placement(ctx context.Context, studentID string, answers map[string]bool) (out []mastery.PlacementOutcome, err error) {
	ctx, span := s.startSpan(ctx, "placement", attribute.Int("skills", len(answers)))
	defer finishSpan(span, &err)

	for id := range answers {
		if !s.graph.Has(id) {
			return nil, fmt.Errorf("skill %q: %w", id, ErrNotFound)
		}
	}
	out, err = s.mastery.Place(ctx, studentID, answers)
	if err != nil {
		return out, err
	}
	s.log.Info("placement recorded", "student", studentID, "skills", len(out))
	return out, nil
}

// PlacementQuestion pairs a probe skill with a question for it.
type PlacementQuestion struct {
	Skill   skillgraph.Skill
	Content ContentInfo
}

// PlacementQuestions returns one question per placement probe skill. Probe
// skills without content are skipped.
func (s *Service) PlacementQuestions(ctx context.Context) ([]PlacementQuestion, error) {
	var out []PlacementQuestion
	for _, sk := range s.graph.PlacementProbes() {
		items, err := s.content.ListContent(ctx, ContentQuery{SkillIDs: []string{sk.ID}, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("content for %s: %w", sk.ID, err)
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, PlacementQuestion{Skill: sk, Content: items[0]})
	}
	return out, nil
}

func (s *Service) randIntN(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// isAgentFailure reports whether err belongs to the degraded-agent class.
func isAgentFailure(err error) bool {
	return errors.Is(err, qlearn.ErrNoCandidates) ||
		errors.Is(err, qlearn.ErrActionOverflow) ||
		errors.Is(err, qlearn.ErrInvalidState) ||
		errors.Is(err, knowledge.ErrMalformedState)
}
