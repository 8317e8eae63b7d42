package tutor

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/qlearn"
)

// Outcome says whether a recommendation came from the agent.
type Outcome int

const (
	// Recommended means the agent chose the content.
	Recommended Outcome = iota
	// Degraded means the agent failed and the content was drawn uniformly
	// at random from the candidates.
	Degraded
)

func (o Outcome) String() string {
	if o == Degraded {
		return "degraded"
	}
	return "recommended"
}

// Recommendation is the answer to "what should the student see next".
type Recommendation struct {
	ContentID  int64 // 0 when there were no candidates
	Confidence float64
	Action     int // -1 when the content has no action slot
	Explored   bool
	Outcome    Outcome
	Reason     error // set when Outcome is Degraded

	// Style and Pace are the personalization NextQuestion applied after
	// resolving StyleAuto and PaceAuto.
	Style string
	Pace  Pace
}

// Pace is a student's learning pace.
type Pace string

const (
	PaceNormal Pace = ""
	PaceSlow   Pace = "slow"
	PaceFast   Pace = "fast"
	// PaceAuto derives the pace from the student's answer times.
	PaceAuto Pace = "auto"
)

// StyleAuto lets the format bandit pick the learning style.
const StyleAuto = "auto"

// ParsePace accepts slow, normal, fast and auto, plus very_slow and
// very_fast.
func ParsePace(s string) (Pace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return PaceNormal, nil
	case "auto":
		return PaceAuto, nil
	case "slow", "very_slow":
		return PaceSlow, nil
	case "fast", "very_fast":
		return PaceFast, nil
	}
	return PaceNormal, fmt.Errorf("unknown pace %q", s)
}

// Bonuses added to a candidate's Q-value before selection.
const (
	StyleBonus   = 0.1
	MaxPaceBonus = 0.2
)

// RecommendOptions personalizes a recommendation.
type RecommendOptions struct {
	// LearningStyle favours content whose format matches. Empty and
	// "multimodal" disable it. StyleAuto asks the format bandit in
	// NextQuestion and is otherwise ignored.
	LearningStyle string
	// Pace favours harder content for fast learners and easier content for
	// slow ones. PaceAuto is resolved by NextQuestion and otherwise ignored.
	Pace Pace
	// Exploration overrides the agent's configured rate when set.
	Exploration *float64
}

func (o RecommendOptions) personalized() bool {
	return o.style() != "" || o.Pace == PaceFast || o.Pace == PaceSlow
}

// style is the format to favour, or empty.
func (o RecommendOptions) style() string {
	switch style := strings.ToLower(strings.TrimSpace(o.LearningStyle)); style {
	case "multimodal", StyleAuto:
		return ""
	default:
		return style
	}
}

// GetRecommendedContent picks one of candidates for a student in state.
// Agent failures never surface as errors: the result is Degraded, carries
// the reason and holds a uniform-random candidate.
func (s *Service) GetRecommendedContent(ctx context.Context, state knowledge.State, candidates []int64, opts RecommendOptions) Recommendation {
	ctx, span := s.startSpan(ctx, "get_recommended_content", attribute.Int("candidates", len(candidates)))
	defer span.End()

	rec, err := s.recommend(ctx, state, candidates, opts)
	if err != nil {
		rec = s.fallback(span, candidates, err)
	}
	span.SetAttributes(
		attribute.Int64("content_id", rec.ContentID),
		attribute.String("outcome", rec.Outcome.String()),
		attribute.Float64("confidence", rec.Confidence),
	)
	return rec
}

// NextQuestion computes the student's state and recommends from
// candidates. Nil candidates are drawn from the student's unlocked skills.
func (s *Service) NextQuestion(ctx context.Context, studentID string, candidates []int64, opts RecommendOptions) (rec Recommendation, err error) {
	ctx, span := s.startSpan(ctx, "next_question")
	defer finishSpan(span, &err)

	if candidates == nil {
		candidates, err = s.Candidates(ctx, studentID, DefaultCandidateLimit)
		if err != nil {
			return Recommendation{}, err
		}
	}
	state, err := s.model.Compute(ctx, studentID)
	if err != nil {
		return Recommendation{}, err
	}
	if opts, err = s.resolve(ctx, studentID, candidates, opts); err != nil {
		return Recommendation{}, err
	}
	rec = s.GetRecommendedContent(ctx, state, candidates, opts)
	rec.Style, rec.Pace = opts.style(), opts.Pace
	return rec, nil
}

// resolve replaces StyleAuto with the bandit's pick among the candidates'
// formats and PaceAuto with the pace derived from the attempt log. Without
// a bandit StyleAuto is dropped.
func (s *Service) resolve(ctx context.Context, studentID string, candidates []int64, opts RecommendOptions) (RecommendOptions, error) {
	if opts.Pace == PaceAuto {
		p, err := s.LearningPace(ctx, studentID)
		if err != nil {
			return opts, err
		}
		opts.Pace = p.Pace
		s.log.Debug("derived pace", "student", studentID, "speed", p.Speed, "samples", p.Samples, "pace", p.Pace)
	}
	if !strings.EqualFold(strings.TrimSpace(opts.LearningStyle), StyleAuto) {
		return opts, nil
	}
	opts.LearningStyle = ""
	if s.bandit == nil || len(candidates) == 0 {
		return opts, nil
	}
	var formats []string
	for _, id := range candidates {
		info, err := s.content.Content(ctx, id)
		if err != nil {
			continue
		}
		formats = append(formats, info.Format)
	}
	choice, err := s.bandit.Select(ctx, studentID, formats)
	if err != nil {
		s.log.Warn("format bandit unavailable", "student", studentID, "error", err)
		return opts, nil
	}
	opts.LearningStyle = choice.Format
	s.log.Debug("format bandit pick", "student", studentID, "format", choice.Format,
		"value", choice.Value, "explored", choice.Explored)
	return opts, nil
}

func (s *Service) recommend(ctx context.Context, state knowledge.State, candidates []int64, opts RecommendOptions) (Recommendation, error) {
	if len(candidates) == 0 {
		return Recommendation{}, qlearn.ErrNoCandidates
	}
	bucket, err := qlearn.Discretize(state)
	if err != nil {
		return Recommendation{}, err
	}

	cands := qlearn.Candidates(candidates...)
	if opts.personalized() {
		for i := range cands {
			cands[i].Bonus = s.bonus(ctx, cands[i].ContentID, opts)
		}
	}

	exploration := s.agent.Config().Exploration
	if opts.Exploration != nil {
		exploration = *opts.Exploration
	}
	sel, err := s.agent.SelectAction(ctx, bucket, cands, exploration)
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		ContentID:  sel.ContentID,
		Confidence: sel.Confidence,
		Action:     sel.Action,
		Explored:   sel.Explored,
		Outcome:    Recommended,
	}, nil
}

// bonus scores a candidate's fit with the student's style and pace. Content
// that cannot be looked up gets no bonus.
func (s *Service) bonus(ctx context.Context, id int64, opts RecommendOptions) float64 {
	info, err := s.content.Content(ctx, id)
	if err != nil {
		s.log.Debug("no content info for bonus", "content_id", id, "error", err)
		return 0
	}
	var b float64
	if style := opts.style(); style != "" && strings.EqualFold(strings.TrimSpace(info.Format), style) {
		b += StyleBonus
	}
	d := float64(min(max(info.Difficulty, knowledge.MinDifficulty), knowledge.MaxDifficulty))
	width := float64(knowledge.MaxDifficulty - knowledge.MinDifficulty)
	switch opts.Pace {
	case PaceFast:
		b += MaxPaceBonus * (d - knowledge.MinDifficulty) / width
	case PaceSlow:
		b += MaxPaceBonus * (knowledge.MaxDifficulty - d) / width
	}
	return b
}

// fallback draws uniformly from candidates after an agent failure.
func (s *Service) fallback(span trace.Span, candidates []int64, reason error) Recommendation {
	kind := "table"
	if isAgentFailure(reason) {
		kind = "agent"
	}
	span.AddEvent("agent_degraded", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason.Error()),
	))
	s.log.Warn("agent degraded, falling back to random selection",
		"kind", kind, "reason", reason, "candidates", len(candidates))

	rec := Recommendation{Action: -1, Outcome: Degraded, Reason: reason}
	if len(candidates) == 0 {
		return rec
	}
	rec.ContentID = candidates[s.randIntN(len(candidates))]
	if act, err := s.agent.Action(rec.ContentID); err == nil {
		rec.Action = act
	}
	return rec
}
