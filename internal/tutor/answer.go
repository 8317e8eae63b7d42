package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/adaptiq/internal/bandit"
	"github.com/abhisek/adaptiq/internal/knowledge"
	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/qlearn"
	"github.com/abhisek/adaptiq/internal/reward"
)

// Submission is a student's answer to one question.
type Submission struct {
	StudentID string
	ContentID int64
	// SkillID is the skill the answer counts toward. Empty uses the
	// content's own skill, if any.
	SkillID   string
	Answer    string
	TimeSpent float64 // seconds
}

// AnswerResult reports everything one answer changed.
type AnswerResult struct {
	Attempt  Attempt
	Correct  bool
	Reward   reward.Breakdown
	Mastery  *mastery.Result // nil when the answer counts toward no skill
	QValue   float64
	QUpdated bool
}

// SubmitAnswer grades an answer and runs the learning cycle: reward, attempt
// log entry, mastery update, format bandit update and Q-table update. It fails with ErrNotFound
// for unknown content or skills and with *LockedSkillError when the skill's
// prerequisites are not met. A failed Q update is logged and reported in
// QUpdated, not returned.
func (s *Service) SubmitAnswer(ctx context.Context, sub Submission) (res AnswerResult, err error) {
	ctx, span := s.startSpan(ctx, "submit_answer", attribute.Int64("content_id", sub.ContentID))
	defer finishSpan(span, &err)

	info, err := s.content.Content(ctx, sub.ContentID)
	if err != nil {
		return res, fmt.Errorf("content %d: %w", sub.ContentID, err)
	}
	skillID := sub.SkillID
	if skillID == "" {
		skillID = info.SkillID
	}
	if skillID != "" {
		if err := s.checkUnlocked(ctx, sub.StudentID, skillID); err != nil {
			return res, err
		}
	}

	correct := Grade(sub.Answer, info.CorrectAnswer)
	pre, err := s.model.Compute(ctx, sub.StudentID)
	if err != nil {
		return res, err
	}
	rw := reward.Explain(reward.Input{
		Correct:      correct,
		TimeSpent:    sub.TimeSpent,
		Difficulty:   float64(info.Difficulty),
		StudentLevel: pre.Of(info.Topic),
	})

	post, err := s.model.After(ctx, sub.StudentID, knowledge.Observation{Topic: info.Topic, Correct: correct})
	if err != nil {
		return res, err
	}

	action, actErr := s.agent.Action(sub.ContentID)
	if actErr != nil {
		action = -1
	}

	att := Attempt{
		ID:         uuid.NewString(),
		StudentID:  sub.StudentID,
		ContentID:  sub.ContentID,
		SkillID:    skillID,
		Topic:      info.Topic,
		Difficulty: info.Difficulty,
		Correct:    correct,
		TimeSpent:  sub.TimeSpent,
		PreState:   pre,
		Action:     action,
		Reward:     rw.Total,
		PostState:  post,
		CreatedAt:  s.now(),
	}
	// The attempt log is written first. A failed append leaves mastery and
	// the Q-table untouched.
	if err := s.attempts.Append(ctx, &att); err != nil {
		return res, fmt.Errorf("append attempt: %w", err)
	}
	res.Attempt = att
	res.Correct = correct
	res.Reward = rw

	if skillID != "" {
		mr, err := s.mastery.RecordAttempt(ctx, sub.StudentID, skillID, correct, sub.TimeSpent)
		if err != nil {
			return res, fmt.Errorf("record mastery: %w", err)
		}
		res.Mastery = &mr
		if tr := mr.Transition(); tr != nil {
			s.log.Info("mastery level changed", "student", sub.StudentID, "skill", skillID,
				"from", tr.From, "to", tr.To, "unlocked", tr.Unlocked)
		}
	}

	s.rewardFormat(ctx, sub.StudentID, info.Format, correct, sub.TimeSpent)
	res.QValue, res.QUpdated = s.learn(ctx, pre, post, action, rw.Total, actErr)
	span.SetAttributes(
		attribute.Bool("correct", correct),
		attribute.Float64("reward", rw.Total),
		attribute.Bool("q_updated", res.QUpdated),
	)
	return res, nil
}

// rewardFormat feeds the answer to the format bandit. Failures are logged
// and swallowed.
func (s *Service) rewardFormat(ctx context.Context, studentID, format string, correct bool, secs float64) {
	if s.bandit == nil || bandit.Normalize(format) == "" {
		return
	}
	if err := s.bandit.Update(ctx, studentID, format, bandit.Reward(correct, secs)); err != nil {
		s.log.Warn("format bandit update failed", "student", studentID, "format", format, "error", err)
	}
}

// learn applies the TD update for one attempt. Failures are degraded-agent
// events: logged at warn and swallowed.
func (s *Service) learn(ctx context.Context, pre, post knowledge.State, action int, r float64, actErr error) (float64, bool) {
	if actErr != nil {
		s.log.Warn("agent degraded, skipping Q update", "reason", actErr)
		return 0, false
	}
	from, err := qlearn.Discretize(pre)
	if err != nil {
		s.log.Warn("agent degraded, skipping Q update", "reason", err)
		return 0, false
	}
	to, err := qlearn.Discretize(post)
	if err != nil {
		s.log.Warn("agent degraded, skipping Q update", "reason", err)
		return 0, false
	}
	v, err := s.agent.Update(ctx, from, action, r, to)
	if err != nil {
		s.log.Warn("agent degraded, skipping Q update", "reason", err)
		return 0, false
	}
	return v, true
}

// Grade compares answers ignoring surrounding space and case.
func Grade(answer, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(correct))
}
