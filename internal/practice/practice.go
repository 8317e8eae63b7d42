// Package practice runs an interactive question-and-answer loop in the
// terminal on top of the tutor service.
package practice

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/tutor"
)

// Tutor is the part of tutor.Service the loop drives.
type Tutor interface {
	NextQuestion(ctx context.Context, studentID string, candidates []int64, opts tutor.RecommendOptions) (tutor.Recommendation, error)
	Content(ctx context.Context, id int64) (tutor.ContentInfo, error)
	SubmitAnswer(ctx context.Context, sub tutor.Submission) (tutor.AnswerResult, error)
}

// Config selects who practices and on what.
type Config struct {
	StudentID string
	// Pool restricts questions to these content ids. Nil draws from the
	// student's unlocked skills on every question.
	Pool    []int64
	Options tutor.RecommendOptions
	// MaxQuestions ends the session after that many answers; 0 runs until
	// the student quits.
	MaxQuestions int
}

// Summary totals one session.
type Summary struct {
	Answered    int
	Correct     int
	TotalReward float64
	Degraded    int // questions picked by the fallback instead of the agent
	Transitions []mastery.Transition
}

// Accuracy returns correct/answered in [0,1], 0 before the first answer.
func (s Summary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// Run starts the loop and blocks until the student quits or the question
// budget is spent.
func Run(ctx context.Context, t Tutor, cfg Config, opts ...tea.ProgramOption) (Summary, error) {
	if cfg.StudentID == "" {
		return Summary{}, fmt.Errorf("practice: student id is required")
	}
	m := New(ctx, t, cfg)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return Summary{}, fmt.Errorf("practice: %w", err)
	}
	fm, ok := final.(Model)
	if !ok {
		return Summary{}, fmt.Errorf("practice: unexpected model %T", final)
	}
	return fm.summary, fm.err
}
