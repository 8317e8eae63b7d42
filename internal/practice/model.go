package practice

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/tutor"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAsking
	phaseSubmitting
	phaseFeedback
	phaseDone
)

// Model is the Bubble Tea model for one practice session.
type Model struct {
	ctx   context.Context
	tutor Tutor
	cfg   Config
	now   func() time.Time

	phase    phase
	rec      tutor.Recommendation
	question tutor.ContentInfo
	asked    time.Time
	input    components.AnswerInput
	last     *tutor.AnswerResult
	notice   string // non-fatal problem with the last answer
	summary  Summary
	err      error // fatal; ends the session

	width  int
	height int
}

var _ tea.Model = Model{}

// New creates a session model. Run is the usual entry point; New is exposed
// for embedding the loop in another program.
func New(ctx context.Context, t Tutor, cfg Config) Model {
	return Model{
		ctx:   ctx,
		tutor: t,
		cfg:   cfg,
		now:   time.Now,
		input: components.NewAnswerInput("Type your answer...", 64),
	}
}

// Summary returns the totals so far.
func (m Model) Summary() Summary {
	return m.summary
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchQuestion(), m.input.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case questionMsg:
		return m.handleQuestion(msg)

	case answerMsg:
		return m.handleAnswer(msg)

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.phase == phaseAsking {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleQuestion(msg questionMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.err = msg.Err
		m.phase = phaseDone
		return m, nil
	}
	if msg.Rec.ContentID == 0 {
		m.phase = phaseDone
		m.notice = "No questions are available right now."
		return m, nil
	}
	m.rec = msg.Rec
	m.question = msg.Info
	m.asked = m.now()
	m.last = nil
	m.notice = ""
	m.phase = phaseAsking
	if msg.Rec.Outcome == tutor.Degraded {
		m.summary.Degraded++
	}
	return m, m.input.Reset()
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.phase = phaseFeedback
	if msg.Err != nil {
		// Locked or vanished content skips the question; anything else is fatal.
		if errors.Is(msg.Err, tutor.ErrLockedSkill) || errors.Is(msg.Err, tutor.ErrNotFound) {
			m.notice = msg.Err.Error()
			return m, nil
		}
		m.err = msg.Err
		m.phase = phaseDone
		return m, nil
	}

	res := msg.Result
	m.last = &res
	m.input.Grade(res.Correct)
	m.summary.Answered++
	if res.Correct {
		m.summary.Correct++
	}
	m.summary.TotalReward += res.Reward.Total
	if res.Mastery != nil {
		if tr := res.Mastery.Transition(); tr != nil {
			m.summary.Transitions = append(m.summary.Transitions, *tr)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "esc" {
		m.phase = phaseDone
		return m, tea.Quit
	}

	switch m.phase {
	case phaseAsking:
		if key == "enter" {
			if m.input.Value() == "" {
				return m, nil
			}
			m.phase = phaseSubmitting
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseFeedback:
		if m.cfg.MaxQuestions > 0 && m.summary.Answered >= m.cfg.MaxQuestions {
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.phase = phaseLoading
		return m, m.fetchQuestion()

	case phaseDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) fetchQuestion() tea.Cmd {
	ctx, t, cfg := m.ctx, m.tutor, m.cfg
	return func() tea.Msg {
		rec, err := t.NextQuestion(ctx, cfg.StudentID, cfg.Pool, cfg.Options)
		if err != nil {
			return questionMsg{Err: err}
		}
		if rec.ContentID == 0 {
			return questionMsg{Rec: rec}
		}
		info, err := t.Content(ctx, rec.ContentID)
		if err != nil {
			return questionMsg{Err: err}
		}
		return questionMsg{Rec: rec, Info: info}
	}
}

func (m Model) submit() tea.Cmd {
	ctx, t := m.ctx, m.tutor
	sub := tutor.Submission{
		StudentID: m.cfg.StudentID,
		ContentID: m.question.ID,
		Answer:    m.input.Value(),
		TimeSpent: m.now().Sub(m.asked).Seconds(),
	}
	return func() tea.Msg {
		res, err := t.SubmitAnswer(ctx, sub)
		return answerMsg{Result: res, Err: err}
	}
}

func (m Model) keyHints() []layout.KeyHint {
	switch m.phase {
	case phaseAsking:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Finish"},
		}
	case phaseFeedback:
		return []layout.KeyHint{
			{Key: "any key", Description: "Next question"},
			{Key: "Esc", Description: "Finish"},
		}
	case phaseDone:
		return []layout.KeyHint{{Key: "any key", Description: "Exit"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Finish"}}
}
