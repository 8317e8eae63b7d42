package practice

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/mastery"
	"github.com/abhisek/adaptiq/internal/tutor"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.SetContent(m.render())
	return v
}

// render draws the full frame, or nothing before the first window size.
func (m Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	header := layout.RenderHeader(m.cfg.StudentID, m.summary.Answered, m.summary.Correct, m.width)
	footer := layout.RenderFooter(m.keyHints(), m.width)
	return layout.RenderFrame(header, m.body(m.width-4), footer, m.width, m.height)
}

func (m Model) body(width int) string {
	switch m.phase {
	case phaseLoading:
		return theme.Hint.Render("\n  Choosing your next question...")
	case phaseDone:
		return m.renderSummary(width)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(m.renderQuestionInfo())
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 0))))
	b.WriteString("\n\n")

	prompt := m.question.Prompt
	if prompt == "" {
		prompt = fmt.Sprintf("Question #%d", m.question.ID)
	}
	b.WriteString(theme.Body.Bold(true).Width(width).Render("  " + prompt))
	b.WriteString("\n\n  ")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch m.phase {
	case phaseSubmitting:
		b.WriteString(theme.Hint.Render("  Checking..."))
	case phaseFeedback:
		b.WriteString(m.renderFeedback())
	}
	return b.String()
}

func (m Model) renderQuestionInfo() string {
	topic := m.question.Topic.DisplayName()
	info := theme.Label.Render("  "+topic) +
		theme.Hint.Render(fmt.Sprintf("   difficulty %d/10", m.question.Difficulty))
	if m.question.SkillID != "" {
		info += theme.Hint.Render("   skill " + m.question.SkillID)
	}
	if m.rec.Outcome == tutor.Degraded {
		info += "   " + theme.Degraded.Render("(random pick)")
	} else if m.rec.Explored {
		info += "   " + theme.Hint.Render("(exploring)")
	}
	return info
}

func (m Model) renderFeedback() string {
	if m.notice != "" {
		return theme.Incorrect.Render("  Skipped: ") + theme.Body.Render(m.notice)
	}
	if m.last == nil {
		return ""
	}

	var b strings.Builder
	if m.last.Correct {
		b.WriteString(theme.Correct.Render("  Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Render("  Not quite.") +
			theme.Body.Render(" The answer was "+m.question.CorrectAnswer))
	}
	b.WriteString("\n\n")
	r := m.last.Reward
	b.WriteString(theme.Hint.Render(fmt.Sprintf(
		"  reward %+.2f  (correctness %+.2f, time %+.2f, challenge %+.2f)",
		r.Total, r.Correctness, r.Time, r.Challenge)))

	if m.last.Mastery != nil {
		if tr := m.last.Mastery.Transition(); tr != nil {
			b.WriteString("\n\n  ")
			b.WriteString(renderTransition(*tr))
		}
	}
	return b.String()
}

func renderTransition(tr mastery.Transition) string {
	msg := fmt.Sprintf("%s: %s → %s", tr.SkillID, mastery.LevelName(tr.From), mastery.LevelName(tr.To))
	if tr.Unlocked {
		msg += "  (dependent skills unlocked)"
	}
	return lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(msg)
}

func (m Model) renderSummary(width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Render("  Session summary"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(theme.Incorrect.Render("  Error: ") + theme.Body.Render(m.err.Error()))
		b.WriteString("\n\n")
	} else if m.notice != "" {
		b.WriteString(theme.Hint.Render("  " + m.notice))
		b.WriteString("\n\n")
	}

	s := m.summary
	rows := []string{
		fmt.Sprintf("Answered     %d", s.Answered),
		fmt.Sprintf("Correct      %d (%.0f%%)", s.Correct, s.Accuracy()*100),
		fmt.Sprintf("Total reward %+.2f", s.TotalReward),
	}
	if s.Degraded > 0 {
		rows = append(rows, fmt.Sprintf("Random picks %d", s.Degraded))
	}
	for _, r := range rows {
		b.WriteString(theme.Body.Render("  " + r))
		b.WriteString("\n")
	}
	for _, tr := range s.Transitions {
		b.WriteString("\n  ")
		b.WriteString(renderTransition(tr))
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}
