package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// AnswerInput wraps bubbles/textinput for free-text answers. After Grade it
// shows a tick or a cross next to the answer and ignores further keys until
// Reset.
type AnswerInput struct {
	Model  textinput.Model
	graded bool
	right  bool
}

// NewAnswerInput creates a focused input limited to maxLen characters.
func NewAnswerInput(placeholder string, maxLen int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if maxLen > 0 {
		ti.CharLimit = maxLen
	}
	ti.Focus()
	return AnswerInput{Model: ti}
}

// Init returns the initial command.
func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

// Update handles messages.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if a.graded {
		return a, nil
	}
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the input.
func (a AnswerInput) View() string {
	view := a.Model.View()
	if a.graded {
		if a.right {
			view += " " + theme.Correct.Render("✓")
		} else {
			view += " " + theme.Incorrect.Render("✗")
		}
	}
	return view
}

// Value returns the trimmed answer.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

// Graded reports whether the current answer has been marked.
func (a AnswerInput) Graded() bool {
	return a.graded
}

// Grade marks the current answer.
func (a *AnswerInput) Grade(correct bool) {
	a.graded = true
	a.right = correct
}

// Reset clears the answer for the next question.
func (a *AnswerInput) Reset() tea.Cmd {
	a.graded = false
	a.right = false
	a.Model.Reset()
	return a.Model.Focus()
}
