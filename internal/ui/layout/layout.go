// Package layout frames a full-screen view with a header and a key-hint
// footer.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// Smallest terminal the practice screen draws in.
const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("Terminal too small\n\nneed %dx%d, have %dx%d", MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Body.Render(msg))
}

// RenderHeader shows the student on the left and the running score on the
// right.
func RenderHeader(student string, answered, correct, width int) string {
	left := theme.Title.Render("adaptiq") + "  " + theme.Hint.Render(student)
	right := theme.Correct.Render(fmt.Sprintf("✓ %d", correct)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" of %d", answered))

	// Bar has a one-cell border on each side.
	inner := width - 2
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return theme.Bar.Width(width).Render(" " + left + strings.Repeat(" ", gap) + right + " ")
}

// RenderFooter lists the key hints.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(theme.TextDim)

	var b strings.Builder
	for i, h := range hints {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(key.Render(h.Key) + " " + desc.Render(h.Description))
	}
	return theme.Bar.Width(width).Render(" " + b.String())
}

// RenderFrame stacks header, content and footer, giving the content all the
// height the bars leave.
func RenderFrame(header, content, footer string, width, height int) string {
	body := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Width(width).Height(body).Render(content),
		footer,
	)
}
