// Package cli renders terminal output for the sync commands using lipgloss.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// AccentColor is used for titles and labels.
	AccentColor = lipgloss.Color("#E4572E")
	// OKColor marks completed steps.
	OKColor = lipgloss.Color("#4ECDC4")
	// WarnColor marks skipped or partial work.
	WarnColor = lipgloss.Color("#FFE66D")
	// FailColor marks errors.
	FailColor = lipgloss.Color("#FF6B6B")
	// MutedColor is used for secondary text.
	MutedColor = lipgloss.Color("#777777")

	// TitleStyle renders box titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// LabelStyle renders fixed-width row labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(22)

	// ValueStyle renders row values.
	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	// Status line styles.
	OKStyle   = lipgloss.NewStyle().Foreground(OKColor)
	WarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	FailStyle = lipgloss.NewStyle().Foreground(FailColor)

	// BoxStyle frames summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(1, 2)
)

// Icons.
const (
	OKIcon   = "✓"
	FailIcon = "✗"
	WarnIcon = "!"
)

// FormatSuccess formats a success line.
func FormatSuccess(message string) string {
	return OKStyle.Render(OKIcon + " " + message)
}

// FormatError formats an error line.
func FormatError(message string) string {
	return FailStyle.Render(FailIcon + " " + message)
}

// FormatWarning formats a warning line.
func FormatWarning(message string) string {
	return WarnStyle.Render(WarnIcon + " " + message)
}

// Row is one label/value line of a box.
type Row struct {
	Label string
	Value string
}

// RenderRows renders rows as aligned label/value lines.
func RenderRows(rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			LabelStyle.Render(r.Label),
			ValueStyle.Render(r.Value)))
	}
	return strings.Join(lines, "\n")
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Render(title),
		"",
		content,
	))
}
