// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7B9CD9")
	// ApproveColor indicates automatic approval.
	ApproveColor = lipgloss.Color("#4ECDC4")
	// ReviewColor indicates human review routing.
	ReviewColor = lipgloss.Color("#FFE66D")
	// RejectColor indicates rejection or escalation.
	RejectColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// ApproveStyle formats approval outcomes.
	ApproveStyle = lipgloss.NewStyle().
			Foreground(ApproveColor).
			Bold(true)

	// ReviewStyle formats review outcomes.
	ReviewStyle = lipgloss.NewStyle().
			Foreground(ReviewColor).
			Bold(true)

	// RejectStyle formats rejection and escalation outcomes.
	RejectStyle = lipgloss.NewStyle().
			Foreground(RejectColor).
			Bold(true)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// LabelStyle formats field labels inside cards.
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			PaddingRight(1)
)

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// RenderBox renders content in a styled box with a title.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}
