package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7C7CFF")
	ColorSuccess = lipgloss.Color("#A6E3A1")
	ColorWarning = lipgloss.Color("#F9E2AF")
	ColorError   = lipgloss.Color("#F38BA8")
	ColorMuted   = lipgloss.Color("#6C7086")

	// Header style for meeting titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// Success style for positive feedback
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Warning style for degraded-mode notices
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Error style for error messages
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Muted style for secondary text (dates, durations, speakers)
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
