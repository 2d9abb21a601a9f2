// Package theme holds the terminal palette and shared styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary = lipgloss.Color("#6366F1") // Indigo
	Accent  = lipgloss.Color("#0EA5E9") // Sky
	Success = lipgloss.Color("#22C55E") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#F43F5E") // Rose
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	Border  = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Lecture states
var (
	Current = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Done = lipgloss.NewStyle().
		Foreground(Success)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim)
)

// Outcomes and notices
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Notice = lipgloss.NewStyle().
		Foreground(Warning)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Progress bar
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Accent)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
