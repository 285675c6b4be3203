package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/rasterproj/batch"
)

// Styling functions using lipgloss
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	ProcessingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// LevelStyle picks the style used for an event level
func LevelStyle(level batch.Level) lipgloss.Style {
	switch level {
	case batch.LevelError:
		return ErrorStyle
	case batch.LevelWarn:
		return WarningStyle
	default:
		return InfoStyle
	}
}
