package tui

import "github.com/charmbracelet/lipgloss"

// Palette, 256-colour.
const (
	accent = lipgloss.Color("39")
	muted  = lipgloss.Color("244")
	faint  = lipgloss.Color("240")
	text   = lipgloss.Color("253")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle      = lipgloss.NewStyle().Foreground(faint)
	resultStyle   = lipgloss.NewStyle().Foreground(text)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	listItemStyle = lipgloss.NewStyle().Foreground(text)
	helpStyle     = lipgloss.NewStyle().Foreground(faint).Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(muted).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
)
