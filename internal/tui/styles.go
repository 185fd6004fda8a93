package tui

import (
	"github.com/charmbracelet/lipgloss"

	"bubbletasks/backend"
)

// Styles is the palette of one theme
type Styles struct {
	Bubble        lipgloss.Style
	BubblePinning lipgloss.Style
	Menu          lipgloss.Style
	Title         lipgloss.Style
	Task          lipgloss.Style
	Cursor        lipgloss.Style
	Done          lipgloss.Style
	Help          lipgloss.Style
	Dialog        lipgloss.Style
}

// StylesFor returns the palette for theme. The system theme follows the
// terminal background.
func StylesFor(theme backend.Theme) Styles {
	dark := theme == backend.ThemeDark
	if theme == backend.ThemeSystem {
		dark = lipgloss.HasDarkBackground()
	}

	accent := lipgloss.Color("33")
	fg := lipgloss.Color("235")
	muted := lipgloss.Color("245")
	if dark {
		accent = lipgloss.Color("39")
		fg = lipgloss.Color("252")
		muted = lipgloss.Color("241")
	}

	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

	return Styles{
		Bubble:        box.BorderForeground(accent).Foreground(accent).Bold(true).Align(lipgloss.Center),
		BubblePinning: box.BorderForeground(muted).Foreground(muted).Align(lipgloss.Center),
		Menu:          box.BorderForeground(accent).Padding(0, 1),
		Title:         lipgloss.NewStyle().Bold(true).Foreground(accent),
		Task:          lipgloss.NewStyle().Foreground(fg),
		Cursor:        lipgloss.NewStyle().Bold(true).Reverse(true),
		Done:          lipgloss.NewStyle().Foreground(muted).Strikethrough(true),
		Help:          lipgloss.NewStyle().Foreground(muted),
		Dialog:        box.BorderForeground(accent).Padding(0, 1),
	}
}
