package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/qterm-dev/qterm/internal/skin"
)

// styles maps a skin onto the lipgloss styles the view uses.
type styles struct {
	output lipgloss.Style
	errorT lipgloss.Style
	muted  lipgloss.Style
	prompt lipgloss.Style
	status lipgloss.Style
	banner lipgloss.Style
}

func newStyles(sk skin.Skin) styles {
	return styles{
		output: lipgloss.NewStyle().Foreground(lipgloss.Color(sk.Colors.Foreground)),
		errorT: lipgloss.NewStyle().Foreground(lipgloss.Color(sk.Colors.Error)),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(sk.Colors.Muted)),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color(sk.Colors.Accent)).Bold(true),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(sk.Colors.StatusFg)).
			Background(lipgloss.Color(sk.Colors.StatusBg)).
			Padding(0, 1),
		banner: lipgloss.NewStyle().Foreground(lipgloss.Color(sk.Colors.Accent)).Bold(true),
	}
}
