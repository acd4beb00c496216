package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/qterm-dev/qterm/internal/session"
	"github.com/qterm-dev/qterm/internal/skin"
)

// Run starts the interactive terminal and blocks until the user quits.
func Run(sess *session.Session, sk skin.Skin) error {
	p := tea.NewProgram(New(sess, sk), tea.WithAltScreen())

	_, err := p.Run()

	return err
}
