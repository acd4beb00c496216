// Package tui renders the interactive terminal: a transcript viewport, an
// input line, and a status bar. Command results arrive asynchronously from
// the session and are drained on a fixed tick so the event loop never blocks
// on a running command.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/qterm-dev/qterm/internal/session"
	"github.com/qterm-dev/qterm/internal/skin"
)

// pollInterval paces the result drain. 100ms is fast enough to feel live and
// slow enough to batch bursts of streaming output into one render.
const pollInterval = 100 * time.Millisecond

// queryPrefix routes input to the AI backend instead of the shell.
const queryPrefix = "?"

// errorFlashTicks is how many polls the ERROR status stays visible.
const errorFlashTicks = 20

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// commandSession is what the model needs from the session; satisfied by
// *session.Session.
type commandSession interface {
	Run(ctx context.Context, line string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
	Results() <-chan session.Result
	Interrupt()
	Busy() bool
	Dir() string
}

type uiStatus int

const (
	statusReady uiStatus = iota
	statusExecuting
	statusError
)

func (s uiStatus) String() string {
	switch s {
	case statusExecuting:
		return "EXECUTING..."
	case statusError:
		return "ERROR"
	default:
		return "READY"
	}
}

// Model is the bubbletea model for the main screen.
type Model struct {
	session commandSession
	skin    skin.Skin
	styles  styles

	input    textinput.Model
	viewport viewport.Model

	status     uiStatus
	errorTicks int
	backend    string
	lines      []string

	history    []string
	historyIdx int

	width  int
	height int
	ready  bool
}

// New builds the model around a session and a skin.
func New(sess commandSession, sk skin.Skin) Model {
	ti := textinput.New()
	ti.Prompt = sk.Prompt
	ti.Placeholder = "command, or ?question for the AI"
	ti.Focus()

	return Model{
		session:    sess,
		skin:       sk,
		styles:     newStyles(sk),
		input:      ti,
		status:     statusReady,
		historyIdx: -1,
	}
}

// Init starts the input cursor blink and the result poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// Update handles one event.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tickMsg:
		m = m.drainResults()

		// ERROR is a flash, not a latch; the bar settles back to READY.
		if m.status == statusError {
			m.errorTicks++
			if m.errorTicks > errorFlashTicks {
				m.status = statusReady
			}
		}

		return m, tick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.session.Busy() {
				m.session.Interrupt()

				return m, nil
			}

			return m, tea.Quit

		case tea.KeyCtrlD:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.submit(), nil

		case tea.KeyUp:
			return m.recallHistory(-1), nil

		case tea.KeyDown:
			return m.recallHistory(1), nil
		}
	}

	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - 3 // banner, input, status bar
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	m.input.Width = msg.Width - runewidth.StringWidth(m.skin.Prompt) - 1
	m.refreshViewport()

	return m
}

// submit routes the input line: a ? prefix goes to the AI backend, anything
// else to the shell.
func (m Model) submit() Model {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m
	}

	var err error

	if q, ok := strings.CutPrefix(line, queryPrefix); ok {
		_, err = m.session.Ask(context.Background(), q)
	} else {
		_, err = m.session.Run(context.Background(), line)
	}

	if errors.Is(err, session.ErrBusy) {
		m.lines = append(m.lines, m.styles.muted.Render("(a command is already running, ctrl+c to interrupt)"))
		m.refreshViewport()

		return m
	}

	m.history = append(m.history, line)
	m.historyIdx = -1
	m.status = statusExecuting

	m.lines = append(m.lines, m.styles.prompt.Render(m.skin.Prompt+line))
	m.refreshViewport()
	m.input.Reset()

	return m
}

func (m Model) recallHistory(dir int) Model {
	if len(m.history) == 0 {
		return m
	}

	switch {
	case m.historyIdx == -1 && dir < 0:
		m.historyIdx = len(m.history) - 1
	case dir < 0 && m.historyIdx > 0:
		m.historyIdx--
	case dir > 0 && m.historyIdx >= 0 && m.historyIdx < len(m.history)-1:
		m.historyIdx++
	case dir > 0:
		m.historyIdx = -1
		m.input.Reset()

		return m
	}

	if m.historyIdx >= 0 {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}

	return m
}

// drainResults empties the session's result queue. Draining to empty on each
// tick keeps the transcript caught up even when a streaming command outpaces
// the poll interval.
func (m Model) drainResults() Model {
	changed := false

	for {
		select {
		case r := <-m.session.Results():
			m = m.apply(r)
			changed = true
		default:
			if changed {
				m.refreshViewport()
			}

			return m
		}
	}
}

func (m Model) apply(r session.Result) Model {
	if r.Backend != "" {
		m.backend = r.Backend
	}

	switch r.Kind {
	case session.Output:
		m.lines = append(m.lines, m.styles.output.Render(r.Text))

	case session.Success:
		if r.Text != "" {
			for _, line := range strings.Split(strings.TrimRight(r.Text, "\n"), "\n") {
				m.lines = append(m.lines, m.styles.output.Render(line))
			}
		}

		m.status = statusReady

	case session.Failure:
		text := r.Text
		if text == "" {
			text = string(r.Reason)
		}

		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			m.lines = append(m.lines, m.styles.errorT.Render(line))
		}

		m.status = statusError
		m.errorTicks = 0

	case session.DirChanged:
		m.lines = append(m.lines, m.styles.muted.Render(r.Dir))
		m.status = statusReady
	}

	return m
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.banner.Render(m.skin.Banner),
		m.viewport.View(),
		m.input.View(),
		m.statusLine(),
	)
}

// statusLine renders the bottom bar: state on the left, backend and working
// directory on the right, truncated to the terminal width.
func (m Model) statusLine() string {
	left := m.status.String()

	right := m.session.Dir()
	if m.backend != "" {
		right = fmt.Sprintf("[%s] %s", m.backend, right)
	}

	gap := m.width - runewidth.StringWidth(left) - runewidth.StringWidth(right) - 2
	if gap < 1 {
		right = runewidth.Truncate(right, maxInt(m.width-runewidth.StringWidth(left)-4, 0), "…")
		gap = 1
	}

	return m.styles.status.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
