package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/qterm-dev/qterm/internal/session"
	"github.com/qterm-dev/qterm/internal/skin"
)

// fakeSession records what the model submits and lets tests feed results.
type fakeSession struct {
	results     chan session.Result
	ran         []string
	asked       []string
	busy        bool
	busyErr     bool
	interrupted bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{results: make(chan session.Result, 16)}
}

func (f *fakeSession) Run(_ context.Context, line string) (string, error) {
	if f.busyErr {
		return "", session.ErrBusy
	}

	f.ran = append(f.ran, line)

	return "id-1", nil
}

func (f *fakeSession) Ask(_ context.Context, q string) (string, error) {
	if f.busyErr {
		return "", session.ErrBusy
	}

	f.asked = append(f.asked, q)

	return "id-2", nil
}

func (f *fakeSession) Results() <-chan session.Result { return f.results }
func (f *fakeSession) Interrupt()                     { f.interrupted = true }
func (f *fakeSession) Busy() bool                     { return f.busy }
func (f *fakeSession) Dir() string                    { return "/work" }

func testSkin() skin.Skin {
	s, _ := skin.Load("qis-green")

	return s
}

func sizedModel(f *fakeSession) Model {
	m := New(f, testSkin())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	return next.(Model)
}

func typeLine(m Model, line string) Model {
	m.input.SetValue(line)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	return next.(Model)
}

func TestSubmit_RoutesShellAndQuery(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	m = typeLine(m, "ls -la")
	m = typeLine(m, "?what is dns")

	if len(f.ran) != 1 || f.ran[0] != "ls -la" {
		t.Errorf("ran = %v, want [ls -la]", f.ran)
	}

	if len(f.asked) != 1 || f.asked[0] != "what is dns" {
		t.Errorf("asked = %v, want [what is dns]", f.asked)
	}

	if m.status != statusExecuting {
		t.Errorf("status = %v after submit, want EXECUTING", m.status)
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared after submit: %q", m.input.Value())
	}
}

func TestSubmit_BlankDoesNothing(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	m = typeLine(m, "   ")

	if len(f.ran)+len(f.asked) != 0 {
		t.Error("blank input was submitted")
	}

	if m.status != statusReady {
		t.Errorf("status = %v, want READY", m.status)
	}
}

func TestSubmit_BusyShowsNotice(t *testing.T) {
	f := newFakeSession()
	f.busyErr = true
	m := sizedModel(f)

	m = typeLine(m, "echo hi")

	if len(m.lines) == 0 || !strings.Contains(m.lines[len(m.lines)-1], "already running") {
		t.Errorf("lines = %v, want a busy notice", m.lines)
	}
}

func TestTick_DrainsQueueToEmpty(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	f.results <- session.Result{Kind: session.Output, Text: "line 1", Backend: "local"}
	f.results <- session.Result{Kind: session.Output, Text: "line 2", Backend: "local"}
	f.results <- session.Result{Kind: session.Success, Backend: "local"}

	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if cmd == nil {
		t.Error("tick did not reschedule itself")
	}

	if len(f.results) != 0 {
		t.Errorf("queue has %d results after tick, want 0", len(f.results))
	}

	if len(m.lines) != 2 {
		t.Errorf("transcript lines = %d, want 2", len(m.lines))
	}

	if m.status != statusReady {
		t.Errorf("status = %v after terminal result, want READY", m.status)
	}
}

func TestFailure_SetsErrorThenNextSubmitResets(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	f.results <- session.Result{Kind: session.Failure, Reason: session.ReasonTimeout, Text: "command timed out"}

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if m.status != statusError {
		t.Fatalf("status = %v after failure, want ERROR", m.status)
	}

	m = typeLine(m, "echo again")

	if m.status != statusExecuting {
		t.Errorf("status = %v after next submit, want EXECUTING", m.status)
	}
}

func TestFailure_ErrorFlashDecaysToReady(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	f.results <- session.Result{Kind: session.Failure, Reason: session.ReasonExecutionFailed, Text: "boom"}

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if m.status != statusError {
		t.Fatalf("status = %v after failure, want ERROR", m.status)
	}

	for i := 0; i <= errorFlashTicks; i++ {
		next, _ = m.Update(tickMsg(time.Now()))
		m = next.(Model)
	}

	if m.status != statusReady {
		t.Errorf("status = %v after the flash window, want READY", m.status)
	}
}

func TestDirChanged_UpdatesTranscript(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	f.results <- session.Result{Kind: session.DirChanged, Dir: "/srv/app", Backend: "ssh"}

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)

	if m.backend != "ssh" {
		t.Errorf("backend = %q, want ssh", m.backend)
	}

	if !strings.Contains(m.View(), "/srv/app") {
		t.Error("view does not show the new directory")
	}
}

func TestCtrlC_InterruptsWhenBusyQuitsWhenIdle(t *testing.T) {
	f := newFakeSession()
	f.busy = true
	m := sizedModel(f)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("ctrl+c while busy should not quit")
	}

	if !f.interrupted {
		t.Error("ctrl+c while busy did not interrupt")
	}

	f.busy = false

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c while idle should quit")
	}

	if msg := cmd(); msg == nil {
		t.Error("quit command returned nil msg")
	}
}

func TestHistory_Recall(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	m = typeLine(m, "first")
	m = typeLine(m, "second")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)

	if got := m.input.Value(); got != "second" {
		t.Errorf("after one up, input = %q, want %q", got, "second")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)

	if got := m.input.Value(); got != "first" {
		t.Errorf("after two up, input = %q, want %q", got, "first")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)

	if got := m.input.Value(); got != "second" {
		t.Errorf("after down, input = %q, want %q", got, "second")
	}
}

func TestStatusLine_FitsWidth(t *testing.T) {
	f := newFakeSession()
	m := sizedModel(f)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	m = next.(Model)
	m.backend = "local"

	// Must not panic and must render something for a narrow terminal.
	if m.statusLine() == "" {
		t.Error("statusLine() is empty")
	}
}
