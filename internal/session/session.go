// Package session owns the interactive command lifecycle: it classifies
// input, resolves the backend, runs the subprocess, and publishes results on
// a channel the UI drains. One command runs at a time.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/command"
	"github.com/qterm-dev/qterm/internal/envinfo"
	"github.com/qterm-dev/qterm/internal/executor"
	"github.com/qterm-dev/qterm/internal/observability"
	"github.com/qterm-dev/qterm/internal/sanitize"
)

// ErrBusy is returned by Run and Ask while a previous command is in flight.
var ErrBusy = errors.New("a command is already running")

// resultBuffer sizes the results channel; the UI drains it on a short tick,
// so a burst of streaming lines must not block the worker.
const resultBuffer = 64

// cdProbeTimeout bounds the remote directory probe.
const cdProbeTimeout = 10 * time.Second

// Reason classifies why a command failed.
type Reason string

// Reason values.
const (
	ReasonNotAvailable    Reason = "not_available"
	ReasonTimeout         Reason = "timeout"
	ReasonExecutionFailed Reason = "execution_failed"
	ReasonCancelled       Reason = "cancelled"
)

// ResultKind tags what a Result carries.
type ResultKind int

// ResultKind values.
const (
	// Output is an incremental line from a streaming command.
	Output ResultKind = iota

	// Success ends a command; Text holds the collected output.
	Success

	// Failure ends a command; Reason and Text explain it.
	Failure

	// DirChanged ends a directory change; Dir holds the new directory.
	DirChanged
)

// Result is one update published to the UI. Every submitted command produces
// exactly one terminal result (Success, Failure, or DirChanged), preceded by
// zero or more Output results when streaming.
type Result struct {
	CommandID string
	Kind      ResultKind
	Reason    Reason
	Text      string
	Dir       string
	Backend   string
	Duration  time.Duration
}

// Terminal reports whether this result ends its command.
func (r Result) Terminal() bool {
	return r.Kind != Output
}

// Timeouts carries the per-class command deadlines.
type Timeouts struct {
	Shell time.Duration
	Query time.Duration
}

// Session routes commands for one UI instance.
type Session struct {
	env       envinfo.Info
	selector  *backend.Selector
	formatter command.Formatter
	pref      backend.Preference
	timeouts  Timeouts
	logger    *slog.Logger
	tracer    trace.Tracer

	results chan Result

	mu     sync.Mutex
	busy   bool
	dir    string
	cancel context.CancelFunc

	// Injectable executor entry points for tests.
	run     func(ctx context.Context, argv []string, opts executor.Options) (executor.Result, error)
	stream  func(ctx context.Context, argv []string, opts executor.Options) (<-chan executor.Event, error)
	homeDir func() (string, error)
	statDir func(path string) bool
}

// New builds a Session rooted at the environment's working directory.
func New(env envinfo.Info, selector *backend.Selector, pref backend.Preference, timeouts Timeouts, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		env:      env,
		selector: selector,
		formatter: command.Formatter{
			CLIPath:      env.CLIPath,
			SSHTarget:    selector.Target(),
			WindowsHost:  env.Platform == envinfo.PlatformWindows,
			WindowsShell: env.Shell,
		},
		pref:     pref,
		timeouts: timeouts,
		logger:   logger,
		tracer:   observability.Tracer("qterm/session"),
		results:  make(chan Result, resultBuffer),
		dir:      env.WorkingDir,
		run:      executor.Run,
		stream:   executor.Stream,
		homeDir:  defaultHomeDir,
		statDir:  defaultStatDir,
	}
}

// Results is the channel the UI drains. It is never closed while the
// session is in use.
func (s *Session) Results() <-chan Result {
	return s.results
}

// Dir returns the session's current working directory.
func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dir
}

// Env returns the environment snapshot the session was built with.
func (s *Session) Env() envinfo.Info {
	return s.env
}

// Run submits a shell command line. Blank input is a no-op with an empty
// command ID. Returns ErrBusy while another command is in flight.
func (s *Session) Run(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}

	if arg, ok := splitCD(line); ok {
		return s.submit(ctx, "cd", func(ctx context.Context, id string) {
			s.changeDir(ctx, id, arg)
		})
	}

	return s.submit(ctx, "shell", func(ctx context.Context, id string) {
		s.runShell(ctx, id, line)
	})
}

// Ask submits an AI query.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil
	}

	return s.submit(ctx, "query", func(ctx context.Context, id string) {
		s.runQuery(ctx, id, question)
	})
}

// Interrupt stops the in-flight command, if any. The command still delivers
// its terminal result.
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
}

// Busy reports whether a command is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.busy
}

func (s *Session) submit(ctx context.Context, class string, work func(ctx context.Context, id string)) (string, error) {
	s.mu.Lock()

	if s.busy {
		s.mu.Unlock()

		return "", ErrBusy
	}

	id := uuid.NewString()
	cmdCtx, cancel := context.WithCancel(ctx)
	s.busy = true
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Debug("command submitted", "id", id, "class", class)

	go func() {
		defer func() {
			cancel()

			s.mu.Lock()
			s.busy = false
			s.cancel = nil
			s.mu.Unlock()
		}()

		spanCtx, span := s.tracer.Start(cmdCtx, "session.command",
			trace.WithAttributes(
				attribute.String("command.id", id),
				attribute.String("command.class", class),
			))
		defer span.End()

		work(spanCtx, id)
	}()

	return id, nil
}

func (s *Session) runShell(ctx context.Context, id, line string) {
	kind := s.selector.Resolve(ctx, s.pref)

	argv, err := s.formatter.Format(command.Pending{Kind: command.Shell, Text: line, Dir: s.Dir()}, kind)
	if err != nil {
		s.fail(ctx, id, kind, ReasonNotAvailable, err.Error())

		return
	}

	if command.IsInteractive(line) {
		s.runStreaming(ctx, id, kind, argv)

		return
	}

	res, err := s.run(ctx, argv, executor.Options{Timeout: s.timeouts.Shell})
	s.finishShell(ctx, id, kind, res, err)
}

func (s *Session) runQuery(ctx context.Context, id, question string) {
	kind := s.selector.Resolve(ctx, s.pref)

	if kind == backend.Local && !s.env.CLIAvailable() {
		s.fail(ctx, id, kind, ReasonNotAvailable,
			"no AI CLI found locally and no other backend is available")

		return
	}

	argv, err := s.formatter.Format(command.Pending{Kind: command.Query, Text: question}, kind)
	if err != nil {
		s.fail(ctx, id, kind, ReasonNotAvailable, err.Error())

		return
	}

	res, err := s.run(ctx, argv, executor.Options{Timeout: s.timeouts.Query})
	s.finishShell(ctx, id, kind, res, err)
}

// finishShell turns an executor result into the command's terminal result.
func (s *Session) finishShell(ctx context.Context, id string, kind backend.Kind, res executor.Result, err error) {
	switch {
	case res.TimedOut:
		s.fail(ctx, id, kind, ReasonTimeout, "command timed out after "+res.Duration.Round(time.Second).String())

		return
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		s.fail(ctx, id, kind, ReasonCancelled, "interrupted")

		return
	case err != nil:
		s.fail(ctx, id, kind, ReasonExecutionFailed, err.Error())

		return
	}

	verdict := sanitize.ClassifyStderr(res.Stderr, res.ExitCode)
	stdout := sanitize.Clean(res.Stdout)

	if verdict.IsError {
		text := verdict.Stderr
		if text == "" {
			text = stdout
		}

		s.fail(ctx, id, kind, ReasonExecutionFailed, text)

		return
	}

	s.logger.Info("command finished", "id", id, "backend", kind.String(), "duration", res.Duration)
	s.emit(Result{CommandID: id, Kind: Success, Text: stdout, Backend: kind.String(), Duration: res.Duration})
}

func (s *Session) runStreaming(ctx context.Context, id string, kind backend.Kind, argv []string) {
	events, err := s.stream(ctx, argv, executor.Options{Timeout: s.timeouts.Shell})
	if err != nil {
		s.fail(ctx, id, kind, ReasonExecutionFailed, err.Error())

		return
	}

	for ev := range events {
		if !ev.Done {
			s.emit(Result{CommandID: id, Kind: Output, Text: sanitize.Clean(ev.Line), Backend: kind.String()})

			continue
		}

		switch {
		case ev.Result.TimedOut:
			s.fail(ctx, id, kind, ReasonTimeout, "command timed out")
		case ev.Err != nil:
			s.fail(ctx, id, kind, ReasonExecutionFailed, ev.Err.Error())
		default:
			s.emit(Result{CommandID: id, Kind: Success, Backend: kind.String(), Duration: ev.Result.Duration})
		}
	}
}

func (s *Session) fail(ctx context.Context, id string, kind backend.Kind, reason Reason, text string) {
	s.logger.Warn("command failed", "id", id, "backend", kind.String(), "reason", string(reason))

	if span := trace.SpanFromContext(ctx); span != nil {
		span.SetStatus(codes.Error, string(reason))
	}

	s.emit(Result{CommandID: id, Kind: Failure, Reason: reason, Text: text, Backend: kind.String()})
}

func (s *Session) emit(r Result) {
	s.results <- r
}
