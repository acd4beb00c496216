// Package executor runs backend argument vectors as subprocesses. It offers
// a single-shot mode that collects output, and a streaming mode for
// interactive commands that emit output until interrupted.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single-shot command when the caller passes none.
const DefaultTimeout = 30 * time.Second

// waitDelay is how long a process gets between cancellation and the kill of
// its process group.
const waitDelay = 2 * time.Second

// Options tune a single run.
type Options struct {
	// Stdin is written to the child in full before any output is read, then
	// the pipe is closed.
	Stdin string

	// Timeout bounds the run; zero means DefaultTimeout.
	Timeout time.Duration

	// Dir is the child's working directory when non-empty.
	Dir string
}

// Result is the collected outcome of a finished run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
}

// Run executes argv and collects its output. A non-zero exit is reported in
// Result, not as an error; the error return covers the process failing to
// start or being killed by the timeout. Output is decoded permissively, so
// binary garbage in a stream never fails the run.
func Run(ctx context.Context, argv []string, opts Options) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty argument vector")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = waitDelay
	setProcGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }

	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Stdout:   decode(stdout.Bytes()),
		Stderr:   decode(stderr.Bytes()),
		Duration: elapsed,
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1

		return res, context.DeadlineExceeded
	}

	if errors.Is(runCtx.Err(), context.Canceled) {
		res.ExitCode = -1

		return res, context.Canceled
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()

		return res, nil
	}

	if err != nil {
		return res, err
	}

	return res, nil
}

// decode converts raw child output to a valid string, replacing invalid
// byte sequences instead of erroring.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
