package executor

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Event is one streaming update. Line events arrive as the child produces
// output; exactly one terminal event with Done set closes the stream.
type Event struct {
	Line string

	Done   bool
	Result Result
	Err    error
}

// Stream executes argv and delivers output line by line, for commands that
// run until interrupted. On unix the child gets a pseudo-terminal so tools
// that line-buffer only on a tty still stream. Cancelling ctx terminates the
// process group; the stream always ends with a single Done event and a
// closed channel.
func Stream(ctx context.Context, argv []string, opts Options) (<-chan Event, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argument vector")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = waitDelay
	setProcGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }

	reader, err := startStream(cmd)
	if err != nil {
		cancel()

		return nil, err
	}

	ch := make(chan Event, 32)

	go func() {
		defer close(ch)
		defer cancel()

		start := time.Now()

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			ch <- Event{Line: decode(scanner.Bytes())}
		}

		waitErr := cmd.Wait()
		_ = reader.Close()

		res := Result{Duration: time.Since(start)}

		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			waitErr = nil
		case waitErr != nil:
			res.ExitCode = -1
		}

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			res.TimedOut = true
			waitErr = context.DeadlineExceeded
		}

		// Interrupting an interactive command is a normal stop, not a failure.
		if errors.Is(ctx.Err(), context.Canceled) {
			waitErr = nil
			res.ExitCode = 0
		}

		ch <- Event{Done: true, Result: res, Err: waitErr}
	}()

	return ch, nil
}
