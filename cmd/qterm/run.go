package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qterm-dev/qterm/internal/config"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
	"github.com/qterm-dev/qterm/internal/session"
)

// RunResult is the JSON shape for one-shot command output.
type RunResult struct {
	Backend string `json:"backend"`
	Output  string `json:"output"`
	Dir     string `json:"dir,omitempty"`
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <command>...",
		Short: "Run one shell command on the selected backend and exit",
		Long: `Run a single shell command through the backend router and print its
output. The command is routed exactly as it would be in the interactive
terminal, including benign stderr filtering.`,
		Example: `  qterm run uname -a
  qterm run --backend ssh df -h`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, func(ctx context.Context, sess *session.Session) (string, error) {
				return sess.Run(ctx, strings.Join(args, " "))
			})
		},
	}
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask the AI backend one question and exit",
		Example: `  qterm ask how do I find large files
  qterm ask --backend wsl "what does chmod 644 do"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, func(ctx context.Context, sess *session.Session) (string, error) {
				return sess.Ask(ctx, strings.Join(args, " "))
			})
		},
	}
}

// oneShot runs a single submission to completion, printing streaming output
// as it arrives and mapping the terminal result onto an exit code.
func oneShot(cmd *cobra.Command, submit func(context.Context, *session.Session) (string, error)) error {
	out := output.FromContext(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	backendFlag, _ := cmd.Flags().GetString("backend")

	sess, err := buildSession(ctx, cfg, backendFlag)
	if err != nil {
		return err
	}

	if _, err := submit(ctx, sess); err != nil {
		return clierrors.Wrap(clierrors.ExitGeneral, "Cannot submit command", err)
	}

	var collected []string

	for r := range sess.Results() {
		if !r.Terminal() {
			if out.JSON {
				collected = append(collected, r.Text)
			} else {
				out.Println(r.Text)
			}

			continue
		}

		return finishOneShot(out, r, collected)
	}

	return clierrors.New(clierrors.ExitGeneral, "Command produced no result")
}

func finishOneShot(out *output.Writer, r session.Result, collected []string) error {
	switch r.Kind {
	case session.Success, session.DirChanged:
		text := r.Text
		if r.Kind == session.DirChanged {
			text = r.Dir
		}

		if out.JSON {
			collected = append(collected, strings.TrimRight(text, "\n"))

			return out.PrintJSON(RunResult{
				Backend: r.Backend,
				Output:  strings.TrimLeft(strings.Join(collected, "\n"), "\n"),
				Dir:     r.Dir,
			})
		}

		if text != "" {
			out.Print("%s", ensureTrailingNewline(text))
		}

		return nil

	default:
		return failureError(r)
	}
}

// failureError maps a session failure onto the CLI error taxonomy.
func failureError(r session.Result) error {
	msg := strings.TrimSpace(r.Text)

	switch r.Reason {
	case session.ReasonNotAvailable:
		switch {
		case msg != "":
			return clierrors.New(clierrors.ExitNotAvailable, msg).
				WithHint("Run 'qterm doctor' to see which backends are usable")
		case r.Backend != "":
			return clierrors.BackendNotAvailable(r.Backend)
		default:
			return clierrors.CLINotAvailable()
		}
	case session.ReasonTimeout:
		return clierrors.ExecutionTimeout(nil).
			WithHint("Raise the limit with 'qterm config set timeouts.shell <seconds>'")
	case session.ReasonCancelled:
		return clierrors.New(clierrors.ExitGeneral, "Interrupted")
	default:
		if msg == "" {
			return clierrors.ExecutionFailed(nil)
		}

		return clierrors.ExecutionFailed(errors.New(msg))
	}
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}
