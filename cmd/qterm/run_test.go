package main

import (
	"strings"
	"testing"

	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/session"
)

func TestFailureError_ExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		result session.Result
		want   int
	}{
		{
			name:   "not available",
			result: session.Result{Kind: session.Failure, Reason: session.ReasonNotAvailable},
			want:   clierrors.ExitNotAvailable,
		},
		{
			name:   "not available with message",
			result: session.Result{Kind: session.Failure, Reason: session.ReasonNotAvailable, Text: "no AI CLI"},
			want:   clierrors.ExitNotAvailable,
		},
		{
			name:   "timeout",
			result: session.Result{Kind: session.Failure, Reason: session.ReasonTimeout},
			want:   clierrors.ExitTimeout,
		},
		{
			name:   "cancelled",
			result: session.Result{Kind: session.Failure, Reason: session.ReasonCancelled},
			want:   clierrors.ExitGeneral,
		},
		{
			name:   "execution failed",
			result: session.Result{Kind: session.Failure, Reason: session.ReasonExecutionFailed, Text: "exit 1"},
			want:   clierrors.ExitExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := failureError(tt.result)

			var cliErr *clierrors.CLIError
			if !clierrors.As(err, &cliErr) {
				t.Fatalf("failureError() = %T, want *CLIError", err)
			}

			if cliErr.Code != tt.want {
				t.Errorf("Code = %d, want %d", cliErr.Code, tt.want)
			}
		})
	}
}

func TestFailureError_KeepsExecutionDetail(t *testing.T) {
	err := failureError(session.Result{
		Kind:   session.Failure,
		Reason: session.ReasonExecutionFailed,
		Text:   "exit status 2",
	})

	if got := err.Error(); !strings.Contains(got, "exit status 2") {
		t.Errorf("Error() = %q, want the execution detail preserved", got)
	}
}

func TestFailureError_NamesUnavailableBackend(t *testing.T) {
	err := failureError(session.Result{
		Kind:    session.Failure,
		Reason:  session.ReasonNotAvailable,
		Backend: "ssh",
	})

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) {
		t.Fatalf("failureError() = %T, want *CLIError", err)
	}

	if cliErr.Code != clierrors.ExitNotAvailable {
		t.Errorf("Code = %d, want %d", cliErr.Code, clierrors.ExitNotAvailable)
	}

	if !strings.Contains(cliErr.Message, "ssh") {
		t.Errorf("Message = %q, want the backend named", cliErr.Message)
	}
}

func TestEnsureTrailingNewline(t *testing.T) {
	if got := ensureTrailingNewline("abc"); got != "abc\n" {
		t.Errorf("ensureTrailingNewline(abc) = %q", got)
	}

	if got := ensureTrailingNewline("abc\n"); got != "abc\n" {
		t.Errorf("ensureTrailingNewline(abc\\n) = %q", got)
	}
}
