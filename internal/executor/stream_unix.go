//go:build unix

package executor

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// startStream launches the child on a pseudo-terminal. A pty makes tools
// like ping and top flush per line even though their stdout is not a pipe.
func startStream(cmd *exec.Cmd) (io.ReadCloser, error) {
	// Setsid from pty.Start supersedes the process-group attribute.
	cmd.SysProcAttr = nil

	return pty.Start(cmd)
}
