//go:build unix

package executor

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// setProcGroup puts the child in its own process group so a timeout can
// take down the whole pipeline, not just the shell.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
}

// terminate signals the child's process group. SIGTERM first; the kill after
// WaitDelay is handled by the exec package.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
}
