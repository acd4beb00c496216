//go:build windows

package executor

import (
	"io"
	"os"
	"os/exec"
)

// startStream merges stdout and stderr onto one pipe. The parent's copy of
// the write end is closed after start so the reader sees EOF at child exit.
func startStream(cmd *exec.Cmd) (io.ReadCloser, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()

		return nil, err
	}

	w.Close()

	return r, nil
}
