// Package backend selects the execution target for a command: the native
// local shell, a Linux subsystem hosted on Windows, or a remote host over SSH.
package backend

import (
	"fmt"
	"strconv"

	"github.com/qterm-dev/qterm/internal/config"
)

// Kind is a concrete execution backend.
type Kind int

// Kind values.
const (
	Local Kind = iota
	WSL
	SSH
)

// String returns the backend identifier used in config and status output.
func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case WSL:
		return "wsl"
	case SSH:
		return "ssh"
	default:
		return "unknown"
	}
}

// Preference is the user-facing backend choice; Auto resolves to a concrete
// Kind at query time.
type Preference string

// Preference values.
const (
	Auto        Preference = "auto"
	PreferLocal Preference = "local"
	PreferWSL   Preference = "wsl"
	PreferSSH   Preference = "ssh"
)

// ParsePreference validates a preference string from config or flags.
func ParsePreference(s string) (Preference, error) {
	switch Preference(s) {
	case Auto, PreferLocal, PreferWSL, PreferSSH:
		return Preference(s), nil
	case "":
		return Auto, nil
	default:
		return "", fmt.Errorf("invalid backend %q (allowed: auto, local, wsl, ssh)", s)
	}
}

// Status describes a backend's availability for display.
type Status struct {
	Backend     string `json:"backend"`
	Available   bool   `json:"available"`
	Description string `json:"description"`
}

// sshConnectTimeoutSecs is passed to the ssh client as ConnectTimeout.
const sshConnectTimeoutSecs = 10

// SSHArgs builds the ssh argument vector for a remote command, in batch mode
// so a missing key never hangs on a password prompt.
func SSHArgs(target config.SSHTarget, remote ...string) []string {
	args := []string{"ssh"}

	if target.Port != 0 && target.Port != config.DefaultSSHPort {
		args = append(args, "-p", strconv.Itoa(target.Port))
	}

	if target.KeyFile != "" {
		args = append(args, "-i", target.KeyFile)
	}

	args = append(args,
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=no",
		"-o", fmt.Sprintf("ConnectTimeout=%d", sshConnectTimeoutSecs),
		target.Addr(),
	)

	return append(args, remote...)
}
