package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/qterm-dev/qterm/internal/config"
	"github.com/qterm-dev/qterm/internal/envinfo"
)

// sshLivenessTTL is how long a successful SSH probe is trusted before the
// next query re-probes the host.
const sshLivenessTTL = 30 * time.Second

// sshProbeToken is echoed by the remote to confirm a functional roundtrip,
// not just a TCP connect.
const sshProbeToken = "QTERM_SSH_OK"

// Selector resolves a backend preference against the detected environment.
// Resolve never fails: with nothing available it still returns Local so the
// caller surfaces a clear "not installed" error at execution time instead of
// a selection-time error.
type Selector struct {
	env envinfo.Info
	ssh config.SSHTarget

	// Injectable probes for tests.
	probeSSH    func(ctx context.Context) error
	probeWSLCLI func(ctx context.Context) bool
	now         func() time.Time

	mu          sync.Mutex
	sshProbedAt time.Time
	sshAlive    bool

	wslOnce   sync.Once
	wslHasCLI bool
}

// NewSelector creates a Selector for the given environment snapshot and SSH
// target. Both are fixed for the Selector's lifetime; re-detecting the
// environment means building a new Selector.
func NewSelector(env envinfo.Info, ssh config.SSHTarget) *Selector {
	s := &Selector{
		env: env,
		ssh: ssh,
		now: time.Now,
	}

	s.probeSSH = s.runSSHProbe
	s.probeWSLCLI = s.runWSLCLIProbe

	return s
}

// Target returns the SSH target the selector was built with.
func (s *Selector) Target() config.SSHTarget {
	return s.ssh
}

// Resolve picks the concrete backend for a preference. Auto evaluates
// local → wsl → ssh and returns the first available.
func (s *Selector) Resolve(ctx context.Context, pref Preference) Kind {
	switch pref {
	case PreferLocal:
		return Local
	case PreferWSL:
		return WSL
	case PreferSSH:
		return SSH
	}

	if s.env.CLIAvailable() {
		return Local
	}

	if s.env.Platform == envinfo.PlatformWindows && s.wslCLIAvailable(ctx) {
		return WSL
	}

	if s.SSHAlive(ctx) {
		return SSH
	}

	return Local
}

// Status reports availability for a preference, resolving Auto first.
func (s *Selector) Status(ctx context.Context, pref Preference) Status {
	if pref == Auto {
		kind := s.Resolve(ctx, pref)
		st := s.kindStatus(ctx, kind)
		st.Description = "auto: " + st.Description

		return st
	}

	return s.kindStatus(ctx, s.Resolve(ctx, pref))
}

func (s *Selector) kindStatus(ctx context.Context, kind Kind) Status {
	switch kind {
	case WSL:
		return Status{
			Backend:     kind.String(),
			Available:   s.env.WSLAvailable && s.wslCLIAvailable(ctx),
			Description: "AI CLI in Windows Subsystem for Linux",
		}
	case SSH:
		available := s.ssh.Configured() && s.SSHAlive(ctx)

		desc := "SSH target not configured"
		if s.ssh.Configured() {
			desc = "AI CLI on " + s.ssh.Addr()
		}

		return Status{Backend: kind.String(), Available: available, Description: desc}
	default:
		desc := "native shell"
		if s.env.CLIAvailable() {
			desc = "AI CLI at " + s.env.CLIPath
		}

		return Status{Backend: kind.String(), Available: true, Description: desc}
	}
}

// SSHAlive reports whether the configured SSH target answers a batch-mode
// probe. Successful probes are cached for sshLivenessTTL to avoid a network
// roundtrip per query.
func (s *Selector) SSHAlive(ctx context.Context) bool {
	if !s.ssh.Configured() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sshProbedAt.IsZero() && s.now().Sub(s.sshProbedAt) < sshLivenessTTL {
		return s.sshAlive
	}

	err := s.probeSSH(ctx)
	s.sshProbedAt = s.now()
	s.sshAlive = err == nil

	return s.sshAlive
}

func (s *Selector) runSSHProbe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, (sshConnectTimeoutSecs+2)*time.Second)
	defer cancel()

	args := SSHArgs(s.ssh, "echo", sshProbeToken)

	out, err := exec.CommandContext(probeCtx, args[0], args[1:]...).Output()
	if err != nil {
		return fmt.Errorf("ssh probe: %w", err)
	}

	if !strings.Contains(string(out), sshProbeToken) {
		return fmt.Errorf("ssh probe: unexpected response %q", strings.TrimSpace(string(out)))
	}

	return nil
}

// wslCLIAvailable checks once per Selector whether the AI CLI resolves
// inside the subsystem's login shell.
func (s *Selector) wslCLIAvailable(ctx context.Context) bool {
	s.wslOnce.Do(func() {
		if !s.env.WSLAvailable {
			return
		}

		s.wslHasCLI = s.probeWSLCLI(ctx)
	})

	return s.wslHasCLI
}

func (s *Selector) runWSLCLIProbe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, "wsl", "--", "bash", "-l", "-c", "which q").Output()

	return err == nil && strings.TrimSpace(string(out)) != ""
}
