package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/command"
	"github.com/qterm-dev/qterm/internal/executor"
	"github.com/qterm-dev/qterm/internal/sanitize"
)

// splitCD recognizes a directory change. It returns the target path ("" for
// bare cd, meaning home) and whether the line was a cd at all.
func splitCD(line string) (string, bool) {
	if line == "cd" {
		return "", true
	}

	if strings.HasPrefix(line, "cd ") {
		return strings.TrimSpace(strings.TrimPrefix(line, "cd ")), true
	}

	return "", false
}

// changeDir resolves a cd against the active backend's filesystem and emits
// one terminal result. The process working directory never changes; only the
// session's notion of it does.
func (s *Session) changeDir(ctx context.Context, id, path string) {
	kind := s.selector.Resolve(ctx, s.pref)

	var (
		newDir string
		err    error
	)

	if kind == backend.Local {
		newDir, err = s.resolveLocalDir(path)
	} else {
		newDir, err = s.resolveRemoteDir(ctx, kind, path)
	}

	if err != nil {
		s.fail(ctx, id, kind, ReasonExecutionFailed, err.Error())

		return
	}

	s.mu.Lock()
	s.dir = newDir
	s.mu.Unlock()

	s.logger.Info("directory changed", "id", id, "dir", newDir, "backend", kind.String())
	s.emit(Result{CommandID: id, Kind: DirChanged, Dir: newDir, Backend: kind.String()})
}

func (s *Session) resolveLocalDir(path string) (string, error) {
	switch {
	case path == "" || path == "~":
		home, err := s.homeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory: %w", err)
		}

		path = home
	case strings.HasPrefix(path, "~/"):
		home, err := s.homeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory: %w", err)
		}

		path = filepath.Join(home, path[2:])
	case !filepath.IsAbs(path):
		path = filepath.Join(s.Dir(), path)
	}

	path = filepath.Clean(path)

	if !s.statDir(path) {
		return "", fmt.Errorf("no such directory: %s", path)
	}

	return path, nil
}

// resolveRemoteDir validates the target on the remote filesystem by asking
// the remote shell itself, so ~, relative paths, and symlinks all behave as
// the user expects there.
func (s *Session) resolveRemoteDir(ctx context.Context, kind backend.Kind, path string) (string, error) {
	probe := "cd && pwd"
	if path != "" {
		probe = fmt.Sprintf(`cd %s && pwd`, command.QuotePath(path))
	}

	if dir := s.Dir(); dir != "" && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "~") && path != "" {
		probe = fmt.Sprintf(`cd %s && %s`, command.QuotePath(dir), probe)
	}

	var argv []string

	switch kind {
	case backend.WSL:
		argv = []string{"wsl", "--", "bash", "-l", "-c", probe}
	case backend.SSH:
		argv = backend.SSHArgs(s.selector.Target(), "bash", "-l", "-c", command.QuoteRemote(probe))
	default:
		return "", fmt.Errorf("unsupported backend %v for directory change", kind)
	}

	res, err := s.run(ctx, argv, executor.Options{Timeout: cdProbeTimeout})
	if err != nil {
		return "", fmt.Errorf("directory probe failed: %w", err)
	}

	if res.ExitCode != 0 {
		msg := strings.TrimSpace(sanitize.Clean(res.Stderr))
		if msg == "" {
			msg = "no such directory"
		}

		return "", fmt.Errorf("%s", msg)
	}

	lines := strings.Split(strings.TrimSpace(sanitize.Clean(res.Stdout)), "\n")

	newDir := strings.TrimSpace(lines[len(lines)-1])
	if newDir == "" {
		return "", fmt.Errorf("directory probe returned no path")
	}

	return newDir, nil
}

func defaultHomeDir() (string, error) {
	return os.UserHomeDir()
}

func defaultStatDir(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.IsDir()
}
