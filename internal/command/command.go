// Package command turns user input into an argument vector for a concrete
// backend. Shell commands run through a login shell anchored at the session's
// working directory; AI queries invoke the AI CLI's chat subcommand.
package command

import (
	"fmt"
	"strings"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/config"
)

// Kind distinguishes the two input classes.
type Kind int

// Kind values.
const (
	Shell Kind = iota
	Query
)

// Pending is a command accepted from the user but not yet formatted.
type Pending struct {
	Kind Kind

	// Text is the raw command line or question, already trimmed.
	Text string

	// Dir is the working directory the command must run in.
	Dir string
}

// Argv is a ready-to-exec argument vector; Argv[0] is the program.
type Argv []string

// Formatter builds argument vectors for a fixed environment: the located AI
// CLI, the configured SSH target, and the local platform's shell.
type Formatter struct {
	// CLIPath is the local AI CLI executable, empty when not installed.
	CLIPath string

	// SSHTarget is used for the ssh backend.
	SSHTarget config.SSHTarget

	// WindowsHost selects the Windows-native local shell form.
	WindowsHost bool

	// WindowsShell is "cmd" or "powershell"; empty means powershell.
	WindowsShell string
}

// Format builds the argument vector for a pending command on a backend.
// Empty input yields a nil Argv and no error; the caller treats it as a
// no-op. Directory changes are never formatted here, the session resolves
// them itself.
func (f Formatter) Format(p Pending, kind backend.Kind) (Argv, error) {
	if strings.TrimSpace(p.Text) == "" {
		return nil, nil
	}

	if p.Kind == Query {
		return f.formatQuery(p, kind)
	}

	return f.formatShell(p, kind)
}

func (f Formatter) formatShell(p Pending, kind backend.Kind) (Argv, error) {
	line := shellLine(p.Dir, p.Text)

	switch kind {
	case backend.Local:
		if f.WindowsHost {
			return f.formatWindows(p), nil
		}

		return Argv{"bash", "-l", "-c", line}, nil
	case backend.WSL:
		return Argv{"wsl", "--", "bash", "-l", "-c", line}, nil
	case backend.SSH:
		if !f.SSHTarget.Configured() {
			return nil, fmt.Errorf("ssh backend selected but no target configured")
		}

		return Argv(backend.SSHArgs(f.SSHTarget, "bash", "-l", "-c", QuoteRemote(line))), nil
	default:
		return nil, fmt.Errorf("unknown backend %v", kind)
	}
}

// formatWindows builds the native shell form for a Windows host: cmd.exe
// when the default shell is cmd, powershell otherwise.
func (f Formatter) formatWindows(p Pending) Argv {
	if strings.EqualFold(f.WindowsShell, "cmd") {
		line := p.Text
		if p.Dir != "" {
			line = fmt.Sprintf(`cd /d "%s" && %s`, strings.ReplaceAll(p.Dir, `"`, `""`), p.Text)
		}

		return Argv{"cmd", "/c", line}
	}

	line := p.Text
	if p.Dir != "" {
		line = fmt.Sprintf(`cd "%s"; %s`, escapePowerShell(p.Dir), p.Text)
	}

	return Argv{"powershell", "-Command", line}
}

// escapePowerShell makes s safe inside a double-quoted powershell string,
// where the backtick is the escape character.
func escapePowerShell(s string) string {
	s = strings.ReplaceAll(s, "`", "``")
	s = strings.ReplaceAll(s, `"`, "`\"")

	return s
}

func (f Formatter) formatQuery(p Pending, kind backend.Kind) (Argv, error) {
	switch kind {
	case backend.Local:
		if f.CLIPath == "" {
			return nil, fmt.Errorf("no AI CLI installed")
		}

		return Argv{f.CLIPath, "chat", p.Text}, nil
	case backend.WSL:
		return Argv{"wsl", "--", "bash", "-l", "-c", queryLine(p.Text)}, nil
	case backend.SSH:
		if !f.SSHTarget.Configured() {
			return nil, fmt.Errorf("ssh backend selected but no target configured")
		}

		return Argv(backend.SSHArgs(f.SSHTarget, "bash", "-c", QuoteRemote(queryLine(p.Text)))), nil
	default:
		return nil, fmt.Errorf("unknown backend %v", kind)
	}
}

// shellLine anchors a command at dir inside one shell invocation, so each
// command sees the session's working directory without the process itself
// changing directory.
func shellLine(dir, cmd string) string {
	if dir == "" {
		return cmd
	}

	return fmt.Sprintf(`cd %s && %s`, QuotePath(dir), cmd)
}

// QuotePath wraps a path in double quotes for a bash line. Backslashes and
// embedded double quotes are escaped so the path cannot end the quoting
// early; expansion characters are left alone so targets like $HOME still
// resolve on the remote side.
func QuotePath(path string) string {
	path = strings.ReplaceAll(path, `\`, `\\`)
	path = strings.ReplaceAll(path, `"`, `\"`)

	return `"` + path + `"`
}

// queryLine builds the remote chat invocation with the question inside
// double quotes.
func queryLine(question string) string {
	return fmt.Sprintf(`q chat "%s"`, escapeDoubleQuoted(question))
}

// escapeDoubleQuoted makes s safe inside a double-quoted bash string.
func escapeDoubleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, `$`, `\$`)
	s = strings.ReplaceAll(s, "`", "\\`")

	return s
}

// QuoteRemote wraps a line for transport through ssh, which re-splits its
// remote command on whitespace before the remote shell sees it.
func QuoteRemote(line string) string {
	return `"` + escapeDoubleQuoted(line) + `"`
}
