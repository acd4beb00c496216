// Package sanitize normalizes raw subprocess output for display: escape
// sequences are stripped, carriage-return and backspace tricks are resolved,
// and known-benign stderr chatter is filtered from real errors.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Clean strips escape sequences and resolves terminal control characters so
// the result renders correctly in a plain text view. Clean is idempotent.
func Clean(s string) string {
	s = ansi.Strip(s)
	s = resolveCarriageReturns(s)
	s = resolveBackspaces(s)

	return trimLineTrailing(s)
}

// resolveCarriageReturns removes bare \r characters, which progress bars use
// for in-place updates. \r\n line endings are preserved.
func resolveCarriageReturns(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\r' && (i+1 >= len(s) || s[i+1] != '\n') {
			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

// resolveBackspaces applies each \b by deleting the preceding character, the
// way a terminal would render it.
func resolveBackspaces(s string) string {
	if !strings.ContainsRune(s, '\b') {
		return s
	}

	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\b' {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}

			continue
		}

		out = append(out, r)
	}

	return string(out)
}

// trimLineTrailing drops trailing spaces and tabs from each line.
func trimLineTrailing(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.Join(lines, "\n")
}

// benignStderr matches stderr lines produced by login-shell startup noise:
// ssh-agent bootstrapping, host-key warnings, git transfer progress. A line
// matching any of these never turns a successful command into an error.
var benignStderr = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\* keychain \d+\.\d+\.\d+`),
	regexp.MustCompile(`(?i)\* Found existing ssh-agent:`),
	regexp.MustCompile(`(?i)\* Known ssh key:`),
	regexp.MustCompile(`(?i)\* Adding ssh key:`),
	regexp.MustCompile(`(?i)\* ssh-agent: Started agent`),
	regexp.MustCompile(`(?i)http://www\.funtoo\.org`),
	regexp.MustCompile(`(?i)Warning: No SSH keys loaded`),
	regexp.MustCompile(`(?i)Could not open a connection to your authentication agent`),
	regexp.MustCompile(`(?i)Identity added:`),
	regexp.MustCompile(`(?i)ssh-add: .*: No such file or directory`),
	regexp.MustCompile(`(?i)SSH_AUTH_SOCK=.*; export SSH_AUTH_SOCK;`),
	regexp.MustCompile(`(?i)SSH_AGENT_PID=.*; export SSH_AGENT_PID;`),
	regexp.MustCompile(`(?i)echo Agent pid \d+;`),
	regexp.MustCompile(`(?i)Warning: Permanently added .* to the list of known hosts`),
	regexp.MustCompile(`(?i)The authenticity of host .* can't be established`),
	regexp.MustCompile(`(?i)Cloning into`),
	regexp.MustCompile(`(?i)remote: Counting objects`),
	regexp.MustCompile(`(?i)Receiving objects:`),
}

// Verdict classifies a finished command's stderr against its exit status.
type Verdict struct {
	// Suppress reports that stderr contained only benign chatter and should
	// not be shown at all.
	Suppress bool

	// IsError reports that the command should be presented as failed.
	IsError bool

	// Stderr is the cleaned stderr with benign lines removed.
	Stderr string
}

// ClassifyStderr decides how to present stderr. A non-zero exit is always an
// error. On success, stderr made entirely of benign lines is suppressed;
// anything else is shown as an error even with exit 0, since login shells on
// remote backends can swallow the real exit code.
func ClassifyStderr(stderr string, exitCode int) Verdict {
	cleaned := Clean(stderr)

	var kept []string

	for _, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !lineIsBenign(line) {
			kept = append(kept, line)
		}
	}

	remaining := strings.Join(kept, "\n")

	if exitCode != 0 {
		return Verdict{IsError: true, Stderr: remaining}
	}

	if len(kept) == 0 {
		return Verdict{Suppress: true}
	}

	return Verdict{IsError: true, Stderr: remaining}
}

func lineIsBenign(line string) bool {
	for _, re := range benignStderr {
		if re.MatchString(line) {
			return true
		}
	}

	return false
}
