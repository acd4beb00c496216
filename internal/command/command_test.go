package command

import (
	"strings"
	"testing"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/config"
)

var testSSH = config.SSHTarget{Host: "box.example.net", User: "ops", Port: 22}

func TestFormat_ShellLocal(t *testing.T) {
	f := Formatter{}

	argv, err := f.Format(Pending{Kind: Shell, Text: "ls -la", Dir: "/srv/data"}, backend.Local)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := Argv{"bash", "-l", "-c", `cd "/srv/data" && ls -la`}
	assertArgv(t, argv, want)
}

func TestFormat_ShellWithoutDir(t *testing.T) {
	f := Formatter{}

	argv, err := f.Format(Pending{Kind: Shell, Text: "uptime"}, backend.Local)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	assertArgv(t, argv, Argv{"bash", "-l", "-c", "uptime"})
}

func TestFormat_ShellWSL(t *testing.T) {
	f := Formatter{}

	argv, err := f.Format(Pending{Kind: Shell, Text: "uname -r", Dir: "/home/u"}, backend.WSL)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	assertArgv(t, argv, Argv{"wsl", "--", "bash", "-l", "-c", `cd "/home/u" && uname -r`})
}

func TestFormat_ShellSSH(t *testing.T) {
	f := Formatter{SSHTarget: testSSH}

	argv, err := f.Format(Pending{Kind: Shell, Text: "df -h", Dir: "/var"}, backend.SSH)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if argv[0] != "ssh" {
		t.Errorf("argv[0] = %q, want ssh", argv[0])
	}

	last := argv[len(argv)-1]
	if !strings.Contains(last, "df -h") {
		t.Errorf("remote line %q does not contain the command", last)
	}

	// The remote line must survive ssh's re-splitting as one bash argument.
	if !strings.HasPrefix(last, `"`) || !strings.HasSuffix(last, `"`) {
		t.Errorf("remote line %q is not quoted for transport", last)
	}
}

func TestFormat_ShellSSHUnconfigured(t *testing.T) {
	f := Formatter{}

	if _, err := f.Format(Pending{Kind: Shell, Text: "ls"}, backend.SSH); err == nil {
		t.Error("Format() error = nil for unconfigured ssh target, want error")
	}
}

func TestFormat_QueryLocal(t *testing.T) {
	f := Formatter{CLIPath: "/usr/local/bin/q"}

	argv, err := f.Format(Pending{Kind: Query, Text: "what is a symlink"}, backend.Local)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	assertArgv(t, argv, Argv{"/usr/local/bin/q", "chat", "what is a symlink"})
}

func TestFormat_QueryLocalWithoutCLI(t *testing.T) {
	f := Formatter{}

	if _, err := f.Format(Pending{Kind: Query, Text: "hello"}, backend.Local); err == nil {
		t.Error("Format() error = nil without a CLI, want error")
	}
}

func TestFormat_QuerySSHEscapesSpecials(t *testing.T) {
	f := Formatter{SSHTarget: testSSH}

	argv, err := f.Format(Pending{Kind: Query, Text: `what does "$HOME" mean`}, backend.SSH)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	last := argv[len(argv)-1]
	if strings.Contains(last, `"$HOME"`) {
		t.Errorf("remote line %q leaves $HOME expandable", last)
	}

	if !strings.Contains(last, `\$HOME`) {
		t.Errorf("remote line %q does not escape the dollar sign", last)
	}
}

func TestFormat_EmptyInputIsNoop(t *testing.T) {
	f := Formatter{}

	for _, kind := range []Kind{Shell, Query} {
		argv, err := f.Format(Pending{Kind: kind, Text: "   "}, backend.Local)
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}

		if argv != nil {
			t.Errorf("Format(blank) = %v, want nil", argv)
		}
	}
}

func TestFormat_WindowsHost(t *testing.T) {
	tests := []struct {
		name  string
		shell string
		want  Argv
	}{
		{
			name:  "powershell default",
			shell: "powershell",
			want:  Argv{"powershell", "-Command", `cd "C:\Users\dev"; dir`},
		},
		{
			name:  "cmd shell",
			shell: "cmd",
			want:  Argv{"cmd", "/c", `cd /d "C:\Users\dev" && dir`},
		},
		{
			name: "empty shell falls back to powershell",
			want: Argv{"powershell", "-Command", `cd "C:\Users\dev"; dir`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Formatter{WindowsHost: true, WindowsShell: tt.shell}

			argv, err := f.Format(Pending{Kind: Shell, Text: "dir", Dir: `C:\Users\dev`}, backend.Local)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			assertArgv(t, argv, tt.want)
		})
	}
}

func TestQuotePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/srv/data", want: `"/srv/data"`},
		{path: `/tmp/a"b`, want: `"/tmp/a\"b"`},
		{path: `/tmp/back\slash`, want: `"/tmp/back\\slash"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := QuotePath(tt.path); got != tt.want {
				t.Errorf("QuotePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestFormat_ShellDirWithEmbeddedQuote(t *testing.T) {
	f := Formatter{}

	argv, err := f.Format(Pending{Kind: Shell, Text: "pwd", Dir: `/tmp/a"b`}, backend.Local)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// The quote in the path must not end the cd's quoting early.
	assertArgv(t, argv, Argv{"bash", "-l", "-c", `cd "/tmp/a\"b" && pwd`})
}

func TestFormat_WindowsDirWithEmbeddedQuote(t *testing.T) {
	tests := []struct {
		name  string
		shell string
		want  Argv
	}{
		{
			name:  "powershell backtick-escapes",
			shell: "powershell",
			want:  Argv{"powershell", "-Command", "cd \"C:\\a`\"b\"; dir"},
		},
		{
			name:  "cmd doubles the quote",
			shell: "cmd",
			want:  Argv{"cmd", "/c", `cd /d "C:\a""b" && dir`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Formatter{WindowsHost: true, WindowsShell: tt.shell}

			argv, err := f.Format(Pending{Kind: Shell, Text: "dir", Dir: `C:\a"b`}, backend.Local)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			assertArgv(t, argv, tt.want)
		})
	}
}

func TestIsInteractive(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{line: "ping 10.0.0.1", want: true},
		{line: "traceroute example.net", want: true},
		{line: "tail -f /var/log/syslog", want: true},
		{line: "tail /var/log/syslog", want: false},
		{line: "top", want: true},
		{line: "htop", want: true},
		{line: "watch date", want: true},
		{line: "nmap -sV host", want: true},
		{line: "ls -la", want: false},
		{line: "pingpong", want: false},
		{line: "", want: false},
		{line: "ssh host", want: true},
		{line: "ssh ops@host", want: true},
		{line: "ssh -p 2222 host", want: true},
		{line: "ssh -i /k -o BatchMode=yes host", want: true},
		{line: "ssh host uptime", want: false},
		{line: "ssh -p 2222 host ls /tmp", want: false},
		{line: "ssh -v host", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := IsInteractive(tt.line); got != tt.want {
				t.Errorf("IsInteractive(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func assertArgv(t *testing.T, got, want Argv) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
