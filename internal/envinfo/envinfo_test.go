package envinfo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"
)

// fakeFileInfo satisfies os.FileInfo for install-dir probes.
type fakeFileInfo struct {
	mode os.FileMode
}

func (f fakeFileInfo) Name() string       { return "q" }
func (f fakeFileInfo) Size() int64        { return 1 }
func (f fakeFileInfo) Mode() os.FileMode  { return f.mode }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeFileInfo) Sys() any           { return nil }

// newTestDetector returns a detector where every probe fails, so individual
// tests only override what they exercise.
func newTestDetector(goos string) *Detector {
	return &Detector{
		GOOS:     goos,
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		RunCommand: func(context.Context, string, ...string) (string, error) {
			return "", fmt.Errorf("probe failed")
		},
		ReadFile: func(string) ([]byte, error) { return nil, os.ErrNotExist },
		Stat:     func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		Getenv:   func(string) string { return "" },
		Getwd:    func() (string, error) { return "/work", nil },
		HomeDir:  func() (string, error) { return "/home/tester", nil },
	}
}

func TestDetect_PlatformFamily(t *testing.T) {
	tests := []struct {
		goos string
		want Platform
	}{
		{goos: "linux", want: PlatformLinux},
		{goos: "windows", want: PlatformWindows},
		{goos: "darwin", want: PlatformMacOS},
		{goos: "plan9", want: PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			d := newTestDetector(tt.goos)

			if got := d.Detect(context.Background()).Platform; got != tt.want {
				t.Errorf("Platform = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetect_WSLGuest(t *testing.T) {
	tests := []struct {
		name        string
		procVersion string
		readErr     error
		wantWSL     bool
	}{
		{
			name:        "microsoft kernel marker",
			procVersion: "Linux version 5.15.90.1-microsoft-standard-WSL2",
			wantWSL:     true,
		},
		{
			name:        "plain linux",
			procVersion: "Linux version 6.1.0-18-amd64 (debian-kernel@lists.debian.org)",
			wantWSL:     false,
		},
		{
			name:    "unreadable proc degrades to false",
			readErr: os.ErrPermission,
			wantWSL: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector("linux")
			d.ReadFile = func(name string) ([]byte, error) {
				if tt.readErr != nil {
					return nil, tt.readErr
				}
				return []byte(tt.procVersion), nil
			}

			info := d.Detect(context.Background())

			if info.IsWSL != tt.wantWSL {
				t.Errorf("IsWSL = %v, want %v", info.IsWSL, tt.wantWSL)
			}
		})
	}
}

func TestDetect_WSLDistroFromEnv(t *testing.T) {
	d := newTestDetector("linux")
	d.ReadFile = func(name string) ([]byte, error) {
		return []byte("Linux version microsoft-standard"), nil
	}
	d.Getenv = func(key string) string {
		if key == "WSL_DISTRO_NAME" {
			return "Ubuntu-24.04"
		}
		return ""
	}

	info := d.Detect(context.Background())

	if info.WSLDistro != "Ubuntu-24.04" {
		t.Errorf("WSLDistro = %q, want %q", info.WSLDistro, "Ubuntu-24.04")
	}
}

func TestDetect_WSLHostRequiresEchoRoundtrip(t *testing.T) {
	tests := []struct {
		name      string
		statusErr error
		echoOut   string
		echoErr   error
		want      bool
	}{
		{
			name:    "status and echo succeed",
			echoOut: "qterm-probe\n",
			want:    true,
		},
		{
			name:      "wsl not installed",
			statusErr: exec.ErrNotFound,
			want:      false,
		},
		{
			name:    "status ok but echo garbled",
			echoOut: "",
			want:    false,
		},
		{
			name:    "echo fails",
			echoErr: fmt.Errorf("exit status 1"),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector("windows")
			d.RunCommand = func(_ context.Context, name string, args ...string) (string, error) {
				if len(args) > 0 && args[0] == "--status" {
					return "", tt.statusErr
				}
				return tt.echoOut, tt.echoErr
			}

			info := d.Detect(context.Background())

			if info.WSLAvailable != tt.want {
				t.Errorf("WSLAvailable = %v, want %v", info.WSLAvailable, tt.want)
			}
		})
	}
}

func TestDetect_CLIFromPath(t *testing.T) {
	d := newTestDetector("linux")
	d.LookPath = func(file string) (string, error) {
		if file == "qchat" {
			return "/usr/local/bin/qchat", nil
		}
		return "", exec.ErrNotFound
	}

	info := d.Detect(context.Background())

	if info.CLIPath != "/usr/local/bin/qchat" {
		t.Errorf("CLIPath = %q, want %q", info.CLIPath, "/usr/local/bin/qchat")
	}

	if !info.CLIAvailable() {
		t.Error("CLIAvailable() = false, want true")
	}
}

func TestDetect_CLIFromInstallDir(t *testing.T) {
	tests := []struct {
		name string
		mode os.FileMode
		want string
	}{
		{
			name: "executable file found",
			mode: 0o755,
			want: "/usr/local/bin/q",
		},
		{
			name: "non-executable file skipped",
			mode: 0o644,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector("linux")
			d.Stat = func(name string) (os.FileInfo, error) {
				if name == "/usr/local/bin/q" {
					return fakeFileInfo{mode: tt.mode}, nil
				}
				return nil, os.ErrNotExist
			}

			info := d.Detect(context.Background())

			if info.CLIPath != tt.want {
				t.Errorf("CLIPath = %q, want %q", info.CLIPath, tt.want)
			}
		})
	}
}

func TestDetect_DefaultShell(t *testing.T) {
	tests := []struct {
		name  string
		goos  string
		shell string
		want  string
	}{
		{name: "windows is powershell", goos: "windows", want: "powershell"},
		{name: "unix takes SHELL basename", goos: "linux", shell: "/usr/bin/zsh", want: "zsh"},
		{name: "unix without SHELL defaults to bash", goos: "darwin", want: "bash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.goos)
			d.Getenv = func(key string) string {
				if key == "SHELL" {
					return tt.shell
				}
				return ""
			}

			info := d.Detect(context.Background())

			if info.Shell != tt.want {
				t.Errorf("Shell = %q, want %q", info.Shell, tt.want)
			}
		})
	}
}

func TestDetect_NeverPanicsAndRecordsIssues(t *testing.T) {
	d := newTestDetector("linux")
	d.Getwd = func() (string, error) { return "", fmt.Errorf("getwd: permission denied") }
	d.ReadFile = func(string) ([]byte, error) { return nil, os.ErrPermission }

	info := d.Detect(context.Background())

	if info.CLIAvailable() {
		t.Error("CLIAvailable() = true with all probes failing, want false")
	}

	if len(info.Issues) == 0 {
		t.Error("Issues is empty, want degraded probes recorded")
	}
}
