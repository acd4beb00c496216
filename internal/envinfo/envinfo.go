// Package envinfo inspects the host environment: platform family, WSL
// presence, AI CLI discovery, and the default shell.
//
// Detection never fails. Every probe returns a typed outcome; a probe that
// errors or times out degrades to "not found" and is recorded as an Issue on
// the snapshot, so callers can surface why a capability is missing without
// detection itself raising.
package envinfo

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Platform identifies the host OS family.
type Platform string

// Platform values.
const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformUnknown Platform = "unknown"
)

// probeTimeout bounds each individual detection subprocess.
const probeTimeout = 5 * time.Second

// cliCandidates are the executable names probed for the AI CLI, in order.
var cliCandidates = []string{"q", "qchat"}

// Issue records a probe that degraded to a conservative default.
type Issue struct {
	Probe string
	Err   error
}

// Info is an immutable snapshot of the host environment, created once at
// startup and re-detected wholesale when the user changes backend preference.
type Info struct {
	Platform Platform

	// IsWSL reports that this process itself runs inside a Linux-compatible
	// subsystem hosted on Windows.
	IsWSL bool

	// WSLDistro is the subsystem distribution name, when known.
	WSLDistro string

	// WSLAvailable reports that a working subsystem installation is reachable
	// from a Windows host (status probe plus echo roundtrip).
	WSLAvailable bool

	// CLIPath is the located AI CLI executable, empty when not found.
	CLIPath string

	// Shell is the default shell name for the platform.
	Shell string

	// WorkingDir is the process working directory at detection time.
	WorkingDir string

	// Issues lists probes that failed and fell back to defaults.
	Issues []Issue
}

// CLIAvailable reports whether an AI CLI binary was located.
func (i Info) CLIAvailable() bool {
	return i.CLIPath != ""
}

// Detector runs environment probes. The function fields default to the real
// OS implementations and are injectable for tests.
type Detector struct {
	GOOS       string
	LookPath   func(file string) (string, error)
	RunCommand func(ctx context.Context, name string, args ...string) (string, error)
	ReadFile   func(name string) ([]byte, error)
	Stat       func(name string) (os.FileInfo, error)
	Getenv     func(key string) string
	Getwd      func() (string, error)
	HomeDir    func() (string, error)
}

// NewDetector returns a Detector backed by the real OS.
func NewDetector() *Detector {
	return &Detector{
		GOOS:     runtime.GOOS,
		LookPath: exec.LookPath,
		RunCommand: func(ctx context.Context, name string, args ...string) (string, error) {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()

			out, err := exec.CommandContext(probeCtx, name, args...).Output()

			return string(out), err
		},
		ReadFile: os.ReadFile,
		Stat:     os.Stat,
		Getenv:   os.Getenv,
		Getwd:    os.Getwd,
		HomeDir:  os.UserHomeDir,
	}
}

// Detect builds the environment snapshot.
func (d *Detector) Detect(ctx context.Context) Info {
	info := Info{Platform: platformFamily(d.GOOS)}

	if wd, err := d.Getwd(); err == nil {
		info.WorkingDir = wd
	} else {
		info.Issues = append(info.Issues, Issue{Probe: "working-directory", Err: err})
	}

	switch info.Platform {
	case PlatformLinux:
		isWSL, err := d.detectWSLGuest()
		if err != nil {
			info.Issues = append(info.Issues, Issue{Probe: "wsl-guest", Err: err})
		}

		info.IsWSL = isWSL
		if isWSL {
			info.WSLDistro = d.wslDistro()
		}
	case PlatformWindows:
		available, err := d.detectWSLHost(ctx)
		if err != nil {
			info.Issues = append(info.Issues, Issue{Probe: "wsl-host", Err: err})
		}

		info.WSLAvailable = available
	}

	path, err := d.findCLI()
	if err != nil {
		info.Issues = append(info.Issues, Issue{Probe: "ai-cli", Err: err})
	}

	info.CLIPath = path
	info.Shell = d.defaultShell(info)

	return info
}

func platformFamily(goos string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformUnknown
	}
}

// detectWSLGuest checks /proc/version for subsystem kernel markers.
func (d *Detector) detectWSLGuest() (bool, error) {
	data, err := d.ReadFile("/proc/version")
	if err != nil {
		return false, err
	}

	version := strings.ToLower(string(data))

	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl"), nil
}

// detectWSLHost confirms a functional subsystem from a Windows host: the
// status probe proves presence, the echo roundtrip proves it can actually
// run commands.
func (d *Detector) detectWSLHost(ctx context.Context) (bool, error) {
	if _, err := d.RunCommand(ctx, "wsl", "--status"); err != nil {
		return false, nil // not installed is a normal outcome, not an issue
	}

	out, err := d.RunCommand(ctx, "wsl", "--", "echo", "qterm-probe")
	if err != nil {
		return false, err
	}

	return strings.Contains(out, "qterm-probe"), nil
}

func (d *Detector) wslDistro() string {
	if distro := d.Getenv("WSL_DISTRO_NAME"); distro != "" {
		return distro
	}

	data, err := d.ReadFile("/etc/os-release")
	if err != nil {
		return "WSL"
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "NAME="), "\"")
		}
	}

	return "WSL"
}

// findCLI locates the AI CLI: PATH lookup for each candidate name first,
// then a short list of known install directories.
func (d *Detector) findCLI() (string, error) {
	var firstErr error

	for _, name := range d.cliNames() {
		path, err := d.LookPath(name)
		if err == nil && path != "" {
			return path, nil
		}

		if firstErr == nil && err != nil && !isNotFound(err) {
			firstErr = err
		}
	}

	for _, path := range d.installDirs() {
		fi, err := d.Stat(path)
		if err != nil || fi.IsDir() {
			continue
		}

		if d.GOOS == "windows" || fi.Mode().Perm()&0o111 != 0 {
			return path, nil
		}
	}

	return "", firstErr
}

func (d *Detector) cliNames() []string {
	if d.GOOS != "windows" {
		return cliCandidates
	}

	names := make([]string, 0, len(cliCandidates)*2)
	for _, name := range cliCandidates {
		names = append(names, name, name+".exe")
	}

	return names
}

func (d *Detector) installDirs() []string {
	home, err := d.HomeDir()
	if err != nil {
		home = ""
	}

	if d.GOOS == "windows" {
		return []string{
			filepath.Join(home, "AppData", "Local", "Programs", "Amazon Q", "q.exe"),
			`C:\Program Files\Amazon Q\q.exe`,
			`C:\Program Files (x86)\Amazon Q\q.exe`,
		}
	}

	return []string{
		"/usr/local/bin/q",
		"/usr/bin/q",
		filepath.Join(home, "bin", "q"),
		filepath.Join(home, ".local", "bin", "q"),
	}
}

func (d *Detector) defaultShell(info Info) string {
	if info.Platform == PlatformWindows {
		return "powershell"
	}

	shell := d.Getenv("SHELL")
	if shell == "" {
		return "bash"
	}

	return filepath.Base(shell)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err)
}
