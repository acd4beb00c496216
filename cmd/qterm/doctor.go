package main

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/config"
	"github.com/qterm-dev/qterm/internal/envinfo"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
	"github.com/qterm-dev/qterm/internal/paths"
)

// minCLIVersion is the oldest AI CLI release whose chat subcommand speaks
// the invocation shape qterm uses.
var minCLIVersion = semver.MustParse("1.0.0")

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

type checkStatus int

const (
	checkPass checkStatus = iota
	checkWarn
	checkFail
)

type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`

	status checkStatus
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose backend availability and configuration",
		Long: `Doctor inspects the environment the way the terminal does at startup:
platform, AI CLI presence and version, WSL availability, and SSH
reachability. Use it when a backend behaves unexpectedly.`,
		Example: `  qterm doctor`,
		Args:    noArgs,
		RunE:    runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := output.FromContext(cmd.Context())
	cfg := config.Load()

	sp := out.Spinner("Probing environment")
	sp.Start()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	env := envinfo.NewDetector().Detect(ctx)
	sel := backend.NewSelector(env, cfg.SSH())

	results := []checkResult{
		platformCheck(env),
		cliCheck(ctx, env),
		wslCheck(env),
		sshCheck(ctx, sel, cfg.SSH()),
		configCheck(),
	}

	sp.Stop()

	if out.JSON {
		for i := range results {
			results[i].Status = statusWord(results[i].status)
		}

		if err := out.PrintJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch r.status {
			case checkPass:
				out.Success("%s: %s", r.Name, r.Message)
			case checkWarn:
				out.Warning("%s: %s", r.Name, r.Message)
			case checkFail:
				out.Failure("%s: %s", r.Name, r.Message)
			}
		}
	}

	for _, r := range results {
		if r.status == checkFail {
			return clierrors.New(clierrors.ExitGeneral, "Some checks failed").
				WithHint("Fix the failed checks above and run 'qterm doctor' again")
		}
	}

	return nil
}

func statusWord(s checkStatus) string {
	switch s {
	case checkWarn:
		return "warn"
	case checkFail:
		return "fail"
	default:
		return "pass"
	}
}

func platformCheck(env envinfo.Info) checkResult {
	msg := string(env.Platform)
	if env.IsWSL {
		msg = fmt.Sprintf("%s (inside WSL: %s)", env.Platform, env.WSLDistro)
	}

	return checkResult{Name: "Platform", Message: msg, status: checkPass}
}

func cliCheck(ctx context.Context, env envinfo.Info) checkResult {
	if !env.CLIAvailable() {
		return checkResult{
			Name:    "AI CLI",
			Message: "not found; AI queries will use WSL or SSH if available",
			status:  checkWarn,
		}
	}

	ver, err := cliVersion(ctx, env.CLIPath)
	if err != nil {
		return checkResult{
			Name:    "AI CLI",
			Message: fmt.Sprintf("%s (version unknown: %v)", env.CLIPath, err),
			status:  checkWarn,
		}
	}

	if ver.LessThan(minCLIVersion) {
		return checkResult{
			Name:    "AI CLI",
			Message: fmt.Sprintf("%s is v%s, older than the supported v%s", env.CLIPath, ver, minCLIVersion),
			status:  checkWarn,
		}
	}

	return checkResult{
		Name:    "AI CLI",
		Message: fmt.Sprintf("%s (v%s)", env.CLIPath, ver),
		status:  checkPass,
	}
}

// cliVersion parses the first semver-looking token from `<cli> --version`.
func cliVersion(ctx context.Context, cliPath string) (*semver.Version, error) {
	verCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(verCtx, cliPath, "--version").Output()
	if err != nil {
		return nil, err
	}

	raw := versionPattern.FindString(string(out))
	if raw == "" {
		return nil, fmt.Errorf("no version in %q", strings.TrimSpace(string(out)))
	}

	return semver.NewVersion(raw)
}

func wslCheck(env envinfo.Info) checkResult {
	switch {
	case env.Platform != envinfo.PlatformWindows:
		return checkResult{Name: "WSL", Message: "not applicable on this platform", status: checkPass}
	case env.WSLAvailable:
		return checkResult{Name: "WSL", Message: "installed and responding", status: checkPass}
	default:
		return checkResult{Name: "WSL", Message: "not available", status: checkWarn}
	}
}

func sshCheck(ctx context.Context, sel *backend.Selector, target config.SSHTarget) checkResult {
	if !target.Configured() {
		return checkResult{
			Name:    "SSH",
			Message: "not configured (optional); set with 'qterm ssh set'",
			status:  checkPass,
		}
	}

	if sel.SSHAlive(ctx) {
		return checkResult{Name: "SSH", Message: target.Addr() + " reachable", status: checkPass}
	}

	return checkResult{Name: "SSH", Message: target.Addr() + " not reachable", status: checkFail}
}

func configCheck() checkResult {
	root, err := paths.ConfigRoot()
	if err != nil {
		return checkResult{Name: "Config", Message: err.Error(), status: checkFail}
	}

	return checkResult{Name: "Config", Message: root, status: checkPass}
}
