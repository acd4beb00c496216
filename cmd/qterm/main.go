// Package main is the entry point for the qterm CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/buildinfo"
	"github.com/qterm-dev/qterm/internal/config"
	"github.com/qterm-dev/qterm/internal/envinfo"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/observability"
	"github.com/qterm-dev/qterm/internal/output"
	"github.com/qterm-dev/qterm/internal/session"
	"github.com/qterm-dev/qterm/internal/skin"
	"github.com/qterm-dev/qterm/internal/tui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	// Restore cursor visibility on panic to prevent hidden cursor if process crashes during spinner
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprint(os.Stderr, "\033[?25h") // Show cursor (ANSI escape sequence) - use stderr as it's unbuffered
			panic(r)
		}
	}()

	buildinfo.Version = version
	buildinfo.Commit = commit

	out := output.Default()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return handleError(out, err)
	}

	return 0
}

// handleError formats and displays a CLI error, returning the appropriate exit code.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		return cliErr.Code
	}

	errStr := err.Error()

	if strings.HasPrefix(errStr, "unknown command") {
		out.Failure("%s", errStr)

		if !strings.Contains(errStr, "--help") {
			out.Info("Run 'qterm --help' for usage")
		}

		return clierrors.ExitUsage
	}

	// Safety net — flag errors are normally wrapped as CLIError by
	// SetFlagErrorFunc, but standalone commands without a parent may still
	// reach here.
	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "required flag") {
		out.Failure("%s", errStr)
		out.Info("Run 'qterm --help' for usage")

		return clierrors.ExitUsage
	}

	out.Failure("%s", errStr)

	return clierrors.ExitGeneral
}

func newRootCmd() *cobra.Command {
	var (
		jsonOutput  bool
		quiet       bool
		noColor     bool
		noInput     bool
		logLevel    string
		logFormat   string
		logFile     string
		logStderr   string
		backendFlag string
		skinFlag    string
	)

	out := output.Default()

	rootCmd := &cobra.Command{
		Use:   "qterm",
		Short: "qterm - Retro terminal for shell commands and AI queries",
		Long: `qterm is a retro-styled terminal that routes shell commands and AI
queries to the best available backend: the local machine, a Windows
Subsystem for Linux installation, or a remote host over SSH.

Running qterm with no arguments opens the interactive terminal. Prefix a
line with ? to send it to the AI backend instead of the shell.

Get started:
  qterm                  Open the interactive terminal
  qterm run <command>    Run one shell command and exit
  qterm ask <question>   Ask the AI one question and exit
  qterm doctor           Diagnose backend availability`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out.JSON = pickBoolFlagOrEnv(jsonOutput, "QTERM_JSON")
			out.Quiet = pickBoolFlagOrEnv(quiet, "QTERM_QUIET")
			out.NoInput = pickBoolFlagOrEnv(noInput, "QTERM_NO_INPUT") || pickBoolFlagOrEnv(false, "CI")

			if noColor {
				out.SetNoColor(true)

				color.NoColor = true
			}

			logCfg := observability.Config{
				Level:          pickFlagOrEnv(logLevel, "QTERM_LOG_LEVEL", "info"),
				Format:         pickFlagOrEnv(logFormat, "QTERM_LOG_FORMAT", "json"),
				LogFile:        pickFlagOrEnv(logFile, "QTERM_LOG_FILE", ""),
				StderrMode:     pickFlagOrEnv(logStderr, "QTERM_LOG_STDERR", "auto"),
				InteractiveTTY: out.Terminal().IsTTY && isInteractiveCommand(cmd.CommandPath()),
				SessionID:      uuid.NewString(),
				CommandPath:    cmd.CommandPath(),
				Version:        version,
				Commit:         commit,
			}

			logger, cleanup, err := observability.NewLogger(&logCfg)
			if err != nil {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Invalid logging configuration: %v", err),
					Hint:    "Use --log-level (error|warn|info|debug), --log-format (json|text), --log-stderr (auto|on|off), and/or --log-file",
					Code:    clierrors.ExitUsage,
				}
			}

			slog.SetDefault(logger)

			ctx := out.WithContext(cmd.Context())
			ctx = observability.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cleanup != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, cleanup)
			}

			// OpenTelemetry tracing (opt-in via OTEL_ENABLED).
			telemetryCfg := &observability.TelemetryConfig{
				Enabled: observability.IsTelemetryEnabled(),
				Version: version,
				Commit:  commit,
			}

			telemetryShutdown, telemetryErr := observability.SetupTelemetry(ctx, telemetryCfg)
			if telemetryErr != nil {
				logger.Warn("telemetry initialization failed", slog.String("error", telemetryErr.Error()))
			}

			if telemetryShutdown != nil {
				cmd.PostRunE = wrapNamedPostRunCleanup(cmd.PostRunE, "telemetry resources", func() error {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					return telemetryShutdown(shutdownCtx)
				})
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminal(cmd, out, backendFlag, skinFlag)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Minimal output (for CI)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Optional structured log file path")
	rootCmd.PersistentFlags().StringVar(&logStderr, "log-stderr", "", "Structured logging to stderr: auto, on, off")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Backend preference: auto, local, wsl, ssh")
	rootCmd.Flags().StringVar(&skinFlag, "skin", "", "Skin name for the interactive terminal")

	rootCmd.SuggestionsMinimumDistance = 2

	// Wrap Cobra's raw flag errors in CLIError so they get styled output
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &clierrors.CLIError{
			Message: err.Error(),
			Hint:    fmt.Sprintf("Run '%s --help' for available flags", cmd.CommandPath()),
			Code:    clierrors.ExitUsage,
		}
	})

	// One-shot commands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newSnippetCmd())

	// Resource commands (noun-first)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSSHCmd())
	rootCmd.AddCommand(newSkinCmd())

	// Utility commands
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// runTerminal opens the interactive TUI on the root command.
func runTerminal(cmd *cobra.Command, out *output.Writer, backendFlag, skinFlag string) error {
	if !out.Terminal().IsTTY {
		return &clierrors.CLIError{
			Message: "The interactive terminal requires a TTY",
			Hint:    "Use 'qterm run <command>' or 'qterm ask <question>' in scripts",
			Code:    clierrors.ExitUsage,
		}
	}

	cfg := config.Load()

	sess, err := buildSession(cmd.Context(), cfg, backendFlag)
	if err != nil {
		return err
	}

	sk, err := skin.Load(pickFlagOrEnv(skinFlag, "QTERM_SKIN", cfg.Skin()))
	if err != nil {
		return clierrors.Wrap(clierrors.ExitConfig, "Cannot load skin", err)
	}

	if err := tui.Run(sess, sk); err != nil {
		return clierrors.Wrap(clierrors.ExitGeneral, "Terminal exited with an error", err)
	}

	return nil
}

// buildSession detects the environment and wires a session for the resolved
// backend preference.
func buildSession(ctx context.Context, cfg *config.Config, backendFlag string) (*session.Session, error) {
	pref, err := backend.ParsePreference(pickFlagOrEnv(backendFlag, "QTERM_BACKEND", cfg.Backend()))
	if err != nil {
		return nil, &clierrors.CLIError{
			Message: err.Error(),
			Hint:    "Allowed backends: auto, local, wsl, ssh",
			Code:    clierrors.ExitUsage,
		}
	}

	env := envinfo.NewDetector().Detect(ctx)
	sel := backend.NewSelector(env, cfg.SSH())

	timeouts := session.Timeouts{
		Shell: time.Duration(cfg.ShellTimeout()) * time.Second,
		Query: time.Duration(cfg.QueryTimeout()) * time.Second,
	}

	return session.New(env, sel, pref, timeouts, slog.Default()), nil
}

func wrapPostRunCleanup(postRun func(*cobra.Command, []string) error, cleanup func() error) func(*cobra.Command, []string) error {
	return wrapNamedPostRunCleanup(postRun, "logger resources", cleanup)
}

func wrapNamedPostRunCleanup(postRun func(*cobra.Command, []string) error, name string, cleanup func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if postRun != nil {
			if err := postRun(cmd, args); err != nil {
				_ = cleanup()
				return err
			}
		}

		if err := cleanup(); err != nil {
			return fmt.Errorf("cleanup %s: %w", name, err)
		}

		return nil
	}
}

func isInteractiveCommand(path string) bool {
	return path == "qterm"
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show version information",
		Long:    `Display the qterm binary version, git commit, and build date.`,
		Example: `  qterm version`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if out.JSON {
				return out.PrintJSON(VersionInfo{
					Version: version,
					Commit:  commit,
					Date:    date,
				})
			}

			out.Print("qterm %s\n", version)
			out.Print("  commit: %s\n", commit)
			out.Print("  built:  %s\n", date)

			return nil
		},
	}
}
