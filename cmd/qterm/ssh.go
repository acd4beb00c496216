package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/qterm-dev/qterm/internal/backend"
	"github.com/qterm-dev/qterm/internal/config"
	"github.com/qterm-dev/qterm/internal/envinfo"
	clierrors "github.com/qterm-dev/qterm/internal/errors"
	"github.com/qterm-dev/qterm/internal/output"
)

// keyringService namespaces qterm's secrets in the OS keychain.
const keyringService = "qterm-ssh"

func newSSHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Manage the SSH backend target",
		Long: `Configure, inspect, and test the remote host used by the ssh backend.
The key passphrase, if stored, goes into the OS keychain rather than the
config file.`,
	}

	cmd.AddCommand(newSSHSetCmd())
	cmd.AddCommand(newSSHShowCmd())
	cmd.AddCommand(newSSHTestCmd())

	return cmd
}

func newSSHSetCmd() *cobra.Command {
	var (
		host            string
		user            string
		port            int
		keyFile         string
		storePassphrase bool
		clearPassphrase bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Configure the SSH target",
		Example: `  qterm ssh set --host bastion.example.net --user ops
  qterm ssh set --host bastion.example.net --user ops --port 2222 --key-file ~/.ssh/id_ed25519 --store-passphrase`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			target := config.SSHTarget{Host: host, User: user, Port: port, KeyFile: keyFile}
			if !target.Configured() {
				return clierrors.New(clierrors.ExitUsage, "Both --host and --user are required")
			}

			cfg := config.Load()
			if err := cfg.SetSSH(target); err != nil {
				return clierrors.Wrap(clierrors.ExitConfig, "Cannot persist SSH target", err)
			}

			if clearPassphrase {
				if err := keyring.Delete(keyringService, target.Addr()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
					return clierrors.Wrap(clierrors.ExitConfig, "Cannot remove passphrase from keychain", err)
				}
			}

			if storePassphrase {
				if err := promptAndStorePassphrase(out, target.Addr()); err != nil {
					return err
				}
			}

			out.Success("SSH target set to %s", target.Addr())

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Remote host name or address")
	cmd.Flags().StringVar(&user, "user", "", "Remote user")
	cmd.Flags().IntVar(&port, "port", config.DefaultSSHPort, "Remote SSH port")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "Private key file for the connection")
	cmd.Flags().BoolVar(&storePassphrase, "store-passphrase", false, "Prompt for the key passphrase and store it in the OS keychain")
	cmd.Flags().BoolVar(&clearPassphrase, "clear-passphrase", false, "Remove a stored passphrase from the OS keychain")

	return cmd
}

func promptAndStorePassphrase(out *output.Writer, addr string) error {
	if out.NoInput || !out.Terminal().IsTTY {
		return clierrors.New(clierrors.ExitUsage, "--store-passphrase needs an interactive terminal").
			WithHint("Rerun without --no-input from a TTY")
	}

	out.Print("Passphrase for %s (not echoed): ", addr)

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	out.Print("\n")

	if err != nil {
		return clierrors.Wrap(clierrors.ExitGeneral, "Cannot read passphrase", err)
	}

	if err := keyring.Set(keyringService, addr, string(secret)); err != nil {
		return clierrors.Wrap(clierrors.ExitConfig, "Cannot store passphrase in keychain", err)
	}

	return nil
}

// SSHInfo is the JSON shape for ssh show.
type SSHInfo struct {
	Host          string `json:"host"`
	User          string `json:"user"`
	Port          int    `json:"port"`
	KeyFile       string `json:"key_file,omitempty"`
	HasPassphrase bool   `json:"has_passphrase"`
}

func newSSHShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Show the configured SSH target",
		Example: `  qterm ssh show`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			target := config.Load().SSH()
			if !target.Configured() {
				return clierrors.SSHNotConfigured()
			}

			_, keyErr := keyring.Get(keyringService, target.Addr())
			hasPassphrase := keyErr == nil

			if out.JSON {
				return out.PrintJSON(SSHInfo{
					Host:          target.Host,
					User:          target.User,
					Port:          target.Port,
					KeyFile:       target.KeyFile,
					HasPassphrase: hasPassphrase,
				})
			}

			out.Print("host:     %s\n", target.Host)
			out.Print("user:     %s\n", target.User)
			out.Print("port:     %d\n", target.Port)

			if target.KeyFile != "" {
				out.Print("key file: %s\n", target.KeyFile)
			}

			if hasPassphrase {
				out.Muted("passphrase stored in OS keychain")
			}

			return nil
		},
	}
}

func newSSHTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "test",
		Short:   "Probe the SSH target",
		Example: `  qterm ssh test`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			target := config.Load().SSH()
			if !target.Configured() {
				return clierrors.SSHNotConfigured()
			}

			sp := out.Spinner(fmt.Sprintf("Connecting to %s", target.Addr()))
			sp.Start()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			sel := backend.NewSelector(envinfo.Info{}, target)

			start := time.Now()
			alive := sel.SSHAlive(ctx)
			elapsed := time.Since(start).Round(time.Millisecond)

			if !alive {
				sp.StopWithFailure(fmt.Sprintf("%s is not reachable", target.Addr()))

				return clierrors.New(clierrors.ExitNotAvailable, "SSH probe failed").
					WithHint("Check the host, port, and key file; the probe uses BatchMode so the key must not need a prompt")
			}

			sp.StopWithSuccess(fmt.Sprintf("%s answered in %s", target.Addr(), elapsed))

			return nil
		},
	}
}
