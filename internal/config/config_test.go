package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Load()

	if got := cfg.Backend(); got != "auto" {
		t.Errorf("Backend() = %q, want %q", got, "auto")
	}

	if got := cfg.ShellTimeout(); got != DefaultShellTimeout {
		t.Errorf("ShellTimeout() = %d, want %d", got, DefaultShellTimeout)
	}

	if got := cfg.QueryTimeout(); got != DefaultQueryTimeout {
		t.Errorf("QueryTimeout() = %d, want %d", got, DefaultQueryTimeout)
	}

	if got := cfg.Skin(); got != DefaultSkin {
		t.Errorf("Skin() = %q, want %q", got, DefaultSkin)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("QTERM_BACKEND", "wsl")

	cfg := Load()

	if got := cfg.Backend(); got != "wsl" {
		t.Errorf("Backend() = %q, want %q", got, "wsl")
	}
}

func TestSet_PersistsToFile(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	cfg := Load()
	if err := cfg.Set("backend", "ssh"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	configFile := filepath.Join(cfgRoot, "qterm", "config.yaml")
	if _, err := os.Stat(configFile); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// A fresh load should see the persisted value.
	if got := Load().Backend(); got != "ssh" {
		t.Errorf("Backend() after reload = %q, want %q", got, "ssh")
	}
}

func TestSSHTarget(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Load()

	target := cfg.SSH()
	if target.Configured() {
		t.Error("SSH().Configured() = true for empty config, want false")
	}

	if target.Port != DefaultSSHPort {
		t.Errorf("Port = %d, want %d", target.Port, DefaultSSHPort)
	}

	want := SSHTarget{Host: "bastion.example.net", User: "ops", Port: 2222, KeyFile: "/home/ops/.ssh/id_ed25519"}
	if err := cfg.SetSSH(want); err != nil {
		t.Fatalf("SetSSH() error = %v", err)
	}

	got := Load().SSH()
	if got != want {
		t.Errorf("SSH() after reload = %+v, want %+v", got, want)
	}

	if got.Addr() != "ops@bastion.example.net" {
		t.Errorf("Addr() = %q, want %q", got.Addr(), "ops@bastion.example.net")
	}

	if !got.Configured() {
		t.Error("Configured() = false, want true")
	}
}
