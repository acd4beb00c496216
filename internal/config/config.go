// Package config handles qterm configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (QTERM_*)
//  2. Config file (~/.config/qterm/config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/qterm-dev/qterm/internal/paths"
)

const (
	// DefaultBackend is the default backend preference.
	DefaultBackend = "auto"
	// DefaultShellTimeout is the shell command timeout in seconds.
	DefaultShellTimeout = 30
	// DefaultQueryTimeout is the AI query timeout in seconds.
	DefaultQueryTimeout = 60
	// DefaultSSHPort is the default SSH port.
	DefaultSSHPort = 22
	// DefaultSkin is the default TUI skin name.
	DefaultSkin = "qis-green"
)

// Config holds the qterm configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("timeouts.shell", DefaultShellTimeout)
	v.SetDefault("timeouts.query", DefaultQueryTimeout)
	v.SetDefault("ssh.port", DefaultSSHPort)
	v.SetDefault("ui.skin", DefaultSkin)

	if configDir, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("QTERM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	configDir, err := paths.ConfigRoot()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	return c.v.WriteConfigAs(configDir + "/config.yaml")
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// Backend returns the configured backend preference.
func (c *Config) Backend() string {
	return c.GetString("backend")
}

// ShellTimeout returns the shell command timeout in seconds.
func (c *Config) ShellTimeout() int {
	return c.GetInt("timeouts.shell")
}

// QueryTimeout returns the AI query timeout in seconds.
func (c *Config) QueryTimeout() int {
	return c.GetInt("timeouts.query")
}

// Skin returns the configured TUI skin name.
func (c *Config) Skin() string {
	return c.GetString("ui.skin")
}

// SSHTarget holds the persisted SSH remote configuration. A zero Host means
// the ssh backend is unavailable, which is not an error.
type SSHTarget struct {
	Host    string
	User    string
	Port    int
	KeyFile string
}

// Configured reports whether the target has the minimum fields to connect.
func (t SSHTarget) Configured() bool {
	return t.Host != "" && t.User != ""
}

// Addr returns the user@host form used on the ssh command line.
func (t SSHTarget) Addr() string {
	return t.User + "@" + t.Host
}

// SSH returns the configured SSH target.
func (c *Config) SSH() SSHTarget {
	port := c.GetInt("ssh.port")
	if port == 0 {
		port = DefaultSSHPort
	}

	return SSHTarget{
		Host:    c.GetString("ssh.host"),
		User:    c.GetString("ssh.user"),
		Port:    port,
		KeyFile: c.GetString("ssh.key_file"),
	}
}

// SetSSH persists the SSH target.
func (c *Config) SetSSH(target SSHTarget) error {
	c.v.Set("ssh.host", target.Host)
	c.v.Set("ssh.user", target.User)
	c.v.Set("ssh.key_file", target.KeyFile)

	return c.Set("ssh.port", target.Port)
}
