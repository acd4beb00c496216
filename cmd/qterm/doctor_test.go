package main

import (
	"testing"

	"github.com/qterm-dev/qterm/internal/envinfo"
)

func TestStatusWord(t *testing.T) {
	tests := []struct {
		status checkStatus
		want   string
	}{
		{status: checkPass, want: "pass"},
		{status: checkWarn, want: "warn"},
		{status: checkFail, want: "fail"},
	}

	for _, tt := range tests {
		if got := statusWord(tt.status); got != tt.want {
			t.Errorf("statusWord(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestVersionPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "q 1.2.3", want: "1.2.3"},
		{in: "Amazon Q CLI version 10.0.1 (release)", want: "10.0.1"},
		{in: "no version here", want: ""},
	}

	for _, tt := range tests {
		if got := versionPattern.FindString(tt.in); got != tt.want {
			t.Errorf("FindString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlatformCheck(t *testing.T) {
	r := platformCheck(envinfo.Info{Platform: envinfo.PlatformLinux, IsWSL: true, WSLDistro: "Ubuntu"})

	if r.status != checkPass {
		t.Errorf("status = %v, want pass", r.status)
	}

	if r.Message != "linux (inside WSL: Ubuntu)" {
		t.Errorf("Message = %q", r.Message)
	}
}

func TestWSLCheck(t *testing.T) {
	tests := []struct {
		name string
		env  envinfo.Info
		want checkStatus
	}{
		{name: "non-windows is pass", env: envinfo.Info{Platform: envinfo.PlatformLinux}, want: checkPass},
		{name: "windows with wsl", env: envinfo.Info{Platform: envinfo.PlatformWindows, WSLAvailable: true}, want: checkPass},
		{name: "windows without wsl", env: envinfo.Info{Platform: envinfo.PlatformWindows}, want: checkWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wslCheck(tt.env); got.status != tt.want {
				t.Errorf("status = %v, want %v", got.status, tt.want)
			}
		})
	}
}

func TestCLICheck_NotFoundWarns(t *testing.T) {
	r := cliCheck(t.Context(), envinfo.Info{})

	if r.status != checkWarn {
		t.Errorf("status = %v, want warn", r.status)
	}
}
