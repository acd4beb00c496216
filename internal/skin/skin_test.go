package skin

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Builtin(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	for _, name := range []string{"qis-green", "hal-red", "amber"} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%q) error = %v", name, err)
			}

			if s.Name != name {
				t.Errorf("Name = %q, want %q", s.Name, name)
			}

			if s.Colors.Foreground == "" {
				t.Error("Foreground is empty")
			}
		})
	}
}

func TestLoad_UnknownFallsBackToDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := Load("no-such-skin")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Name != "qis-green" {
		t.Errorf("Name = %q, want fallback qis-green", s.Name)
	}
}

func TestLoad_UserOverridesBuiltin(t *testing.T) {
	cfgRoot := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgRoot)

	skinsDir := filepath.Join(cfgRoot, "qterm", "skins")
	if err := os.MkdirAll(skinsDir, 0o755); err != nil {
		t.Fatal(err)
	}

	custom := "name = \"qis-green\"\nprompt = \"$ \"\n\n[colors]\nforeground = \"#ffffff\"\n"
	if err := os.WriteFile(filepath.Join(skinsDir, "qis-green.toml"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load("qis-green")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Colors.Foreground != "#ffffff" {
		t.Errorf("Foreground = %q, want user override #ffffff", s.Colors.Foreground)
	}
}

func TestNames_IncludesBuiltins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	names := Names()

	want := map[string]bool{"qis-green": false, "hal-red": false, "amber": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}

	for n, found := range want {
		if !found {
			t.Errorf("Names() missing builtin %q", n)
		}
	}
}
