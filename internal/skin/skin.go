// Package skin loads TUI color themes. Built-in skins ship embedded;
// user-defined skins in the skins directory take priority under the same
// name, so a built-in can be customized by copying it out and editing it.
package skin

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/qterm-dev/qterm/internal/paths"
)

//go:embed skins/*.toml
var builtin embed.FS

// Colors holds the palette as terminal color strings (hex or ANSI index).
type Colors struct {
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
	Accent     string `toml:"accent"`
	Error      string `toml:"error"`
	Muted      string `toml:"muted"`
	StatusFg   string `toml:"status_fg"`
	StatusBg   string `toml:"status_bg"`
}

// Skin is a complete theme.
type Skin struct {
	Name   string `toml:"name"`
	Prompt string `toml:"prompt"`
	Banner string `toml:"banner"`
	Colors Colors `toml:"colors"`
}

// Load resolves a skin by name, preferring a user file over the embedded
// set. Unknown names fall back to the default skin rather than erroring, so
// a stale config value never blocks startup.
func Load(name string) (Skin, error) {
	if name == "" {
		name = "qis-green"
	}

	if s, err := loadUser(name); err == nil {
		return s, nil
	}

	if s, err := loadBuiltin(name); err == nil {
		return s, nil
	}

	return loadBuiltin("qis-green")
}

func loadUser(name string) (Skin, error) {
	dir, err := paths.SkinsDir()
	if err != nil {
		return Skin{}, err
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".toml"))
	if err != nil {
		return Skin{}, err
	}

	return parse(name, data)
}

func loadBuiltin(name string) (Skin, error) {
	data, err := builtin.ReadFile("skins/" + name + ".toml")
	if err != nil {
		return Skin{}, err
	}

	return parse(name, data)
}

func parse(name string, data []byte) (Skin, error) {
	var s Skin
	if err := toml.Unmarshal(data, &s); err != nil {
		return Skin{}, fmt.Errorf("skin %s: %w", name, err)
	}

	if s.Name == "" {
		s.Name = name
	}

	return s, nil
}

// Names lists available skins, built-in plus user-defined, sorted and
// deduplicated.
func Names() []string {
	seen := map[string]bool{}

	if entries, err := builtin.ReadDir("skins"); err == nil {
		for _, e := range entries {
			seen[strings.TrimSuffix(e.Name(), ".toml")] = true
		}
	}

	if dir, err := paths.SkinsDir(); err == nil {
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".toml") {
					seen[strings.TrimSuffix(e.Name(), ".toml")] = true
				}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
