// Package snippets serves small canned code examples by language, used by
// the snippet command to answer "show me hello world in X" without a
// network roundtrip to the AI backend.
package snippets

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed snippets.yaml
var embedded embed.FS

// Snippet is one canned example.
type Snippet struct {
	Language string   `yaml:"language"`
	Aliases  []string `yaml:"aliases"`
	Code     string   `yaml:"code"`
}

var (
	loadOnce sync.Once
	byName   map[string]Snippet
	loadErr  error
)

func load() {
	data, err := embedded.ReadFile("snippets.yaml")
	if err != nil {
		loadErr = err

		return
	}

	var list []Snippet
	if err := yaml.Unmarshal(data, &list); err != nil {
		loadErr = fmt.Errorf("parse embedded snippets: %w", err)

		return
	}

	byName = make(map[string]Snippet, len(list))
	for _, s := range list {
		byName[strings.ToLower(s.Language)] = s
		for _, alias := range s.Aliases {
			byName[strings.ToLower(alias)] = s
		}
	}
}

// Lookup finds a snippet by language name or alias, case-insensitively.
func Lookup(language string) (Snippet, bool) {
	loadOnce.Do(load)

	if loadErr != nil {
		return Snippet{}, false
	}

	s, ok := byName[strings.ToLower(strings.TrimSpace(language))]

	return s, ok
}

// Languages lists the canonical language names, sorted.
func Languages() []string {
	loadOnce.Do(load)

	seen := map[string]bool{}
	for _, s := range byName {
		seen[s.Language] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
