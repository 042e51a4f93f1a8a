package prompt

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"steer/internal/logging"
)

//go:embed rules/languages.yaml
var languagesYAML []byte

// LanguageRules are the rule bullets for one language.
type LanguageRules struct {
	Name       string   `yaml:"-"`
	Aliases    []string `yaml:"aliases"`
	Extensions []string `yaml:"extensions"`
	Rules      []string `yaml:"rules"`
}

type languagesFile struct {
	Languages map[string]LanguageRules `yaml:"languages"`
}

var (
	languagesOnce sync.Once
	languages     map[string]LanguageRules
	languagesErr  error
)

func loadLanguages() (map[string]LanguageRules, error) {
	languagesOnce.Do(func() {
		languages, languagesErr = parseLanguages(languagesYAML)
		if languagesErr != nil {
			logging.Get(logging.CategoryTemplate).Error("Failed to parse embedded language rules: %v", languagesErr)
		}
	})
	return languages, languagesErr
}

func parseLanguages(data []byte) (map[string]LanguageRules, error) {
	var file languagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse language rules: %w", err)
	}
	out := make(map[string]LanguageRules, len(file.Languages))
	for name, lr := range file.Languages {
		lr.Name = name
		out[strings.ToLower(name)] = lr
	}
	return out, nil
}

// LookupLanguage resolves a language name or alias.
func LookupLanguage(name string) (LanguageRules, bool) {
	all, err := loadLanguages()
	if err != nil {
		return LanguageRules{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if lr, ok := all[name]; ok {
		return lr, true
	}
	for _, lr := range all {
		for _, alias := range lr.Aliases {
			if alias == name {
				return lr, true
			}
		}
	}
	return LanguageRules{}, false
}

// RulesFor returns the rule bullets for a language name or alias.
func RulesFor(language string) []string {
	lr, ok := LookupLanguage(language)
	if !ok {
		return nil
	}
	out := make([]string, len(lr.Rules))
	copy(out, lr.Rules)
	return out
}

// KnownLanguages returns the canonical language names, sorted.
func KnownLanguages() []string {
	all, _ := loadLanguages()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectLanguage picks the language whose extensions match most of files.
// Ties resolve alphabetically; no match returns "".
func DetectLanguage(files []string) string {
	all, err := loadLanguages()
	if err != nil || len(files) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		for name, lr := range all {
			for _, e := range lr.Extensions {
				if e == ext {
					counts[name]++
				}
			}
		}
	}
	best, bestCount := "", 0
	for _, name := range KnownLanguages() {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}
