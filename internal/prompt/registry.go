package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"steer/internal/logging"
)

// builtinTemplates holds the default templates baked into the binary.
//
//go:embed templates/*.md
var builtinTemplates embed.FS

const (
	templatePrefix    = "PROMPT_"
	templateExtension = ".md"
	builtinDir        = "templates"
)

// Mode selects which template a prompt is rendered from.
type Mode string

const (
	ModeBuild Mode = "build"
	ModeDebug Mode = "debug"
	ModePlan  Mode = "plan"
)

// AllModes returns the built-in modes.
func AllModes() []Mode {
	return []Mode{ModeBuild, ModeDebug, ModePlan}
}

// ParseMode parses a mode name (case-insensitive).
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllModes() {
		if m == known {
			return m, true
		}
	}
	return m, false
}

// TemplateFileName returns the on-disk name for mode, e.g. "PROMPT_build.md".
func TemplateFileName(mode Mode) string {
	return templatePrefix + string(mode) + templateExtension
}

// ErrUnknownMode is matched by errors.Is for any *UnknownModeError.
var ErrUnknownMode = errors.New("no template registered for mode")

// UnknownModeError reports a render request for a mode without a template.
type UnknownModeError struct {
	Mode Mode
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownMode, string(e.Mode))
}

// Is makes errors.Is(err, ErrUnknownMode) succeed.
func (e *UnknownModeError) Is(target error) bool {
	return target == ErrUnknownMode
}

// Registry maps modes to templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[Mode]Template
	sources   map[Mode]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[Mode]Template),
		sources:   make(map[Mode]string),
	}
}

// DefaultRegistry returns a registry holding the built-in templates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, mode := range AllModes() {
		content, err := builtinTemplate(mode)
		if err != nil {
			// Embedded files are checked in by TestBuiltinTemplatesPresent.
			panic(err)
		}
		r.register(mode, NewTemplate(content), "builtin")
	}
	return r
}

func builtinTemplate(mode Mode) (string, error) {
	data, err := builtinTemplates.ReadFile(builtinDir + "/" + TemplateFileName(mode))
	if err != nil {
		return "", fmt.Errorf("failed to read builtin template %s: %w", mode, err)
	}
	return string(data), nil
}

// LoadRegistry starts from the built-in templates and replaces each mode whose
// PROMPT_<mode>.md exists in dir. Missing files keep the built-in; other read
// errors are returned. An empty dir yields the defaults.
func LoadRegistry(dir string) (*Registry, error) {
	timer := logging.StartTimer(logging.CategoryTemplate, "LoadRegistry")
	defer timer.Stop()

	r := DefaultRegistry()
	if dir == "" {
		return r, nil
	}

	for _, mode := range AllModes() {
		path := filepath.Join(dir, TemplateFileName(mode))
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logging.Get(logging.CategoryTemplate).Debug("No override for %s at %s, using builtin", mode, path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		r.register(mode, NewTemplate(string(data)), path)
		logging.Get(logging.CategoryTemplate).Info("Loaded %s template from %s", mode, path)
	}
	return r, nil
}

// ExportDefaults writes the built-in templates into dir, creating it if needed.
// Existing files are overwritten.
func ExportDefaults(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create template dir: %w", err)
	}
	var written []string
	for _, mode := range AllModes() {
		content, err := builtinTemplate(mode)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, TemplateFileName(mode))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write template %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Register adds or replaces the template for mode.
func (r *Registry) Register(mode Mode, t Template) {
	r.register(mode, t, "custom")
}

func (r *Registry) register(mode Mode, t Template, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[mode] = t
	r.sources[mode] = source
}

// Get returns the template registered for mode.
func (r *Registry) Get(mode Mode) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[mode]
	return t, ok
}

// Source reports where mode's template came from: "builtin", "custom" or a file path.
func (r *Registry) Source(mode Mode) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[mode]
}

// Modes returns the registered modes, sorted.
func (r *Registry) Modes() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modes := make([]Mode, 0, len(r.templates))
	for m := range r.templates {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
