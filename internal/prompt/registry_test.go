package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTemplatesPresent(t *testing.T) {
	for _, mode := range AllModes() {
		content, err := builtinTemplate(mode)
		require.NoError(t, err, mode)
		tmpl := NewTemplate(content)
		assert.True(t, tmpl.HasMarker(MarkerTask), mode)
		assert.True(t, tmpl.HasMarker(MarkerSessionStats), mode)
	}
}

func TestBuiltinTemplates_SectionOrder(t *testing.T) {
	order := []Marker{MarkerTask, MarkerErrors, MarkerQuality, MarkerAntiPatterns, MarkerCodeIntelligence, MarkerSessionStats}
	for _, mode := range AllModes() {
		tmpl, ok := DefaultRegistry().Get(mode)
		require.True(t, ok)
		last := -1
		for _, m := range order {
			idx := strings.Index(tmpl.Content(), m.Tag())
			require.GreaterOrEqual(t, idx, 0, "%s missing %s", mode, m)
			assert.Greater(t, idx, last, "%s: %s out of order", mode, m)
			last = idx
		}
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode(" Debug ")
	require.True(t, ok)
	assert.Equal(t, ModeDebug, m)

	_, ok = ParseMode("review")
	assert.False(t, ok)
	assert.Equal(t, "PROMPT_plan.md", TemplateFileName(ModePlan))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get(ModeBuild)
	assert.False(t, ok)

	r.Register(ModeBuild, NewTemplate("{{CUSTOM}}"))
	tmpl, ok := r.Get(ModeBuild)
	require.True(t, ok)
	assert.Equal(t, "{{CUSTOM}}", tmpl.Content())
	assert.Equal(t, "custom", r.Source(ModeBuild))
	assert.Equal(t, []Mode{ModeBuild}, r.Modes())
}

func TestLoadRegistry_OverridesAndFallback(t *testing.T) {
	dir := t.TempDir()
	override := "# Custom debug\n{{ERROR_CONTEXT}}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, TemplateFileName(ModeDebug)), []byte(override), 0644))

	r, err := LoadRegistry(dir)
	require.NoError(t, err)

	debug, ok := r.Get(ModeDebug)
	require.True(t, ok)
	assert.Equal(t, override, debug.Content())
	assert.Equal(t, filepath.Join(dir, "PROMPT_debug.md"), r.Source(ModeDebug))

	build, ok := r.Get(ModeBuild)
	require.True(t, ok)
	want, _ := builtinTemplate(ModeBuild)
	assert.Equal(t, want, build.Content())
	assert.Equal(t, "builtin", r.Source(ModeBuild))
}

func TestLoadRegistry_MissingDirFallsBack(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.ElementsMatch(t, AllModes(), r.Modes())
}

func TestLoadRegistry_ReadErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	// A directory where a file is expected cannot be read as a template.
	require.NoError(t, os.Mkdir(filepath.Join(dir, TemplateFileName(ModePlan)), 0755))

	_, err := LoadRegistry(dir)
	require.Error(t, err)
}

func TestExportDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "templates")
	written, err := ExportDefaults(dir)
	require.NoError(t, err)
	assert.Len(t, written, len(AllModes()))

	r, err := LoadRegistry(dir)
	require.NoError(t, err)
	for _, mode := range AllModes() {
		assert.Equal(t, filepath.Join(dir, TemplateFileName(mode)), r.Source(mode))
	}
}

func TestUnknownModeError(t *testing.T) {
	var err error = &UnknownModeError{Mode: "review"}
	assert.True(t, errors.Is(err, ErrUnknownMode))
	assert.Contains(t, err.Error(), `"review"`)

	var target *UnknownModeError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, Mode("review"), target.Mode)
}
