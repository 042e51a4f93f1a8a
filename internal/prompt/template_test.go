package prompt

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerTags(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range AllMarkers() {
		tag := m.Tag()
		require.True(t, strings.HasPrefix(tag, "{{") && strings.HasSuffix(tag, "}}"), tag)
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true

		parsed, ok := ParseMarker(tag)
		require.True(t, ok)
		assert.Equal(t, m, parsed)
	}
	assert.Len(t, seen, 11)

	for _, a := range AllMarkers() {
		for _, b := range AllMarkers() {
			if a != b {
				assert.NotContains(t, a.Tag(), b.Tag(), "tags must not overlap")
			}
		}
	}
}

func TestParseMarker(t *testing.T) {
	m, ok := ParseMarker("task_context")
	require.True(t, ok)
	assert.Equal(t, MarkerTask, m)

	_, ok = ParseMarker("{{NOPE}}")
	assert.False(t, ok)
	assert.Equal(t, "", Marker(99).Tag())
}

func TestNewTemplate_ScansMarkers(t *testing.T) {
	tmpl := NewTemplate("A {{TASK_CONTEXT}}\n{{SESSION_STATS}} {{TASK_CONTEXT}}")
	assert.Equal(t, []Marker{MarkerTask, MarkerSessionStats}, tmpl.Markers())
	assert.True(t, tmpl.HasMarker(MarkerTask))
	assert.False(t, tmpl.HasMarker(MarkerErrors))

	assert.Empty(t, NewTemplate("no markers here").Markers())
}

func TestTemplate_SubstituteRoundTrip(t *testing.T) {
	tmpl := NewTemplate("before\n{{ERROR_CONTEXT}}\nafter")
	out := tmpl.Substitute(MarkerErrors, "X")

	assert.Contains(t, out.Content(), "X")
	assert.NotContains(t, out.Content(), MarkerErrors.Tag())
	assert.False(t, out.HasMarker(MarkerErrors))
	assert.True(t, tmpl.HasMarker(MarkerErrors), "receiver is unchanged")
}

func TestTemplate_SubstituteReplacesAllOccurrences(t *testing.T) {
	out := NewTemplate("{{CUSTOM}}-{{CUSTOM}}").Substitute(MarkerCustom, "x")
	assert.Equal(t, "x-x", out.Content())
}

func TestTemplate_SubstituteMissingMarkerIsNoop(t *testing.T) {
	tmpl := NewTemplate("plain {{CUSTOM}}")
	assert.Equal(t, tmpl.Content(), tmpl.Substitute(MarkerTask, "X").Content())
}

func TestTemplate_SubstituteAll(t *testing.T) {
	tmpl := NewTemplate("{{TASK_CONTEXT}}|{{ERROR_CONTEXT}}|{{CUSTOM}}")
	out := tmpl.SubstituteAll(map[Marker]string{
		MarkerTask:    "T",
		MarkerErrors:  "E",
		MarkerQuality: "unused",
	})
	assert.Equal(t, "T|E|{{CUSTOM}}", out.Content())
	assert.Equal(t, []Marker{MarkerCustom}, out.Markers())
}

func TestTemplate_RemoveUnreplacedMarkers(t *testing.T) {
	tmpl := NewTemplate("# Title\n\n{{TASK_CONTEXT}}\n\n{{ERROR_CONTEXT}}\n\n\n\nBody\n")
	out := tmpl.Substitute(MarkerTask, "").RemoveUnreplacedMarkers()

	if diff := cmp.Diff("# Title\n\nBody\n", out.Content()); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, out.Markers())
}
