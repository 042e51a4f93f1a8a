package prompt

import (
	"regexp"
	"strings"

	"steer/internal/logging"
)

// excessNewlines matches three or more consecutive newlines.
var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Template is raw text plus the markers found in it. Templates are values:
// every substitution returns a new Template and leaves the receiver unchanged.
type Template struct {
	content string
	markers []Marker
}

// NewTemplate scans content for markers.
func NewTemplate(content string) Template {
	return Template{
		content: content,
		markers: scanMarkers(content),
	}
}

func scanMarkers(content string) []Marker {
	if !strings.Contains(content, "{{") {
		return nil // Fast path: no markers
	}
	var found []Marker
	for _, m := range AllMarkers() {
		if strings.Contains(content, m.Tag()) {
			found = append(found, m)
		}
	}
	return found
}

// Content returns the current text.
func (t Template) Content() string {
	return t.content
}

// Markers returns the markers still present, in declaration order.
func (t Template) Markers() []Marker {
	out := make([]Marker, len(t.markers))
	copy(out, t.markers)
	return out
}

// HasMarker reports whether m is still present.
func (t Template) HasMarker(m Marker) bool {
	for _, x := range t.markers {
		if x == m {
			return true
		}
	}
	return false
}

// Substitute replaces every occurrence of m's tag with text.
func (t Template) Substitute(m Marker, text string) Template {
	if !t.HasMarker(m) {
		return t
	}
	return NewTemplate(strings.ReplaceAll(t.content, m.Tag(), text))
}

// SubstituteAll replaces every marker in values. Tags never overlap, so the
// result does not depend on map iteration order.
func (t Template) SubstituteAll(values map[Marker]string) Template {
	if len(values) == 0 {
		return t
	}
	pairs := make([]string, 0, len(values)*2)
	for _, m := range AllMarkers() {
		if text, ok := values[m]; ok && t.HasMarker(m) {
			pairs = append(pairs, m.Tag(), text)
		}
	}
	if len(pairs) == 0 {
		return t
	}
	return NewTemplate(strings.NewReplacer(pairs...).Replace(t.content))
}

// RemoveUnreplacedMarkers drops leftover tags and collapses the blank runs
// left behind to a single empty line.
func (t Template) RemoveUnreplacedMarkers() Template {
	content := t.content
	for _, m := range t.markers {
		content = strings.ReplaceAll(content, m.Tag(), "")
	}
	if len(t.markers) > 0 {
		logging.Get(logging.CategoryTemplate).Debug("Removed %d unreplaced markers", len(t.markers))
	}
	content = excessNewlines.ReplaceAllString(content, "\n\n")
	return Template{content: content}
}
