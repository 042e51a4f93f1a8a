// Package prompt turns a session's accumulated state into the prompt text for
// the next agent iteration.
//
// The package has four layers:
//   - Marker and Template: a closed set of {{NAME}} placeholders and literal substitution
//   - Registry: one template per Mode (build, debug, plan), built in or loaded from disk
//   - Render* section builders: pure functions from context values to markdown
//   - Assembler: the per-session owner of mutable state that ties everything together
package prompt

import (
	"strings"
)

// Marker is a named placeholder in a template.
type Marker int

const (
	MarkerTask Marker = iota
	MarkerErrors
	MarkerQuality
	MarkerSessionStats
	MarkerAttemptHistory
	MarkerAntiPatterns
	MarkerHistoricalGuidance
	MarkerCodeIntelligence
	MarkerLanguageRules
	MarkerCodeWarnings
	MarkerCustom
)

// AllMarkers returns every marker in declaration order.
func AllMarkers() []Marker {
	return []Marker{
		MarkerTask,
		MarkerErrors,
		MarkerQuality,
		MarkerSessionStats,
		MarkerAttemptHistory,
		MarkerAntiPatterns,
		MarkerHistoricalGuidance,
		MarkerCodeIntelligence,
		MarkerLanguageRules,
		MarkerCodeWarnings,
		MarkerCustom,
	}
}

// Name returns the marker name without braces.
func (m Marker) Name() string {
	switch m {
	case MarkerTask:
		return "TASK_CONTEXT"
	case MarkerErrors:
		return "ERROR_CONTEXT"
	case MarkerQuality:
		return "QUALITY_STATUS"
	case MarkerSessionStats:
		return "SESSION_STATS"
	case MarkerAttemptHistory:
		return "ATTEMPT_HISTORY"
	case MarkerAntiPatterns:
		return "ANTI_PATTERNS"
	case MarkerHistoricalGuidance:
		return "HISTORICAL_GUIDANCE"
	case MarkerCodeIntelligence:
		return "CODE_INTELLIGENCE"
	case MarkerLanguageRules:
		return "LANGUAGE_RULES"
	case MarkerCodeWarnings:
		return "CODE_ANTIPATTERN_WARNINGS"
	case MarkerCustom:
		return "CUSTOM"
	default:
		return ""
	}
}

// Tag returns the literal placeholder, e.g. "{{TASK_CONTEXT}}".
func (m Marker) Tag() string {
	name := m.Name()
	if name == "" {
		return ""
	}
	return "{{" + name + "}}"
}

// String implements fmt.Stringer.
func (m Marker) String() string {
	if name := m.Name(); name != "" {
		return name
	}
	return "UNKNOWN"
}

// ParseMarker accepts either the bare name or the full tag.
func ParseMarker(s string) (Marker, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{{"), "}}")
	s = strings.ToUpper(s)
	for _, m := range AllMarkers() {
		if m.Name() == s {
			return m, true
		}
	}
	return 0, false
}
