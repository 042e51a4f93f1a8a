// Package types provides the value types shared across steer packages:
// the per-render PromptContext snapshot and everything it is built from.
// Types in this package are plain data with no dependencies on other steer packages.
package types

import (
	"strings"
)

// TaskPhase is the lifecycle phase of the current task.
type TaskPhase int

const (
	PhasePlanning TaskPhase = iota
	PhaseImplementation
	PhaseTesting
	PhaseQualityFixes
	PhaseReview
)

// String returns the display name of the phase.
func (p TaskPhase) String() string {
	switch p {
	case PhasePlanning:
		return "Planning"
	case PhaseImplementation:
		return "Implementation"
	case PhaseTesting:
		return "Testing"
	case PhaseQualityFixes:
		return "Quality Fixes"
	case PhaseReview:
		return "Review"
	default:
		return "Unknown"
	}
}

// Guidance returns a one-line focus hint for the phase.
func (p TaskPhase) Guidance() string {
	switch p {
	case PhasePlanning:
		return "Break the task into small, verifiable steps before writing code."
	case PhaseImplementation:
		return "Implement the smallest change that compiles, then commit."
	case PhaseTesting:
		return "Write or fix tests until the suite passes; do not widen scope."
	case PhaseQualityFixes:
		return "Fix lint, docs and security findings without changing behaviour."
	case PhaseReview:
		return "Review the diff for correctness and leftover debug code, then commit."
	default:
		return ""
	}
}

// ParseTaskPhase parses a phase name. Unknown names map to PhaseImplementation.
func ParseTaskPhase(s string) (TaskPhase, bool) {
	switch normalizeName(s) {
	case "planning", "plan":
		return PhasePlanning, true
	case "implementation", "implement":
		return PhaseImplementation, true
	case "testing", "test":
		return PhaseTesting, true
	case "qualityfixes", "quality":
		return PhaseQualityFixes, true
	case "review":
		return PhaseReview, true
	default:
		return PhaseImplementation, false
	}
}

// normalizeName lowercases and strips separators so "Quality Fixes",
// "quality_fixes" and "quality-fixes" compare equal.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// CurrentTaskContext describes the task the agent is working on.
type CurrentTaskContext struct {
	ID                string
	Title             string
	Phase             TaskPhase
	CompletionPercent int
	AttemptCount      int
	ModifiedFiles     []string
	Blockers          []string
	Dependencies      []string
}

// NewCurrentTaskContext starts a task in the Planning phase.
func NewCurrentTaskContext(id, title string) CurrentTaskContext {
	return CurrentTaskContext{ID: id, Title: title, Phase: PhasePlanning}
}

// WithPhase returns a copy with the phase set.
func (t CurrentTaskContext) WithPhase(p TaskPhase) CurrentTaskContext {
	t.Phase = p
	return t
}

// WithCompletion returns a copy with the completion percentage clamped to 0..100.
func (t CurrentTaskContext) WithCompletion(percent int) CurrentTaskContext {
	t.CompletionPercent = clampPercent(percent)
	return t
}

// WithAttemptCount returns a copy with the attempt count set.
func (t CurrentTaskContext) WithAttemptCount(n int) CurrentTaskContext {
	if n < 0 {
		n = 0
	}
	t.AttemptCount = n
	return t
}

// WithModifiedFile returns a copy with path appended (no duplicates).
func (t CurrentTaskContext) WithModifiedFile(path string) CurrentTaskContext {
	t.ModifiedFiles = appendUnique(t.ModifiedFiles, path)
	return t
}

// WithBlocker returns a copy with blocker appended (no duplicates).
func (t CurrentTaskContext) WithBlocker(blocker string) CurrentTaskContext {
	t.Blockers = appendUnique(t.Blockers, blocker)
	return t
}

// WithDependency returns a copy with dep appended (no duplicates).
func (t CurrentTaskContext) WithDependency(dep string) CurrentTaskContext {
	t.Dependencies = appendUnique(t.Dependencies, dep)
	return t
}

// Clone returns a deep copy.
func (t CurrentTaskContext) Clone() CurrentTaskContext {
	t.ModifiedFiles = cloneStrings(t.ModifiedFiles)
	t.Blockers = cloneStrings(t.Blockers)
	t.Dependencies = cloneStrings(t.Dependencies)
	return t
}

// IsBlocked reports whether the task has open blockers.
func (t CurrentTaskContext) IsBlocked() bool {
	return len(t.Blockers) > 0
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// appendUnique copies s before appending so values built with With* never share
// a backing array.
func appendUnique(s []string, v string) []string {
	out := cloneStrings(s)
	if v == "" {
		return out
	}
	for _, existing := range out {
		if existing == v {
			return out
		}
	}
	return append(out, v)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
