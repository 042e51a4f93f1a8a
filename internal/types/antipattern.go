package types

// MaxEvidence bounds AntiPattern.Evidence.
const MaxEvidence = 5

// AntiPatternKind identifies a behavioural anti-pattern of the agent loop.
type AntiPatternKind int

const (
	KindEditWithoutCommit AntiPatternKind = iota
	KindTestsNotRun
	KindLintNotRun
	KindTaskOscillation
	KindRepeatingErrors
	KindFileChurn
	KindScopeCreep
	KindIgnoringQualityGates
)

// AllAntiPatternKinds returns every kind in declaration order.
func AllAntiPatternKinds() []AntiPatternKind {
	return []AntiPatternKind{
		KindEditWithoutCommit,
		KindTestsNotRun,
		KindLintNotRun,
		KindTaskOscillation,
		KindRepeatingErrors,
		KindFileChurn,
		KindScopeCreep,
		KindIgnoringQualityGates,
	}
}

// String returns the snake_case identifier used in logs and the audit table.
func (k AntiPatternKind) String() string {
	switch k {
	case KindEditWithoutCommit:
		return "edit_without_commit"
	case KindTestsNotRun:
		return "tests_not_run"
	case KindLintNotRun:
		return "lint_not_run"
	case KindTaskOscillation:
		return "task_oscillation"
	case KindRepeatingErrors:
		return "repeating_errors"
	case KindFileChurn:
		return "file_churn"
	case KindScopeCreep:
		return "scope_creep"
	case KindIgnoringQualityGates:
		return "ignoring_quality_gates"
	default:
		return "unknown"
	}
}

// ParseAntiPatternKind is the inverse of String.
func ParseAntiPatternKind(s string) (AntiPatternKind, bool) {
	n := normalizeName(s)
	for _, k := range AllAntiPatternKinds() {
		if normalizeName(k.String()) == n {
			return k, true
		}
	}
	return KindEditWithoutCommit, false
}

// Title returns the heading used when rendering the kind.
func (k AntiPatternKind) Title() string {
	switch k {
	case KindEditWithoutCommit:
		return "Editing Without Committing"
	case KindTestsNotRun:
		return "Tests Not Run"
	case KindLintNotRun:
		return "Lint Not Run"
	case KindTaskOscillation:
		return "Task Oscillation"
	case KindRepeatingErrors:
		return "Repeating Errors"
	case KindFileChurn:
		return "File Churn"
	case KindScopeCreep:
		return "Scope Creep"
	case KindIgnoringQualityGates:
		return "Ignoring Quality Gates"
	default:
		return "Unknown Pattern"
	}
}

// DefaultSeverity is the severity a finding of this kind starts with.
func (k AntiPatternKind) DefaultSeverity() AntiPatternSeverity {
	switch k {
	case KindEditWithoutCommit, KindTestsNotRun, KindTaskOscillation,
		KindRepeatingErrors, KindFileChurn, KindScopeCreep:
		return SeverityMedium
	case KindLintNotRun:
		return SeverityLow
	case KindIgnoringQualityGates:
		return SeverityHigh
	default:
		return SeverityLow
	}
}

// DefaultRemediation is the fixed advice attached to a finding of this kind.
func (k AntiPatternKind) DefaultRemediation() string {
	switch k {
	case KindEditWithoutCommit:
		return "Commit working changes now. Small, frequent commits make progress recoverable."
	case KindTestsNotRun:
		return "Run the test suite before making further changes."
	case KindLintNotRun:
		return "Run the linter and fix its findings before continuing."
	case KindTaskOscillation:
		return "Pick one task and finish it before switching. Record blockers instead of switching away."
	case KindRepeatingErrors:
		return "Stop retrying the same fix. Read the error carefully and try a different approach."
	case KindFileChurn:
		return "Step back and design the change for the churning files before editing them again."
	case KindScopeCreep:
		return "Narrow the change to the files the current task needs. Defer unrelated edits."
	case KindIgnoringQualityGates:
		return "Fix the failing quality gates before adding new functionality."
	default:
		return ""
	}
}

// AntiPatternSeverity ranks findings: Low < Medium < High.
type AntiPatternSeverity int

const (
	SeverityLow AntiPatternSeverity = iota
	SeverityMedium
	SeverityHigh
)

// String returns the lowercase severity name.
func (s AntiPatternSeverity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseAntiPatternSeverity parses "low", "medium" or "high".
func ParseAntiPatternSeverity(s string) (AntiPatternSeverity, bool) {
	switch normalizeName(s) {
	case "low":
		return SeverityLow, true
	case "medium", "med":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	default:
		return SeverityLow, false
	}
}

// AntiPattern is one detected finding.
type AntiPattern struct {
	Kind             AntiPatternKind
	Description      string
	Evidence         []string
	Severity         AntiPatternSeverity
	Remediation      string
	PersistenceCount int
}

// NewAntiPattern creates a finding with the kind's default severity and remediation.
func NewAntiPattern(kind AntiPatternKind, description string) AntiPattern {
	return AntiPattern{
		Kind:        kind,
		Description: description,
		Severity:    kind.DefaultSeverity(),
		Remediation: kind.DefaultRemediation(),
	}
}

// WithSeverity returns a copy with the severity replaced.
func (a AntiPattern) WithSeverity(s AntiPatternSeverity) AntiPattern {
	a.Severity = s
	return a
}

// WithEvidence returns a copy with evidence appended, keeping at most MaxEvidence items.
func (a AntiPattern) WithEvidence(items ...string) AntiPattern {
	out := cloneStrings(a.Evidence)
	for _, item := range items {
		if len(out) >= MaxEvidence {
			break
		}
		out = append(out, item)
	}
	a.Evidence = out
	return a
}

// WithRemediation returns a copy with the remediation replaced.
func (a AntiPattern) WithRemediation(r string) AntiPattern {
	a.Remediation = r
	return a
}

// WithPersistence returns a copy with the persistence count set.
func (a AntiPattern) WithPersistence(n int) AntiPattern {
	a.PersistenceCount = n
	return a
}

// Clone returns a deep copy.
func (a AntiPattern) Clone() AntiPattern {
	a.Evidence = cloneStrings(a.Evidence)
	return a
}
