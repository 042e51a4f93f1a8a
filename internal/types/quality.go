package types

import (
	"time"
)

// Gate identifies one of the five quality gates.
type Gate int

const (
	GateLint Gate = iota // clippy / linters
	GateTests
	GateNoAllow // no forbidden lint-suppression annotations
	GateSecurity
	GateDocs
)

// AllGates returns the gates in display order.
func AllGates() []Gate {
	return []Gate{GateLint, GateTests, GateNoAllow, GateSecurity, GateDocs}
}

// String returns the display name of the gate.
func (g Gate) String() string {
	switch g {
	case GateLint:
		return "Lint"
	case GateTests:
		return "Tests"
	case GateNoAllow:
		return "No Forbidden Annotations"
	case GateSecurity:
		return "Security"
	case GateDocs:
		return "Docs"
	default:
		return "Unknown"
	}
}

// ParseGate parses a gate name as used in session files and config.
func ParseGate(s string) (Gate, bool) {
	switch normalizeName(s) {
	case "lint", "clippy":
		return GateLint, true
	case "tests", "test":
		return GateTests, true
	case "noallow", "annotations", "forbiddenannotations":
		return GateNoAllow, true
	case "security", "audit":
		return GateSecurity, true
	case "docs", "doc", "documentation":
		return GateDocs, true
	default:
		return GateLint, false
	}
}

// GateResult is the outcome of one gate check.
type GateResult struct {
	Passed   bool
	Messages []string
}

// GatePassed returns a passing result.
func GatePassed() GateResult {
	return GateResult{Passed: true}
}

// GateFailed returns a failing result carrying messages.
func GateFailed(messages ...string) GateResult {
	return GateResult{Passed: false, Messages: cloneStrings(messages)}
}

// QualityGateStatus holds the latest result for every gate.
// A status with a nil LastCheck has never been checked and is never failing.
type QualityGateStatus struct {
	Lint      GateResult
	Tests     GateResult
	NoAllow   GateResult
	Security  GateResult
	Docs      GateResult
	LastCheck *time.Time
}

// NewQualityGateStatus returns a never-checked status.
func NewQualityGateStatus() QualityGateStatus {
	return QualityGateStatus{}
}

// Result returns the stored result for gate.
func (q QualityGateStatus) Result(g Gate) GateResult {
	switch g {
	case GateLint:
		return q.Lint
	case GateTests:
		return q.Tests
	case GateNoAllow:
		return q.NoAllow
	case GateSecurity:
		return q.Security
	case GateDocs:
		return q.Docs
	default:
		return GateResult{}
	}
}

// WithResult returns a copy with gate's result replaced and LastCheck set to at.
func (q QualityGateStatus) WithResult(g Gate, r GateResult, at time.Time) QualityGateStatus {
	q = q.Clone()
	r.Messages = cloneStrings(r.Messages)
	switch g {
	case GateLint:
		q.Lint = r
	case GateTests:
		q.Tests = r
	case GateNoAllow:
		q.NoAllow = r
	case GateSecurity:
		q.Security = r
	case GateDocs:
		q.Docs = r
	}
	q.LastCheck = &at
	return q
}

// IsChecked reports whether any check has been recorded.
func (q QualityGateStatus) IsChecked() bool {
	return q.LastCheck != nil
}

// HasFailures reports whether a checked status has a failing gate.
func (q QualityGateStatus) HasFailures() bool {
	return len(q.FailingGates()) > 0
}

// AllPassed reports whether a checked status has every gate passing.
func (q QualityGateStatus) AllPassed() bool {
	return q.IsChecked() && !q.HasFailures()
}

// FailingGates lists failing gates in display order. Empty when never checked.
func (q QualityGateStatus) FailingGates() []Gate {
	if !q.IsChecked() {
		return nil
	}
	var failing []Gate
	for _, g := range AllGates() {
		if !q.Result(g).Passed {
			failing = append(failing, g)
		}
	}
	return failing
}

// Clone returns a deep copy.
func (q QualityGateStatus) Clone() QualityGateStatus {
	q.Lint.Messages = cloneStrings(q.Lint.Messages)
	q.Tests.Messages = cloneStrings(q.Tests.Messages)
	q.NoAllow.Messages = cloneStrings(q.NoAllow.Messages)
	q.Security.Messages = cloneStrings(q.Security.Messages)
	q.Docs.Messages = cloneStrings(q.Docs.Messages)
	if q.LastCheck != nil {
		at := *q.LastCheck
		q.LastCheck = &at
	}
	return q
}
