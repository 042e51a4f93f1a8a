package types

import (
	"time"
)

// AttemptOutcome is how one attempt at the current task ended.
type AttemptOutcome int

const (
	OutcomeSuccess AttemptOutcome = iota
	OutcomeCompilationError
	OutcomeTestFailure
	OutcomeQualityGateFailed
	OutcomeTimeout
	OutcomeBlocked
	OutcomeAbandoned
)

// String returns the display name of the outcome.
func (o AttemptOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeCompilationError:
		return "Compilation Error"
	case OutcomeTestFailure:
		return "Test Failure"
	case OutcomeQualityGateFailed:
		return "Quality Gate Failed"
	case OutcomeTimeout:
		return "Timeout"
	case OutcomeBlocked:
		return "Blocked"
	case OutcomeAbandoned:
		return "Abandoned"
	default:
		return "Unknown"
	}
}

// IsFailure reports whether the outcome is anything but success.
func (o AttemptOutcome) IsFailure() bool {
	switch o {
	case OutcomeSuccess:
		return false
	default:
		return true
	}
}

// ParseAttemptOutcome parses an outcome name such as "test_failure".
func ParseAttemptOutcome(s string) (AttemptOutcome, bool) {
	switch normalizeName(s) {
	case "success", "ok":
		return OutcomeSuccess, true
	case "compilationerror", "compile", "build":
		return OutcomeCompilationError, true
	case "testfailure", "tests":
		return OutcomeTestFailure, true
	case "qualitygatefailed", "quality":
		return OutcomeQualityGateFailed, true
	case "timeout":
		return OutcomeTimeout, true
	case "blocked":
		return OutcomeBlocked, true
	case "abandoned":
		return OutcomeAbandoned, true
	default:
		return OutcomeAbandoned, false
	}
}

// AttemptSummary records one attempt at the current task.
type AttemptSummary struct {
	Number        int // 1-indexed
	Outcome       AttemptOutcome
	Approach      string
	Errors        []string
	FilesModified []string
	Duration      time.Duration // 0 = unknown
	Notes         string
}

// NewAttemptSummary creates an attempt with the given number and outcome.
func NewAttemptSummary(number int, outcome AttemptOutcome) AttemptSummary {
	return AttemptSummary{Number: number, Outcome: outcome}
}

// WithApproach returns a copy with the approach description set.
func (a AttemptSummary) WithApproach(approach string) AttemptSummary {
	a.Approach = approach
	return a
}

// WithError returns a copy with err appended.
func (a AttemptSummary) WithError(err string) AttemptSummary {
	a.Errors = append(cloneStrings(a.Errors), err)
	return a
}

// WithFile returns a copy with path appended once.
func (a AttemptSummary) WithFile(path string) AttemptSummary {
	a.FilesModified = appendUnique(a.FilesModified, path)
	return a
}

// WithDuration returns a copy with the duration set.
func (a AttemptSummary) WithDuration(d time.Duration) AttemptSummary {
	a.Duration = d
	return a
}

// WithNotes returns a copy with notes set.
func (a AttemptSummary) WithNotes(notes string) AttemptSummary {
	a.Notes = notes
	return a
}

// Clone returns a deep copy.
func (a AttemptSummary) Clone() AttemptSummary {
	a.Errors = cloneStrings(a.Errors)
	a.FilesModified = cloneStrings(a.FilesModified)
	return a
}
