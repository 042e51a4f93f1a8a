package types

import (
	"fmt"
)

// ErrorSeverity ranks error observations: Info < Warning < Error.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseErrorSeverity parses "info", "warning"/"warn" or "error".
func ParseErrorSeverity(s string) (ErrorSeverity, bool) {
	switch normalizeName(s) {
	case "info", "note", "help":
		return SeverityInfo, true
	case "warning", "warn":
		return SeverityWarning, true
	case "error", "err", "fatal":
		return SeverityError, true
	default:
		return SeverityError, false
	}
}

// ErrorContext is one deduplicated compiler, test or tool error.
// Code is the deduplication key.
type ErrorContext struct {
	Code            string
	Message         string
	Severity        ErrorSeverity
	OccurrenceCount int
	File            string // empty when unknown
	Line            int    // 0 when unknown
	SuggestedFix    string
}

// NewErrorContext creates an error observed once.
func NewErrorContext(code, message string, severity ErrorSeverity) ErrorContext {
	return ErrorContext{
		Code:            code,
		Message:         message,
		Severity:        severity,
		OccurrenceCount: 1,
	}
}

// WithLocation returns a copy pointing at file:line.
func (e ErrorContext) WithLocation(file string, line int) ErrorContext {
	e.File = file
	if line < 0 {
		line = 0
	}
	e.Line = line
	return e
}

// WithSuggestedFix returns a copy carrying a suggested fix.
func (e ErrorContext) WithSuggestedFix(fix string) ErrorContext {
	e.SuggestedFix = fix
	return e
}

// WithOccurrences returns a copy with the occurrence count set (minimum 1).
func (e ErrorContext) WithOccurrences(n int) ErrorContext {
	if n < 1 {
		n = 1
	}
	e.OccurrenceCount = n
	return e
}

// Location formats file:line, file, or "" when unknown.
func (e ErrorContext) Location() string {
	switch {
	case e.File == "":
		return ""
	case e.Line > 0:
		return fmt.Sprintf("%s:%d", e.File, e.Line)
	default:
		return e.File
	}
}
