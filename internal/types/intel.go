package types

import (
	"fmt"
)

// CallGraphNode is one symbol with its direct callers and callees.
type CallGraphNode struct {
	Symbol  string   `json:"symbol"`
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line,omitempty"`
	Callers []string `json:"callers,omitempty"`
	Callees []string `json:"callees,omitempty"`
}

// SymbolReference is one place a symbol is defined or used.
type SymbolReference struct {
	Symbol  string `json:"symbol"`
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Kind    string `json:"kind,omitempty"` // definition, call, import, ...
	Snippet string `json:"snippet,omitempty"`
}

// ModuleDependency is an edge in the module graph.
type ModuleDependency struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Circular bool   `json:"circular,omitempty"`
}

// ConstraintResult is the outcome of one architectural constraint check.
type ConstraintResult struct {
	Constraint string   `json:"constraint"`
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

// CodeIntelligence is the read-only bundle an external code-graph source returns.
type CodeIntelligence struct {
	IsAvailable  bool
	Source       string
	CallGraph    []CallGraphNode
	References   []SymbolReference
	Dependencies []ModuleDependency
	Compliance   []ConstraintResult
}

// Unavailable is the result used when no source is configured or the source failed.
func Unavailable() CodeIntelligence {
	return CodeIntelligence{}
}

// IsEmpty reports whether the bundle carries nothing to render.
func (c CodeIntelligence) IsEmpty() bool {
	return len(c.CallGraph) == 0 && len(c.References) == 0 &&
		len(c.Dependencies) == 0 && len(c.Compliance) == 0
}

// FailedConstraints returns the constraints that did not pass.
func (c CodeIntelligence) FailedConstraints() []ConstraintResult {
	var failed []ConstraintResult
	for _, r := range c.Compliance {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// IntelligenceQuery is what the assembler asks a code-intelligence source about.
type IntelligenceQuery struct {
	TaskID    string
	TaskTitle string
	Files     []string
	Symbols   []string
}

// IsEmpty reports whether the query has nothing to look up.
func (q IntelligenceQuery) IsEmpty() bool {
	return len(q.Files) == 0 && len(q.Symbols) == 0
}

// CodeWarning is a source-level anti-pattern found by a scanner.
type CodeWarning struct {
	File     string
	Line     int
	Rule     string
	Message  string
	Severity AntiPatternSeverity
}

// Location formats file:line.
func (w CodeWarning) Location() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d", w.File, w.Line)
	}
	return w.File
}
