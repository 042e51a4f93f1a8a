package types

// PromptContext is the snapshot rendered into one prompt. It is built fresh for
// every render and not mutated afterwards.
type PromptContext struct {
	CurrentTask  *CurrentTaskContext
	Errors       []ErrorContext
	Quality      QualityGateStatus
	Stats        SessionStats
	Attempts     []AttemptSummary
	AntiPatterns []AntiPattern
	Intelligence CodeIntelligence

	Guidance      []string
	Language      string
	LanguageRules []string
	CodeWarnings  []CodeWarning
	Custom        string
}

// HasTask reports whether a current task is set.
func (c PromptContext) HasTask() bool {
	return c.CurrentTask != nil
}

// HasErrors reports whether any error is present.
func (c PromptContext) HasErrors() bool {
	return len(c.Errors) > 0
}

// HighSeverityPatterns returns the anti-patterns with High severity.
func (c PromptContext) HighSeverityPatterns() []AntiPattern {
	var out []AntiPattern
	for _, p := range c.AntiPatterns {
		if p.Severity == SeverityHigh {
			out = append(out, p)
		}
	}
	return out
}

// AntiPatternKinds lists the kinds present, in order.
func (c PromptContext) AntiPatternKinds() []AntiPatternKind {
	kinds := make([]AntiPatternKind, 0, len(c.AntiPatterns))
	for _, p := range c.AntiPatterns {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}
