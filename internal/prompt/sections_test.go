package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"steer/internal/types"
)

func TestRenderEmptySectionsAreOmitted(t *testing.T) {
	sections := RenderSections(types.PromptContext{Intelligence: types.Unavailable()})
	for m, text := range sections {
		assert.Empty(t, text, "marker %s rendered for empty context", m)
	}
}

func TestRenderTask(t *testing.T) {
	task := types.NewCurrentTaskContext("2.1", "Parse config").
		WithPhase(types.PhaseTesting).
		WithCompletion(60).
		WithBlocker("fixture missing").
		WithDependency("1.4")

	out := RenderTask(&task)
	assert.True(t, strings.HasPrefix(out, "## Current Task\n"))
	assert.Contains(t, out, "**Task 2.1**: Parse config")
	assert.Contains(t, out, "- Phase: Testing")
	assert.Contains(t, out, "- Progress: 60%")
	assert.Contains(t, out, "- Depends on: 1.4")
	assert.Contains(t, out, "**Blockers:**\n- fixture missing")
	assert.Contains(t, out, types.PhaseTesting.Guidance())
}

func TestRenderErrors(t *testing.T) {
	errs := []types.ErrorContext{
		types.NewErrorContext("E0308", "mismatched\ntypes", types.SeverityError).
			WithOccurrences(3).WithLocation("src/lib.rs", 7).WithSuggestedFix("cast it"),
		types.NewErrorContext("W1", "unused", types.SeverityWarning),
	}
	out := RenderErrors(errs)
	assert.Contains(t, out, "## Errors to Fix")
	assert.Contains(t, out, "1. **[error] E0308** (x3): mismatched types")
	assert.Contains(t, out, "`src/lib.rs:7`")
	assert.Contains(t, out, "Suggested fix: cast it")
	assert.Contains(t, out, "2. **[warning] W1**: unused")
}

func TestRenderQuality(t *testing.T) {
	assert.Empty(t, RenderQuality(types.NewQualityGateStatus()), "never checked renders nothing")

	now := time.Now()
	status := types.NewQualityGateStatus()
	for _, g := range types.AllGates() {
		status = status.WithResult(g, types.GatePassed(), now)
	}
	assert.Contains(t, RenderQuality(status), "All quality gates pass.")

	status = status.WithResult(types.GateTests, types.GateFailed("a", "b", "c", "d"), now)
	out := RenderQuality(status)
	assert.Contains(t, out, "- [FAIL] Tests")
	assert.Contains(t, out, "  - c\n")
	assert.NotContains(t, out, "  - d\n")
	assert.Contains(t, out, "...and 1 more")
	assert.Contains(t, out, "- [PASS] Lint")
}

func TestRenderSessionStats(t *testing.T) {
	critical := types.SessionStats{IterationCount: 9, IterationBudget: 10, CommitCount: 3}
	out := RenderSessionStats(critical)
	assert.Contains(t, out, "## Session Progress")
	assert.Contains(t, out, "9 of 10 (90% of budget, critical)")
	assert.Contains(t, out, "**Warning:** 90%")

	stalled := types.SessionStats{IterationCount: 8, CommitCount: 1, TestCountDelta: -2}
	out = RenderSessionStats(stalled)
	assert.Contains(t, out, "- Iteration: 8\n")
	assert.Contains(t, out, "Test count change: -2")
	assert.Contains(t, out, "Progress is stalling")
	assert.NotContains(t, out, "Warning")
}

func TestRenderAttempts(t *testing.T) {
	attempts := []types.AttemptSummary{
		types.NewAttemptSummary(1, types.OutcomeCompilationError).
			WithApproach("add trait bound").
			WithError("e1").WithError("e2").WithError("e3").WithError("e4").
			WithDuration(90 * time.Second),
		types.NewAttemptSummary(2, types.OutcomeSuccess).WithNotes("worked"),
	}
	out := RenderAttempts(attempts)
	assert.Contains(t, out, "### Attempt 1: Compilation Error")
	assert.Contains(t, out, "- Errors: e1; e2; e3 (+1 more)")
	assert.Contains(t, out, "- Duration: 1m30s")
	assert.Contains(t, out, "### Attempt 2: Success")
	assert.Contains(t, out, "1 of 2 attempts failed")
}

func TestRenderAntiPatterns(t *testing.T) {
	p := types.NewAntiPattern(types.KindEditWithoutCommit, "3 iterations without commit.").
		WithEvidence("src/a.rs").
		WithSeverity(types.SeverityHigh).
		WithPersistence(2)
	out := RenderAntiPatterns([]types.AntiPattern{p})
	assert.Contains(t, out, "## Detected Anti-Patterns")
	assert.Contains(t, out, "### [HIGH] Editing Without Committing (detected 2 times in a row)")
	assert.Contains(t, out, "- src/a.rs")
	assert.Contains(t, out, "**Remediation:** "+types.KindEditWithoutCommit.DefaultRemediation())
}

func TestRenderCodeIntelligence(t *testing.T) {
	assert.Empty(t, RenderCodeIntelligence(types.Unavailable()))
	assert.Empty(t, RenderCodeIntelligence(types.CodeIntelligence{IsAvailable: true}), "available but empty")

	ci := types.CodeIntelligence{
		IsAvailable: true,
		Source:      "mcp",
		CallGraph:   []types.CallGraphNode{{Symbol: "parse", File: "src/p.rs", Line: 3, Callers: []string{"main"}}},
		References:  []types.SymbolReference{{Symbol: "parse", File: "src/main.rs", Line: 9, Kind: "call"}},
		Dependencies: []types.ModuleDependency{
			{From: "cli", To: "core", Circular: true},
		},
		Compliance: []types.ConstraintResult{{Constraint: "no-io-in-core", Passed: false, Violations: []string{"core uses fs"}}},
	}
	out := RenderCodeIntelligence(ci)
	assert.Contains(t, out, "## Code Intelligence")
	assert.Contains(t, out, "- `parse` (src/p.rs:3)")
	assert.Contains(t, out, "called by: main")
	assert.Contains(t, out, "- `parse` call at `src/main.rs:9`")
	assert.Contains(t, out, "- cli -> core (circular)")
	assert.Contains(t, out, "- [FAIL] no-io-in-core")
}

func TestRenderCodeWarningsCapped(t *testing.T) {
	var warnings []types.CodeWarning
	for i := 0; i < 25; i++ {
		warnings = append(warnings, types.CodeWarning{File: "a.go", Line: i + 1, Rule: "ignored-error", Message: "m"})
	}
	out := RenderCodeWarnings(warnings)
	assert.Contains(t, out, "## Code Anti-Pattern Warnings")
	assert.Contains(t, out, "`a.go:20`")
	assert.NotContains(t, out, "`a.go:21`")
	assert.Contains(t, out, "...and 5 more")
}

func TestRenderGuidanceAndRules(t *testing.T) {
	assert.Contains(t, RenderGuidance([]string{"use anyhow"}), "## Historical Guidance\n\n- use anyhow")
	assert.Contains(t, RenderLanguageRules("rust", []string{"no unwrap"}), "## Language Rules")
	assert.Empty(t, RenderLanguageRules("rust", nil))
	assert.Equal(t, "hi", RenderCustom("  hi \n"))
}
