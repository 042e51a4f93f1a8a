package prompt

import (
	"fmt"
	"strings"

	"steer/internal/types"
)

// Section builders are pure: each renders one context value to markdown and
// returns "" when there is nothing to show, so the section disappears entirely.

const (
	maxGateMessages  = 3
	maxIntelItems    = 10
	maxCodeWarnings  = 20
	maxListedFiles   = 8
	maxAttemptErrors = 3
)

// RenderSections renders every marker's section for ctx.
func RenderSections(ctx types.PromptContext) map[Marker]string {
	return map[Marker]string{
		MarkerTask:               RenderTask(ctx.CurrentTask),
		MarkerErrors:             RenderErrors(ctx.Errors),
		MarkerQuality:            RenderQuality(ctx.Quality),
		MarkerSessionStats:       RenderSessionStats(ctx.Stats),
		MarkerAttemptHistory:     RenderAttempts(ctx.Attempts),
		MarkerAntiPatterns:       RenderAntiPatterns(ctx.AntiPatterns),
		MarkerHistoricalGuidance: RenderGuidance(ctx.Guidance),
		MarkerCodeIntelligence:   RenderCodeIntelligence(ctx.Intelligence),
		MarkerLanguageRules:      RenderLanguageRules(ctx.Language, ctx.LanguageRules),
		MarkerCodeWarnings:       RenderCodeWarnings(ctx.CodeWarnings),
		MarkerCustom:             RenderCustom(ctx.Custom),
	}
}

// RenderTask renders the current task; nil renders nothing.
func RenderTask(task *types.CurrentTaskContext) string {
	if task == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Current Task\n\n")
	if task.Title != "" {
		fmt.Fprintf(&sb, "**Task %s**: %s\n\n", task.ID, task.Title)
	} else {
		fmt.Fprintf(&sb, "**Task %s**\n\n", task.ID)
	}
	fmt.Fprintf(&sb, "- Phase: %s\n", task.Phase)
	fmt.Fprintf(&sb, "- Progress: %d%%\n", task.CompletionPercent)
	if task.AttemptCount > 0 {
		fmt.Fprintf(&sb, "- Attempts so far: %d\n", task.AttemptCount)
	}
	if len(task.ModifiedFiles) > 0 {
		fmt.Fprintf(&sb, "- Modified files: %s\n", joinLimited(task.ModifiedFiles, maxListedFiles))
	}
	if len(task.Dependencies) > 0 {
		fmt.Fprintf(&sb, "- Depends on: %s\n", strings.Join(task.Dependencies, ", "))
	}
	if len(task.Blockers) > 0 {
		sb.WriteString("\n**Blockers:**\n")
		for _, b := range task.Blockers {
			fmt.Fprintf(&sb, "- %s\n", b)
		}
	}
	if g := task.Phase.Guidance(); g != "" {
		fmt.Fprintf(&sb, "\nFocus: %s\n", g)
	}
	return sb.String()
}

// RenderErrors renders errors in the order given (most frequent first when
// they come from the aggregator).
func RenderErrors(errs []types.ErrorContext) string {
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Errors to Fix\n\n")
	for i, e := range errs {
		fmt.Fprintf(&sb, "%d. **[%s] %s**", i+1, e.Severity, e.Code)
		if e.OccurrenceCount > 1 {
			fmt.Fprintf(&sb, " (x%d)", e.OccurrenceCount)
		}
		fmt.Fprintf(&sb, ": %s\n", oneLine(e.Message))
		if loc := e.Location(); loc != "" {
			fmt.Fprintf(&sb, "   - Location: `%s`\n", loc)
		}
		if e.SuggestedFix != "" {
			fmt.Fprintf(&sb, "   - Suggested fix: %s\n", oneLine(e.SuggestedFix))
		}
	}
	return sb.String()
}

// RenderQuality renders gate results. A never-checked status renders nothing.
func RenderQuality(status types.QualityGateStatus) string {
	if !status.IsChecked() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Quality Gates\n\n")
	for _, g := range types.AllGates() {
		r := status.Result(g)
		if r.Passed {
			fmt.Fprintf(&sb, "- [PASS] %s\n", g)
			continue
		}
		fmt.Fprintf(&sb, "- [FAIL] %s\n", g)
		for i, msg := range r.Messages {
			if i == maxGateMessages {
				fmt.Fprintf(&sb, "  - ...and %d more\n", len(r.Messages)-maxGateMessages)
				break
			}
			fmt.Fprintf(&sb, "  - %s\n", oneLine(msg))
		}
	}
	if status.AllPassed() {
		sb.WriteString("\nAll quality gates pass.\n")
	} else {
		sb.WriteString("\nFix failing gates before adding new functionality.\n")
	}
	return sb.String()
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(items[:limit], ", "), len(items)-limit)
}

// oneLine flattens multi-line text so it stays inside a list item.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
