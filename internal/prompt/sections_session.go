package prompt

import (
	"fmt"
	"strings"

	"steer/internal/types"
)

// RenderSessionStats renders session progress. Zero-value stats render nothing.
func RenderSessionStats(stats types.SessionStats) string {
	if isZeroStats(stats) {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Session Progress\n\n")

	if percent, ok := stats.BudgetUsedPercent(); ok {
		fmt.Fprintf(&sb, "- Iteration: %d of %d (%d%% of budget, %s)\n",
			stats.IterationCount, stats.IterationBudget, percent, stats.BudgetTier())
	} else {
		fmt.Fprintf(&sb, "- Iteration: %d\n", stats.IterationCount)
	}
	fmt.Fprintf(&sb, "- Commits: %d\n", stats.CommitCount)
	if stats.LinesChanged > 0 {
		fmt.Fprintf(&sb, "- Lines changed: %d\n", stats.LinesChanged)
	}
	if stats.TasksCompleted > 0 || stats.TasksBlocked > 0 {
		fmt.Fprintf(&sb, "- Tasks: %d completed, %d blocked\n", stats.TasksCompleted, stats.TasksBlocked)
	}
	if stats.TestCountDelta != 0 {
		fmt.Fprintf(&sb, "- Test count change: %+d\n", stats.TestCountDelta)
	}
	if n := len(stats.FilesModified); n > 0 {
		fmt.Fprintf(&sb, "- Files modified: %d\n", n)
	}
	if stats.StagnationCount > 0 {
		fmt.Fprintf(&sb, "- Iterations without progress: %d\n", stats.StagnationCount)
	}

	switch stats.BudgetTier() {
	case types.BudgetCritical:
		percent, _ := stats.BudgetUsedPercent()
		fmt.Fprintf(&sb, "\n**Warning:** %d%% of the iteration budget is used. Finish and commit the current task now.\n", percent)
	case types.BudgetHigh:
		sb.WriteString("\nBudget is running low. Avoid starting new work.\n")
	case types.BudgetUnbounded, types.BudgetHealthy, types.BudgetModerate:
	}
	if !stats.IsProgressing() {
		sb.WriteString("\nProgress is stalling: fewer than one commit every three iterations.\n")
	}
	return sb.String()
}

func isZeroStats(s types.SessionStats) bool {
	return s.IterationCount == 0 && s.CommitCount == 0 && s.LinesChanged == 0 &&
		s.TasksCompleted == 0 && s.TasksBlocked == 0 && s.StagnationCount == 0 &&
		s.IterationBudget == 0 && len(s.FilesModified) == 0 && s.TestCountDelta == 0
}

// RenderAttempts renders previous attempts at the current task, oldest first.
func RenderAttempts(attempts []types.AttemptSummary) string {
	if len(attempts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Previous Attempts\n\n")
	failures := 0
	for _, a := range attempts {
		if a.Outcome.IsFailure() {
			failures++
		}
		fmt.Fprintf(&sb, "### Attempt %d: %s\n", a.Number, a.Outcome)
		if a.Approach != "" {
			fmt.Fprintf(&sb, "- Approach: %s\n", oneLine(a.Approach))
		}
		if len(a.Errors) > 0 {
			errs := a.Errors
			suffix := ""
			if len(errs) > maxAttemptErrors {
				suffix = fmt.Sprintf(" (+%d more)", len(errs)-maxAttemptErrors)
				errs = errs[:maxAttemptErrors]
			}
			flat := make([]string, len(errs))
			for i, e := range errs {
				flat[i] = oneLine(e)
			}
			fmt.Fprintf(&sb, "- Errors: %s%s\n", strings.Join(flat, "; "), suffix)
		}
		if len(a.FilesModified) > 0 {
			fmt.Fprintf(&sb, "- Files: %s\n", joinLimited(a.FilesModified, maxListedFiles))
		}
		if a.Duration > 0 {
			fmt.Fprintf(&sb, "- Duration: %s\n", a.Duration)
		}
		if a.Notes != "" {
			fmt.Fprintf(&sb, "- Notes: %s\n", oneLine(a.Notes))
		}
		sb.WriteString("\n")
	}
	if failures > 0 {
		fmt.Fprintf(&sb, "%d of %d attempts failed. Do not repeat an approach that already failed.\n", failures, len(attempts))
	}
	return sb.String()
}

// RenderGuidance renders free-text lessons carried between iterations.
func RenderGuidance(guidance []string) string {
	if len(guidance) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Historical Guidance\n\n")
	for _, g := range guidance {
		fmt.Fprintf(&sb, "- %s\n", oneLine(g))
	}
	return sb.String()
}

// RenderCustom returns caller-supplied text as-is, trimmed.
func RenderCustom(text string) string {
	return strings.TrimSpace(text)
}
