package antipattern

import (
	"fmt"
	"sort"
	"strings"

	"steer/internal/types"
)

// checkEditWithoutCommit counts the run of consecutive modifying iterations
// since the last commit, newest first. An iteration without modifications ends the run.
// The walk is not bounded by the threshold so the run length can reach the
// fixed High cutoff of 5 even when the threshold is lower.
func (d *Detector) checkEditWithoutCommit() (types.AntiPattern, bool) {
	threshold := d.cfg.EditWithoutCommit
	count := 0
	var files []string
	for i := len(d.history) - 1; i >= 0; i-- {
		it := d.history[i]
		if it.Committed || !it.HasModifications() {
			break
		}
		count++
		files = appendUniqueAll(files, it.FilesModified)
	}
	if count < threshold {
		return types.AntiPattern{}, false
	}

	p := types.NewAntiPattern(types.KindEditWithoutCommit,
		fmt.Sprintf("%d consecutive iterations modified files without a commit.", count)).
		WithEvidence(fmt.Sprintf("%d iterations since last commit", count)).
		WithEvidence(files...)
	if count >= 5 {
		p = p.WithSeverity(types.SeverityHigh)
	}
	return p, true
}

func (d *Detector) checkTestsNotRun() (types.AntiPattern, bool) {
	threshold := d.cfg.TestsNotRun
	if !d.flagMissing(threshold, func(it types.IterationSummary) bool { return it.TestsRun }) {
		return types.AntiPattern{}, false
	}
	p := types.NewAntiPattern(types.KindTestsNotRun,
		fmt.Sprintf("Tests have not been run in the last %d iterations.", threshold)).
		WithEvidence(iterationRange(d.window(threshold)))
	if d.nextPersistence(types.KindTestsNotRun) >= 3 {
		p = p.WithSeverity(types.SeverityHigh)
	}
	return p, true
}

func (d *Detector) checkLintNotRun() (types.AntiPattern, bool) {
	threshold := d.cfg.LintNotRun
	if !d.flagMissing(threshold, func(it types.IterationSummary) bool { return it.LintRun }) {
		return types.AntiPattern{}, false
	}
	p := types.NewAntiPattern(types.KindLintNotRun,
		fmt.Sprintf("The linter has not been run in the last %d iterations.", threshold)).
		WithEvidence(iterationRange(d.window(threshold))).
		WithSeverity(types.SeverityLow)
	return p, true
}

// flagMissing reports whether a full trailing window of size n has no iteration with flag set.
func (d *Detector) flagMissing(n int, flag func(types.IterationSummary) bool) bool {
	if len(d.history) < n {
		return false
	}
	for _, it := range d.window(n) {
		if flag(it) {
			return false
		}
	}
	return true
}

// checkTaskOscillation fires on frequent switching among a small set of tasks.
// Forward progress through many tasks is not oscillation.
func (d *Detector) checkTaskOscillation() (types.AntiPattern, bool) {
	threshold := d.cfg.TaskOscillation
	var sequence []string
	for _, it := range d.window(threshold + 2) {
		if it.HasTask() {
			sequence = append(sequence, it.TaskID)
		}
	}
	if len(sequence) < 2 {
		return types.AntiPattern{}, false
	}

	switches := 0
	distinct := map[string]bool{sequence[0]: true}
	for i := 1; i < len(sequence); i++ {
		distinct[sequence[i]] = true
		if sequence[i] != sequence[i-1] {
			switches++
		}
	}
	if switches < threshold || len(distinct) > 3 {
		return types.AntiPattern{}, false
	}

	p := types.NewAntiPattern(types.KindTaskOscillation,
		fmt.Sprintf("Switched tasks %d times among %d tasks in the last %d iterations.",
			switches, len(distinct), threshold+2)).
		WithEvidence("Task sequence: " + strings.Join(sequence, " -> "))
	return p, true
}

// checkRepeatingErrors reports literal error strings seen at least
// ErrorRepetition times in the trailing window.
func (d *Detector) checkRepeatingErrors() (types.AntiPattern, bool) {
	threshold := d.cfg.ErrorRepetition
	counts := make(map[string]int)
	var order []string
	for _, it := range d.window(repeatingErrorsWindow) {
		for _, e := range it.Errors {
			if e == "" {
				continue
			}
			if counts[e] == 0 {
				order = append(order, e)
			}
			counts[e]++
		}
	}

	var repeating []string
	maxCount := 0
	for _, e := range order {
		if counts[e] >= threshold {
			repeating = append(repeating, e)
			if counts[e] > maxCount {
				maxCount = counts[e]
			}
		}
	}
	if len(repeating) == 0 {
		return types.AntiPattern{}, false
	}
	sort.SliceStable(repeating, func(i, j int) bool {
		return counts[repeating[i]] > counts[repeating[j]]
	})

	evidence := make([]string, 0, len(repeating))
	for _, e := range repeating {
		evidence = append(evidence, fmt.Sprintf("%s (x%d)", truncate(e, 120), counts[e]))
	}
	p := types.NewAntiPattern(types.KindRepeatingErrors,
		fmt.Sprintf("%d error(s) repeated across the last %d iterations.", len(repeating), repeatingErrorsWindow)).
		WithEvidence(evidence...)
	if len(repeating) >= 3 || maxCount >= 4 {
		p = p.WithSeverity(types.SeverityHigh)
	} else {
		p = p.WithSeverity(types.SeverityMedium)
	}
	return p, true
}

// checkFileChurn fires when one to three files are modified repeatedly.
// More churning files than that is left to scope creep.
func (d *Detector) checkFileChurn() (types.AntiPattern, bool) {
	threshold := d.cfg.FileChurn
	minCount := threshold / 2
	if minCount < 3 {
		minCount = 3
	}

	counts := make(map[string]int)
	var order []string
	for _, it := range d.window(threshold) {
		for _, f := range uniqueStrings(it.FilesModified) {
			if counts[f] == 0 {
				order = append(order, f)
			}
			counts[f]++
		}
	}

	var churning []string
	for _, f := range order {
		if counts[f] >= minCount {
			churning = append(churning, f)
		}
	}
	if len(churning) == 0 || len(churning) > 3 {
		return types.AntiPattern{}, false
	}
	sort.SliceStable(churning, func(i, j int) bool {
		return counts[churning[i]] > counts[churning[j]]
	})

	evidence := make([]string, 0, len(churning))
	for _, f := range churning {
		evidence = append(evidence, fmt.Sprintf("%s modified %d times", f, counts[f]))
	}
	p := types.NewAntiPattern(types.KindFileChurn,
		fmt.Sprintf("%d file(s) modified repeatedly in the last %d iterations.", len(churning), threshold)).
		WithEvidence(evidence...)
	return p, true
}

// checkScopeCreep applies DetectScopeCreep to the files touched in the churn window.
func (d *Detector) checkScopeCreep() (types.AntiPattern, bool) {
	var files []string
	for _, it := range d.window(d.cfg.FileChurn) {
		files = appendUniqueAll(files, it.FilesModified)
	}
	return DetectScopeCreep(files, d.cfg.ScopeCreep)
}

func iterationRange(window []types.IterationSummary) string {
	if len(window) == 0 {
		return ""
	}
	first, last := window[0].Iteration, window[len(window)-1].Iteration
	if first == last {
		return fmt.Sprintf("iteration %d", first)
	}
	return fmt.Sprintf("iterations %d-%d", first, last)
}

func appendUniqueAll(dst, src []string) []string {
	for _, s := range src {
		if s == "" || contains(dst, s) {
			continue
		}
		dst = append(dst, s)
	}
	return dst
}

func uniqueStrings(s []string) []string {
	return appendUniqueAll(nil, s)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
