// Package antipattern detects behavioural anti-patterns of the agent loop from
// the per-iteration telemetry history.
//
// A Detector keeps an append-only history and a persistence counter per kind.
// Every Detect/Evaluate call advances the counters: a kind found in this call
// is incremented, a kind not found is reset.
package antipattern

import (
	"steer/internal/logging"
	"steer/internal/types"
)

// repeatingErrorsWindow is the number of trailing iterations scanned for repeating errors.
const repeatingErrorsWindow = 5

// Detector evaluates the seven history-based heuristics.
// It is not safe for concurrent use.
type Detector struct {
	cfg         Config
	history     []types.IterationSummary
	persistence map[types.AntiPatternKind]int
	fromHistory map[types.AntiPatternKind]bool
}

// NewDetector creates a detector with cfg (zero values take defaults).
func NewDetector(cfg Config) *Detector {
	logging.DetectorDebug("Creating Detector")
	return &Detector{
		cfg:         cfg.normalized(),
		persistence: make(map[types.AntiPatternKind]int),
		fromHistory: make(map[types.AntiPatternKind]bool),
	}
}

// Config returns the effective thresholds.
func (d *Detector) Config() Config {
	return d.cfg
}

// Record appends one iteration to the history.
func (d *Detector) Record(it types.IterationSummary) {
	d.history = append(d.history, it.Clone())
	logging.DetectorDebug("Recorded iteration %d: files=%d committed=%v tests=%v lint=%v task=%q",
		it.Iteration, len(it.FilesModified), it.Committed, it.TestsRun, it.LintRun, it.TaskID)
}

// History returns a copy of the recorded iterations, oldest first.
func (d *Detector) History() []types.IterationSummary {
	out := make([]types.IterationSummary, len(d.history))
	for i, it := range d.history {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of recorded iterations.
func (d *Detector) Len() int {
	return len(d.history)
}

// Persistence returns the consecutive-detection count for kind (0 when not active).
func (d *Detector) Persistence(kind types.AntiPatternKind) int {
	return d.persistence[kind]
}

// Reset clears history and persistence.
func (d *Detector) Reset() {
	d.history = nil
	d.persistence = make(map[types.AntiPatternKind]int)
	d.fromHistory = make(map[types.AntiPatternKind]bool)
}

// FromHistory reports whether the last Detect/Evaluate call produced kind
// from the history checks rather than from the merged snapshot findings.
func (d *Detector) FromHistory(kind types.AntiPatternKind) bool {
	return d.fromHistory[kind]
}

// Detect runs the history checks and advances persistence counters.
func (d *Detector) Detect() []types.AntiPattern {
	return d.Evaluate(nil)
}

// Evaluate runs the history checks, merges extra snapshot findings whose kind
// the history did not already produce, and advances persistence for every kind.
func (d *Detector) Evaluate(extra []types.AntiPattern) []types.AntiPattern {
	timer := logging.StartTimer(logging.CategoryDetector, "Evaluate")
	defer timer.Stop()

	found := d.runChecks()

	seen := make(map[types.AntiPatternKind]bool, len(found))
	d.fromHistory = make(map[types.AntiPatternKind]bool, len(found))
	for _, p := range found {
		seen[p.Kind] = true
		d.fromHistory[p.Kind] = true
	}
	for _, p := range extra {
		if seen[p.Kind] {
			continue
		}
		seen[p.Kind] = true
		found = append(found, p.Clone())
	}

	for _, kind := range types.AllAntiPatternKinds() {
		if !seen[kind] {
			if prev, ok := d.persistence[kind]; ok {
				logging.DetectorDebug("Pattern %s cleared after %d detections", kind, prev)
			}
			delete(d.persistence, kind)
		}
	}
	for i := range found {
		kind := found[i].Kind
		d.persistence[kind]++
		found[i].PersistenceCount = d.persistence[kind]
		logging.Detector("Detected %s (severity=%s, persistence=%d)",
			kind, found[i].Severity, found[i].PersistenceCount)
	}

	return found
}

func (d *Detector) runChecks() []types.AntiPattern {
	if len(d.history) == 0 {
		return nil
	}
	checks := []func() (types.AntiPattern, bool){
		d.checkEditWithoutCommit,
		d.checkTestsNotRun,
		d.checkLintNotRun,
		d.checkTaskOscillation,
		d.checkRepeatingErrors,
		d.checkFileChurn,
		d.checkScopeCreep,
	}
	var found []types.AntiPattern
	for _, check := range checks {
		if p, ok := check(); ok {
			found = append(found, p)
		}
	}
	return found
}

// window returns the trailing n iterations (fewer when history is shorter).
func (d *Detector) window(n int) []types.IterationSummary {
	if n <= 0 {
		return nil
	}
	if len(d.history) <= n {
		return d.history
	}
	return d.history[len(d.history)-n:]
}

// nextPersistence is the count kind will reach if found in the current pass.
func (d *Detector) nextPersistence(kind types.AntiPatternKind) int {
	return d.persistence[kind] + 1
}
