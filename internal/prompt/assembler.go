package prompt

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"steer/internal/antipattern"
	"steer/internal/feedback"
	"steer/internal/logging"
	"steer/internal/types"
)

// IntelligenceSource supplies code-graph data for a render. Implementations
// must fail soft: on any problem they return types.Unavailable().
type IntelligenceSource interface {
	Query(ctx context.Context, q types.IntelligenceQuery) types.CodeIntelligence
}

// Limits bound how much of each kind of state reaches a prompt.
type Limits struct {
	MaxErrors           int `yaml:"max_errors" json:"max_errors"`
	MaxAttempts         int `yaml:"max_attempts" json:"max_attempts"`
	MaxAntiPatterns     int `yaml:"max_anti_patterns" json:"max_anti_patterns"`
	MaxGuidance         int `yaml:"max_guidance" json:"max_guidance"`
	ScopeCreepThreshold int `yaml:"scope_creep_threshold" json:"scope_creep_threshold"`
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxErrors:           10,
		MaxAttempts:         5,
		MaxAntiPatterns:     5,
		MaxGuidance:         10,
		ScopeCreepThreshold: 5,
	}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxErrors <= 0 {
		l.MaxErrors = d.MaxErrors
	}
	if l.MaxAttempts <= 0 {
		l.MaxAttempts = d.MaxAttempts
	}
	if l.MaxAntiPatterns <= 0 {
		l.MaxAntiPatterns = d.MaxAntiPatterns
	}
	if l.MaxGuidance <= 0 {
		l.MaxGuidance = d.MaxGuidance
	}
	if l.ScopeCreepThreshold <= 0 {
		l.ScopeCreepThreshold = d.ScopeCreepThreshold
	}
	return l
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLimits sets the render limits.
func WithLimits(l Limits) AssemblerOption {
	return func(a *Assembler) {
		a.limits = l.normalized()
	}
}

// WithDetectorConfig sets the anti-pattern thresholds.
func WithDetectorConfig(cfg antipattern.Config) AssemblerOption {
	return func(a *Assembler) {
		a.detectorCfg = cfg
	}
}

// WithIntelligence injects a code-intelligence source.
func WithIntelligence(src IntelligenceSource) AssemblerOption {
	return func(a *Assembler) {
		a.intel = src
	}
}

// WithLanguage sets the project language used for language rules.
func WithLanguage(language string) AssemblerOption {
	return func(a *Assembler) {
		a.language = language
	}
}

// WithClock overrides time.Now for quality-gate timestamps.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// Assembler owns one session's mutable state and renders it into prompts.
// One Assembler serves one session and is not safe for concurrent use.
type Assembler struct {
	registry    *Registry
	limits      Limits
	detectorCfg antipattern.Config
	intel       IntelligenceSource
	now         func() time.Time

	sessionID       string
	detector        *antipattern.Detector
	errors          *feedback.Aggregator
	currentTask     *types.CurrentTaskContext
	stats           types.SessionStats
	quality         types.QualityGateStatus
	qualityFailures int
	attempts        []types.AttemptSummary
	guidance        []string
	lastDetected    []types.AntiPattern
	language        string
	custom          string
	codeWarnings    []types.CodeWarning
}

// NewAssembler creates an assembler rendering from registry. A nil registry
// uses DefaultRegistry.
func NewAssembler(registry *Registry, opts ...AssemblerOption) *Assembler {
	if registry == nil {
		registry = DefaultRegistry()
	}
	a := &Assembler{
		registry: registry,
		limits:   DefaultLimits(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.resetState()
	logging.Assembler("Assembler created: session=%s modes=%v", a.sessionID, registry.Modes())
	return a
}

func (a *Assembler) resetState() {
	a.sessionID = uuid.New().String()
	a.detector = antipattern.NewDetector(a.detectorCfg)
	a.errors = feedback.NewAggregator()
	a.currentTask = nil
	a.stats = types.SessionStats{}
	a.quality = types.NewQualityGateStatus()
	a.qualityFailures = 0
	a.attempts = nil
	a.guidance = nil
	a.lastDetected = nil
	a.custom = ""
	a.codeWarnings = nil
}

// =============================================================================
// TASK
// =============================================================================

// SetCurrentTask replaces the current task. A different task ID clears the
// attempt history; the same ID keeps it.
func (a *Assembler) SetCurrentTask(task types.CurrentTaskContext) {
	if a.currentTask == nil || a.currentTask.ID != task.ID {
		if len(a.attempts) > 0 {
			logging.AssemblerDebug("Task changed to %s, clearing %d attempts", task.ID, len(a.attempts))
		}
		a.attempts = nil
	}
	t := task.Clone()
	a.currentTask = &t
}

// ClearCurrentTask removes the current task and its attempts.
func (a *Assembler) ClearCurrentTask() {
	a.currentTask = nil
	a.attempts = nil
}

// UpdateTaskPhase sets the phase of the current task, if any.
func (a *Assembler) UpdateTaskPhase(phase types.TaskPhase) {
	if a.currentTask == nil {
		return
	}
	t := a.currentTask.WithPhase(phase)
	a.currentTask = &t
}

// UpdateTaskCompletion sets the completion percentage of the current task.
func (a *Assembler) UpdateTaskCompletion(percent int) {
	if a.currentTask == nil {
		return
	}
	t := a.currentTask.WithCompletion(percent)
	a.currentTask = &t
}

// AddTaskModifiedFile records a file touched by the current task.
func (a *Assembler) AddTaskModifiedFile(path string) {
	if a.currentTask == nil {
		return
	}
	t := a.currentTask.WithModifiedFile(path)
	a.currentTask = &t
}

// AddTaskBlocker records a blocker on the current task.
func (a *Assembler) AddTaskBlocker(blocker string) {
	if a.currentTask == nil {
		return
	}
	t := a.currentTask.WithBlocker(blocker)
	a.currentTask = &t
}

// CurrentTask returns a copy of the current task.
func (a *Assembler) CurrentTask() (types.CurrentTaskContext, bool) {
	if a.currentTask == nil {
		return types.CurrentTaskContext{}, false
	}
	return a.currentTask.Clone(), true
}

// =============================================================================
// SESSION STATS
// =============================================================================

// SetSessionStats replaces the session statistics.
func (a *Assembler) SetSessionStats(stats types.SessionStats) {
	a.stats = stats.Clone()
}

// UpdateSessionStats applies fn to the session statistics in place.
func (a *Assembler) UpdateSessionStats(fn func(*types.SessionStats)) {
	if fn != nil {
		fn(&a.stats)
	}
}

// SessionStats returns a copy of the session statistics.
func (a *Assembler) SessionStats() types.SessionStats {
	return a.stats.Clone()
}

// =============================================================================
// ERRORS
// =============================================================================

// AddError feeds one error to the aggregator.
func (a *Assembler) AddError(err types.ErrorContext) {
	a.errors.Add(err)
}

// AddErrors feeds errors to the aggregator in order.
func (a *Assembler) AddErrors(errs []types.ErrorContext) {
	a.errors.AddAll(errs)
}

// ErrorCount returns the number of distinct error codes.
func (a *Assembler) ErrorCount() int {
	return a.errors.Len()
}

// =============================================================================
// QUALITY GATES
// =============================================================================

// UpdateQualityGate stores one gate result. A failure extends the
// consecutive-failure streak; a pass that leaves no failing gate ends it.
func (a *Assembler) UpdateQualityGate(gate types.Gate, result types.GateResult) {
	a.quality = a.quality.WithResult(gate, result, a.now())
	switch {
	case !result.Passed:
		a.qualityFailures++
		logging.AssemblerDebug("Gate %s failed (streak=%d)", gate, a.qualityFailures)
	case !a.quality.HasFailures():
		a.qualityFailures = 0
	}
}

// SetQualityStatus replaces the whole status as one check: failing extends
// the streak once, passing resets it.
func (a *Assembler) SetQualityStatus(status types.QualityGateStatus) {
	a.quality = status.Clone()
	if a.quality.HasFailures() {
		a.qualityFailures++
	} else {
		a.qualityFailures = 0
	}
}

// ConsecutiveQualityFailures returns the current failure streak.
func (a *Assembler) ConsecutiveQualityFailures() int {
	return a.qualityFailures
}

// QualityStatus returns a copy of the gate status.
func (a *Assembler) QualityStatus() types.QualityGateStatus {
	return a.quality.Clone()
}

// =============================================================================
// ATTEMPTS
// =============================================================================

// RecordAttempt appends an attempt. Number 0 is replaced by the next number.
func (a *Assembler) RecordAttempt(attempt types.AttemptSummary) {
	if attempt.Number <= 0 {
		attempt.Number = len(a.attempts) + 1
	}
	a.attempts = append(a.attempts, attempt.Clone())
	if a.currentTask != nil {
		t := a.currentTask.WithAttemptCount(a.currentTask.AttemptCount + 1)
		a.currentTask = &t
	}
}

// AttemptCount returns the number of attempts at the current task.
func (a *Assembler) AttemptCount() int {
	return len(a.attempts)
}

// =============================================================================
// ITERATIONS AND GUIDANCE
// =============================================================================

// RecordIteration appends iteration telemetry to the detector history.
func (a *Assembler) RecordIteration(it types.IterationSummary) {
	a.detector.Record(it)
}

// IterationHistory returns a copy of the detector history.
func (a *Assembler) IterationHistory() []types.IterationSummary {
	return a.detector.History()
}

// AddHistoricalGuidance stores a lesson once; identical text is ignored.
// Only the most recent MaxGuidance entries are kept.
func (a *Assembler) AddHistoricalGuidance(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, g := range a.guidance {
		if g == text {
			return
		}
	}
	a.guidance = append(a.guidance, text)
	if over := len(a.guidance) - a.limits.MaxGuidance; over > 0 {
		a.guidance = append([]string(nil), a.guidance[over:]...)
	}
}

// Guidance returns a copy of the stored guidance.
func (a *Assembler) Guidance() []string {
	return append([]string(nil), a.guidance...)
}

// =============================================================================
// SUPPLEMENTARY SECTIONS
// =============================================================================

// SetLanguage sets the project language for the language-rules section.
func (a *Assembler) SetLanguage(language string) {
	a.language = language
}

// SetCustomSection sets free text rendered at {{CUSTOM}}.
func (a *Assembler) SetCustomSection(text string) {
	a.custom = text
}

// SetCodeWarnings replaces the scanner findings.
func (a *Assembler) SetCodeWarnings(warnings []types.CodeWarning) {
	a.codeWarnings = append([]types.CodeWarning(nil), warnings...)
}

// SetRegistry swaps the template registry, e.g. after a hot reload.
func (a *Assembler) SetRegistry(r *Registry) {
	if r != nil {
		a.registry = r
	}
}

// Registry returns the template registry in use.
func (a *Assembler) Registry() *Registry {
	return a.registry
}

// SessionID identifies the current session; Reset starts a new one.
func (a *Assembler) SessionID() string {
	return a.sessionID
}

// Limits returns the effective limits.
func (a *Assembler) Limits() Limits {
	return a.limits
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Reset starts a new session. Configuration (registry, limits, thresholds,
// intelligence source, language) is kept.
func (a *Assembler) Reset() {
	old := a.sessionID
	a.resetState()
	logging.Assembler("Session reset: %s -> %s", old, a.sessionID)
}

// ResetIteration clears the error set for a new iteration of the same session.
func (a *Assembler) ResetIteration() {
	a.errors.Reset()
}

// =============================================================================
// DETECTION AND RENDERING
// =============================================================================

// snapshotPatterns runs the stateless checks over current state.
func (a *Assembler) snapshotPatterns() []types.AntiPattern {
	var out []types.AntiPattern
	if p, ok := antipattern.DetectQualityGateIgnoring(a.quality, a.qualityFailures); ok {
		out = append(out, p)
	}
	if p, ok := antipattern.DetectScopeCreep(a.stats.FilesModified, a.limits.ScopeCreepThreshold); ok {
		out = append(out, p)
	}
	return out
}

// DetectAntiPatterns runs the full detection pass (history and snapshot
// checks) and advances persistence counters. The history findings are also
// shown in subsequent renders until the next call.
func (a *Assembler) DetectAntiPatterns() []types.AntiPattern {
	found := a.detector.Evaluate(a.snapshotPatterns())
	a.lastDetected = make([]types.AntiPattern, 0, len(found))
	for _, p := range found {
		// Snapshot findings are recomputed from current state on every render.
		if !a.detector.FromHistory(p.Kind) {
			continue
		}
		a.lastDetected = append(a.lastDetected, p.Clone())
	}
	return found
}

// BuildContext projects the current state into a PromptContext. It does not
// advance anti-pattern persistence.
func (a *Assembler) BuildContext(ctx context.Context) types.PromptContext {
	timer := logging.StartTimer(logging.CategoryContext, "BuildContext")
	defer timer.Stop()

	pc := types.PromptContext{
		Errors:        a.errors.TopN(a.limits.MaxErrors),
		Quality:       a.quality.Clone(),
		Stats:         a.stats.Clone(),
		Attempts:      a.recentAttempts(),
		AntiPatterns:  a.contextPatterns(),
		Intelligence:  a.queryIntelligence(ctx),
		Guidance:      a.Guidance(),
		Language:      a.language,
		LanguageRules: RulesFor(a.language),
		CodeWarnings:  append([]types.CodeWarning(nil), a.codeWarnings...),
		Custom:        a.custom,
	}
	if a.currentTask != nil {
		t := a.currentTask.Clone()
		pc.CurrentTask = &t
	}
	return pc
}

func (a *Assembler) recentAttempts() []types.AttemptSummary {
	start := 0
	if len(a.attempts) > a.limits.MaxAttempts {
		start = len(a.attempts) - a.limits.MaxAttempts
	}
	out := make([]types.AttemptSummary, 0, len(a.attempts)-start)
	for _, at := range a.attempts[start:] {
		out = append(out, at.Clone())
	}
	return out
}

// contextPatterns merges the history findings of the last full detection with
// snapshot checks over current state, most severe first.
func (a *Assembler) contextPatterns() []types.AntiPattern {
	var out []types.AntiPattern
	seen := make(map[types.AntiPatternKind]bool)
	for _, p := range a.lastDetected {
		seen[p.Kind] = true
		out = append(out, p.Clone())
	}
	for _, p := range a.snapshotPatterns() {
		if seen[p.Kind] {
			continue
		}
		seen[p.Kind] = true
		out = append(out, p.WithPersistence(a.detector.Persistence(p.Kind)))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	if len(out) > a.limits.MaxAntiPatterns {
		out = out[:a.limits.MaxAntiPatterns]
	}
	return out
}

func (a *Assembler) queryIntelligence(ctx context.Context) types.CodeIntelligence {
	if a.intel == nil {
		return types.Unavailable()
	}
	q := types.IntelligenceQuery{}
	if a.currentTask != nil {
		q.TaskID = a.currentTask.ID
		q.TaskTitle = a.currentTask.Title
		q.Files = append(q.Files, a.currentTask.ModifiedFiles...)
	}
	for _, f := range a.stats.FilesModified {
		if !containsString(q.Files, f) {
			q.Files = append(q.Files, f)
		}
	}
	return a.intel.Query(ctx, q)
}

// BuildPrompt renders the prompt for mode. On error nothing is returned.
func (a *Assembler) BuildPrompt(ctx context.Context, mode Mode) (string, error) {
	if _, ok := a.registry.Get(mode); !ok {
		return "", &UnknownModeError{Mode: mode}
	}
	return a.RenderContext(a.BuildContext(ctx), mode)
}

// RenderContext renders an already-built context with mode's template.
func (a *Assembler) RenderContext(pc types.PromptContext, mode Mode) (string, error) {
	timer := logging.StartTimer(logging.CategoryAssembler, "RenderContext")
	defer timer.Stop()

	tmpl, ok := a.registry.Get(mode)
	if !ok {
		logging.Get(logging.CategoryAssembler).Warn("No template for mode %q", mode)
		return "", &UnknownModeError{Mode: mode}
	}

	out := tmpl.SubstituteAll(RenderSections(pc)).RemoveUnreplacedMarkers().Content()
	out = strings.TrimSpace(out) + "\n"

	logging.AssemblerDebug("Rendered %s prompt: %d chars, %d errors, %d anti-patterns",
		mode, len(out), len(pc.Errors), len(pc.AntiPatterns))
	return out, nil
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
