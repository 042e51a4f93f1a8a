// Package telemetry reads recorded loop sessions from YAML and replays them
// into a prompt.Assembler.
package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"steer/internal/logging"
	"steer/internal/prompt"
	"steer/internal/types"
)

// Session is one recorded session file. QualityChecks is how many
// consecutive checks produced Quality.
type Session struct {
	SessionID     string            `yaml:"session_id,omitempty"`
	Mode          string            `yaml:"mode,omitempty"`
	Language      string            `yaml:"language,omitempty"`
	Task          *TaskRecord       `yaml:"task,omitempty"`
	Stats         *StatsRecord      `yaml:"stats,omitempty"`
	Quality       map[string]Gate   `yaml:"quality,omitempty"`
	CheckedAt     *time.Time        `yaml:"checked_at,omitempty"`
	QualityChecks int               `yaml:"quality_checks,omitempty"`
	Errors        []ErrorRecord     `yaml:"errors,omitempty"`
	Attempts      []AttemptRecord   `yaml:"attempts,omitempty"`
	Iterations    []IterationRecord `yaml:"iterations,omitempty"`
	Guidance      []string          `yaml:"guidance,omitempty"`
	Custom        string            `yaml:"custom,omitempty"`
}

// TaskRecord is the active task.
type TaskRecord struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Phase         string   `yaml:"phase,omitempty"`
	Completion    int      `yaml:"completion,omitempty"`
	ModifiedFiles []string `yaml:"modified_files,omitempty"`
	Blockers      []string `yaml:"blockers,omitempty"`
	Dependencies  []string `yaml:"dependencies,omitempty"`
}

// StatsRecord is the session counters.
type StatsRecord struct {
	Iteration      int      `yaml:"iteration"`
	Budget         int      `yaml:"budget,omitempty"`
	Commits        int      `yaml:"commits,omitempty"`
	LinesChanged   int      `yaml:"lines_changed,omitempty"`
	TasksCompleted int      `yaml:"tasks_completed,omitempty"`
	TasksBlocked   int      `yaml:"tasks_blocked,omitempty"`
	Stagnation     int      `yaml:"stagnation,omitempty"`
	FilesModified  []string `yaml:"files_modified,omitempty"`
	TestDelta      int      `yaml:"test_delta,omitempty"`
}

// Gate is one quality gate result.
type Gate struct {
	Passed   bool     `yaml:"passed"`
	Messages []string `yaml:"messages,omitempty"`
}

// ErrorRecord is one observed error.
type ErrorRecord struct {
	Code     string `yaml:"code"`
	Message  string `yaml:"message"`
	Severity string `yaml:"severity,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
	Fix      string `yaml:"fix,omitempty"`
}

// AttemptRecord is one attempt at the task. Attempts are numbered on replay.
type AttemptRecord struct {
	Outcome  string        `yaml:"outcome"`
	Approach string        `yaml:"approach,omitempty"`
	Errors   []string      `yaml:"errors,omitempty"`
	Files    []string      `yaml:"files,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Notes    string        `yaml:"notes,omitempty"`
}

// IterationRecord is one loop iteration.
type IterationRecord struct {
	Iteration int      `yaml:"iteration"`
	Files     []string `yaml:"files,omitempty"`
	Committed bool     `yaml:"committed,omitempty"`
	TestsRun  bool     `yaml:"tests_run,omitempty"`
	LintRun   bool     `yaml:"lint_run,omitempty"`
	Task      string   `yaml:"task,omitempty"`
	Errors    []string `yaml:"errors,omitempty"`
	ExitCode  int      `yaml:"exit_code,omitempty"`
}

// Load reads and parses a session file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Get(logging.CategoryTelemetry).Info("Loaded session %s: %d iterations, %d errors, %d attempts",
		path, len(s.Iterations), len(s.Errors), len(s.Attempts))
	return s, nil
}

// Parse decodes and validates a session document. Unknown keys are rejected.
func Parse(data []byte) (*Session, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Session
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every enumerated field.
func (s *Session) Validate() error {
	if s.Mode != "" {
		if _, ok := prompt.ParseMode(s.Mode); !ok {
			return fmt.Errorf("mode: unknown mode %q", s.Mode)
		}
	}
	if s.Task != nil {
		if strings.TrimSpace(s.Task.ID) == "" {
			return fmt.Errorf("task.id is required")
		}
		if s.Task.Phase != "" {
			if _, ok := types.ParseTaskPhase(s.Task.Phase); !ok {
				return fmt.Errorf("task.phase: unknown phase %q", s.Task.Phase)
			}
		}
	}
	for name := range s.Quality {
		if _, ok := types.ParseGate(name); !ok {
			return fmt.Errorf("quality: unknown gate %q", name)
		}
	}
	for i, e := range s.Errors {
		if strings.TrimSpace(e.Code) == "" {
			return fmt.Errorf("errors[%d].code is required", i)
		}
		if e.Severity != "" {
			if _, ok := types.ParseErrorSeverity(e.Severity); !ok {
				return fmt.Errorf("errors[%d].severity: unknown severity %q", i, e.Severity)
			}
		}
	}
	for i, a := range s.Attempts {
		if _, ok := types.ParseAttemptOutcome(a.Outcome); !ok {
			return fmt.Errorf("attempts[%d].outcome: unknown outcome %q", i, a.Outcome)
		}
	}
	return nil
}

// ParsedMode returns the recorded mode, or fallback when none is recorded.
func (s *Session) ParsedMode(fallback prompt.Mode) prompt.Mode {
	if s.Mode == "" {
		return fallback
	}
	m, ok := prompt.ParseMode(s.Mode)
	if !ok {
		return fallback
	}
	return m
}

// ApplyOption configures Apply.
type ApplyOption func(*applyOptions)

type applyOptions struct {
	detect bool
}

// WithoutDetection replays iterations without running the detector.
func WithoutDetection() ApplyOption {
	return func(o *applyOptions) { o.detect = false }
}

// Apply replays the session into a. By default the detector runs after every
// recorded iteration so persistence counts match a live loop.
func (s *Session) Apply(a *prompt.Assembler, opts ...ApplyOption) {
	o := applyOptions{detect: true}
	for _, opt := range opts {
		opt(&o)
	}

	if s.Language != "" {
		a.SetLanguage(s.Language)
	}
	if s.Task != nil {
		a.SetCurrentTask(s.Task.context())
	}
	if s.Stats != nil {
		a.SetSessionStats(s.Stats.stats())
	}

	if len(s.Quality) > 0 {
		at := time.Now()
		if s.CheckedAt != nil {
			at = *s.CheckedAt
		}
		var status types.QualityGateStatus
		for name, rec := range s.Quality {
			g, _ := types.ParseGate(name)
			status = status.WithResult(g, types.GateResult{Passed: rec.Passed, Messages: rec.Messages}, at)
		}
		// Each recorded check extends or resets the failure streak once.
		checks := s.QualityChecks
		if checks < 1 {
			checks = 1
		}
		for i := 0; i < checks; i++ {
			a.SetQualityStatus(status)
		}
	}

	for _, e := range s.Errors {
		a.AddError(e.context())
	}
	for _, rec := range s.Attempts {
		a.RecordAttempt(rec.summary())
	}
	for _, it := range s.Iterations {
		a.RecordIteration(it.summary())
		if o.detect {
			a.DetectAntiPatterns()
		}
	}
	for _, g := range s.Guidance {
		a.AddHistoricalGuidance(g)
	}
	if s.Custom != "" {
		a.SetCustomSection(s.Custom)
	}

	logging.Get(logging.CategoryTelemetry).Debug("Applied session %s to assembler %s", s.SessionID, a.SessionID())
}

func (t *TaskRecord) context() types.CurrentTaskContext {
	task := types.NewCurrentTaskContext(t.ID, t.Title)
	if t.Phase != "" {
		phase, _ := types.ParseTaskPhase(t.Phase)
		task = task.WithPhase(phase)
	}
	task = task.WithCompletion(t.Completion)
	for _, f := range t.ModifiedFiles {
		task = task.WithModifiedFile(f)
	}
	for _, b := range t.Blockers {
		task = task.WithBlocker(b)
	}
	for _, d := range t.Dependencies {
		task = task.WithDependency(d)
	}
	return task
}

func (r *StatsRecord) stats() types.SessionStats {
	stats := types.SessionStats{
		IterationCount:  r.Iteration,
		CommitCount:     r.Commits,
		LinesChanged:    r.LinesChanged,
		TasksCompleted:  r.TasksCompleted,
		TasksBlocked:    r.TasksBlocked,
		StagnationCount: r.Stagnation,
		IterationBudget: r.Budget,
		TestCountDelta:  r.TestDelta,
	}
	for _, f := range r.FilesModified {
		stats.AddModifiedFile(f)
	}
	return stats
}

func (e ErrorRecord) context() types.ErrorContext {
	sev := types.SeverityError
	if e.Severity != "" {
		sev, _ = types.ParseErrorSeverity(e.Severity)
	}
	ec := types.NewErrorContext(e.Code, e.Message, sev).
		WithLocation(e.File, e.Line).
		WithSuggestedFix(e.Fix)
	if e.Count > 0 {
		ec = ec.WithOccurrences(e.Count)
	}
	return ec
}

func (r AttemptRecord) summary() types.AttemptSummary {
	outcome, _ := types.ParseAttemptOutcome(r.Outcome)
	a := types.NewAttemptSummary(0, outcome).
		WithApproach(r.Approach).
		WithDuration(r.Duration).
		WithNotes(r.Notes)
	for _, e := range r.Errors {
		a = a.WithError(e)
	}
	for _, f := range r.Files {
		a = a.WithFile(f)
	}
	return a
}

func (r IterationRecord) summary() types.IterationSummary {
	return types.IterationSummary{
		Iteration:     r.Iteration,
		FilesModified: append([]string(nil), r.Files...),
		Committed:     r.Committed,
		TestsRun:      r.TestsRun,
		LintRun:       r.LintRun,
		TaskID:        r.Task,
		Errors:        append([]string(nil), r.Errors...),
		ExitCode:      r.ExitCode,
	}
}
