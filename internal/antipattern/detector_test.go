package antipattern

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steer/internal/types"
)

// clean returns an iteration that trips no heuristic on its own.
func clean(n int) types.IterationSummary {
	return types.IterationSummary{
		Iteration:     n,
		FilesModified: []string{fmt.Sprintf("src/file%d.rs", n)},
		Committed:     true,
		TestsRun:      true,
		LintRun:       true,
		TaskID:        "1.1",
	}
}

func uncommitted(n int) types.IterationSummary {
	it := clean(n)
	it.Committed = false
	return it
}

func kinds(patterns []types.AntiPattern) []types.AntiPatternKind {
	out := make([]types.AntiPatternKind, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.Kind)
	}
	return out
}

func find(patterns []types.AntiPattern, kind types.AntiPatternKind) (types.AntiPattern, bool) {
	for _, p := range patterns {
		if p.Kind == kind {
			return p, true
		}
	}
	return types.AntiPattern{}, false
}

func TestDetector_EmptyHistory(t *testing.T) {
	d := NewDetector(Config{})
	assert.Empty(t, d.Detect())
	assert.Equal(t, DefaultConfig(), d.Config())
}

func TestDetector_EditWithoutCommitPersistence(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 3})
	for i := 1; i <= 3; i++ {
		d.Record(uncommitted(i))
	}

	first := d.Detect()
	require.Len(t, first, 1)
	assert.Equal(t, types.KindEditWithoutCommit, first[0].Kind)
	assert.Equal(t, 1, first[0].PersistenceCount)
	assert.Equal(t, types.SeverityMedium, first[0].Severity)

	d.Record(uncommitted(4))
	second := d.Detect()
	require.Len(t, second, 1)
	assert.Equal(t, types.KindEditWithoutCommit, second[0].Kind)
	assert.Equal(t, 2, second[0].PersistenceCount)
	assert.Equal(t, 2, d.Persistence(types.KindEditWithoutCommit))
}

func TestDetector_EditWithoutCommitEscalatesAtFive(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 2})
	for i := 1; i <= 5; i++ {
		d.Record(uncommitted(i))
	}
	p, ok := find(d.Detect(), types.KindEditWithoutCommit)
	require.True(t, ok)
	assert.Equal(t, types.SeverityHigh, p.Severity)
	assert.LessOrEqual(t, len(p.Evidence), types.MaxEvidence)
	assert.Equal(t, "5 iterations since last commit", p.Evidence[0])
}

func TestDetector_EditWithoutCommitRunEndsAtCommitOrEmptyIteration(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 3})
	d.Record(uncommitted(1))
	d.Record(uncommitted(2))
	d.Record(clean(3))
	d.Record(uncommitted(4))
	d.Record(uncommitted(5))
	_, ok := find(d.Detect(), types.KindEditWithoutCommit)
	assert.False(t, ok, "commit at iteration 3 breaks the run")

	d = NewDetector(Config{EditWithoutCommit: 3})
	d.Record(uncommitted(1))
	idle := uncommitted(2)
	idle.FilesModified = nil
	d.Record(idle)
	d.Record(uncommitted(3))
	d.Record(uncommitted(4))
	_, ok = find(d.Detect(), types.KindEditWithoutCommit)
	assert.False(t, ok, "iteration without modifications breaks the run")
}

func TestDetector_PersistenceResetsOnFirstMiss(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 3})
	for i := 1; i <= 3; i++ {
		d.Record(uncommitted(i))
		d.Detect()
	}
	require.Equal(t, 1, d.Persistence(types.KindEditWithoutCommit))

	d.Record(uncommitted(4))
	d.Detect()
	require.Equal(t, 2, d.Persistence(types.KindEditWithoutCommit))

	d.Record(clean(5))
	found := d.Detect()
	_, ok := find(found, types.KindEditWithoutCommit)
	assert.False(t, ok)
	assert.Equal(t, 0, d.Persistence(types.KindEditWithoutCommit))
}

func TestDetector_TestsNotRun(t *testing.T) {
	d := NewDetector(Config{TestsNotRun: 3})
	skip := func(n int) types.IterationSummary {
		it := clean(n)
		it.TestsRun = false
		return it
	}
	d.Record(skip(1))
	d.Record(skip(2))
	_, ok := find(d.Detect(), types.KindTestsNotRun)
	assert.False(t, ok, "window not yet full")

	severities := []types.AntiPatternSeverity{}
	for n := 3; n <= 5; n++ {
		d.Record(skip(n))
		p, ok := find(d.Detect(), types.KindTestsNotRun)
		require.True(t, ok)
		severities = append(severities, p.Severity)
	}
	assert.Equal(t, []types.AntiPatternSeverity{
		types.SeverityMedium, types.SeverityMedium, types.SeverityHigh,
	}, severities)

	d.Record(clean(6))
	_, ok = find(d.Detect(), types.KindTestsNotRun)
	assert.False(t, ok)
	assert.Equal(t, 0, d.Persistence(types.KindTestsNotRun))
}

func TestDetector_LintNotRunIsLow(t *testing.T) {
	d := NewDetector(Config{LintNotRun: 2})
	for n := 1; n <= 2; n++ {
		it := clean(n)
		it.LintRun = false
		d.Record(it)
	}
	p, ok := find(d.Detect(), types.KindLintNotRun)
	require.True(t, ok)
	assert.Equal(t, types.SeverityLow, p.Severity)
	assert.Equal(t, []string{"iterations 1-2"}, p.Evidence)
}

func TestDetector_TaskOscillation(t *testing.T) {
	tests := []struct {
		name  string
		tasks []string
		want  bool
	}{
		{"back and forth", []string{"2.1", "2.2", "2.1", "2.2", "2.1"}, true},
		{"forward progress", []string{"1", "2", "3", "4", "5"}, false},
		{"steady", []string{"1", "1", "1", "1", "1"}, false},
		{"gaps skipped", []string{"x", "a", "b", "", "a", "b"}, true},
		{"too few switches", []string{"a", "a", "b", "b", "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(Config{TaskOscillation: 3})
			for i, task := range tt.tasks {
				it := clean(i + 1)
				it.TaskID = task
				d.Record(it)
			}
			p, ok := find(d.Detect(), types.KindTaskOscillation)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Contains(t, p.Evidence[0], "->")
			}
		})
	}
}

func TestDetector_RepeatingErrors(t *testing.T) {
	d := NewDetector(Config{ErrorRepetition: 3})
	for n := 1; n <= 3; n++ {
		it := clean(n)
		it.Errors = []string{"E0308 mismatched types", fmt.Sprintf("unique %d", n)}
		d.Record(it)
	}
	p, ok := find(d.Detect(), types.KindRepeatingErrors)
	require.True(t, ok)
	assert.Equal(t, types.SeverityMedium, p.Severity)
	assert.Equal(t, []string{"E0308 mismatched types (x3)"}, p.Evidence)

	it := clean(4)
	it.Errors = []string{"E0308 mismatched types"}
	d.Record(it)
	p, ok = find(d.Detect(), types.KindRepeatingErrors)
	require.True(t, ok)
	assert.Equal(t, types.SeverityHigh, p.Severity, "four repeats escalate")
}

func TestDetector_RepeatingErrorsWindowIsFive(t *testing.T) {
	d := NewDetector(Config{ErrorRepetition: 3})
	for n := 1; n <= 3; n++ {
		it := clean(n)
		it.Errors = []string{"old"}
		d.Record(it)
	}
	for n := 4; n <= 6; n++ {
		d.Record(clean(n))
	}
	_, ok := find(d.Detect(), types.KindRepeatingErrors)
	assert.False(t, ok, "only two of the old errors remain in the window")
}

func TestDetector_FileChurn(t *testing.T) {
	build := func(files ...string) *Detector {
		d := NewDetector(Config{FileChurn: 5, ScopeCreep: 50})
		for n := 1; n <= 3; n++ {
			it := clean(n)
			it.FilesModified = files
			d.Record(it)
		}
		return d
	}

	p, ok := find(build("src/a.rs").Detect(), types.KindFileChurn)
	require.True(t, ok)
	assert.Equal(t, []string{"src/a.rs modified 3 times"}, p.Evidence)

	_, ok = find(build("a", "b", "c", "d").Detect(), types.KindFileChurn)
	assert.False(t, ok, "more than three churning files is suppressed")
}

func TestDetector_ScopeCreepFromHistory(t *testing.T) {
	d := NewDetector(Config{ScopeCreep: 3, FileChurn: 5})
	for n, f := range []string{"api/a.go", "db/b.go", "ui/c.go"} {
		it := clean(n + 1)
		it.FilesModified = []string{f}
		d.Record(it)
	}
	p, ok := find(d.Detect(), types.KindScopeCreep)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"api", "db", "ui"}, p.Evidence)
}

func TestDetector_EvaluateMergesSnapshot(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 3})
	for i := 1; i <= 3; i++ {
		d.Record(uncommitted(i))
	}
	status := types.NewQualityGateStatus().WithResult(types.GateTests, types.GateFailed("boom"), time.Now())
	qg, ok := DetectQualityGateIgnoring(status, 3)
	require.True(t, ok)
	dup := types.NewAntiPattern(types.KindEditWithoutCommit, "snapshot copy")

	found := d.Evaluate([]types.AntiPattern{qg, dup})
	assert.Equal(t, []types.AntiPatternKind{types.KindEditWithoutCommit, types.KindIgnoringQualityGates}, kinds(found))
	assert.NotEqual(t, "snapshot copy", found[0].Description, "history finding wins")
	assert.Equal(t, 1, d.Persistence(types.KindIgnoringQualityGates))

	d.Detect()
	assert.Equal(t, 0, d.Persistence(types.KindIgnoringQualityGates))
}

func TestDetector_FromHistory(t *testing.T) {
	d := NewDetector(Config{EditWithoutCommit: 3})
	for i := 1; i <= 3; i++ {
		d.Record(uncommitted(i))
	}
	status := types.NewQualityGateStatus().WithResult(types.GateTests, types.GateFailed("boom"), time.Now())
	qg, ok := DetectQualityGateIgnoring(status, 3)
	require.True(t, ok)

	d.Evaluate([]types.AntiPattern{qg})
	assert.True(t, d.FromHistory(types.KindEditWithoutCommit))
	assert.False(t, d.FromHistory(types.KindIgnoringQualityGates))

	d.Reset()
	assert.False(t, d.FromHistory(types.KindEditWithoutCommit))
}

func TestDetector_RecordCopiesInput(t *testing.T) {
	d := NewDetector(Config{})
	it := clean(1)
	d.Record(it)
	it.FilesModified[0] = "mutated"
	assert.Equal(t, "src/file1.rs", d.History()[0].FilesModified[0])

	d.Reset()
	assert.Equal(t, 0, d.Len())
}
