package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTaskPhaseString(t *testing.T) {
	cases := map[TaskPhase]string{
		PhasePlanning:       "Planning",
		PhaseImplementation: "Implementation",
		PhaseTesting:        "Testing",
		PhaseQualityFixes:   "Quality Fixes",
		PhaseReview:         "Review",
		TaskPhase(42):       "Unknown",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Fatalf("phase %d string = %q, want %q", int(phase), got, want)
		}
	}
}

func TestParseTaskPhase(t *testing.T) {
	tests := []struct {
		in   string
		want TaskPhase
		ok   bool
	}{
		{"planning", PhasePlanning, true},
		{"Quality Fixes", PhaseQualityFixes, true},
		{"quality_fixes", PhaseQualityFixes, true},
		{"REVIEW", PhaseReview, true},
		{"testing", PhaseTesting, true},
		{"bogus", PhaseImplementation, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTaskPhase(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseTaskPhase(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCurrentTaskContextBuilders(t *testing.T) {
	base := NewCurrentTaskContext("2.1", "Parser")
	task := base.
		WithPhase(PhaseTesting).
		WithCompletion(150).
		WithModifiedFile("src/parser.rs").
		WithModifiedFile("src/parser.rs").
		WithBlocker("waiting on lexer").
		WithDependency("1.3")

	want := CurrentTaskContext{
		ID:                "2.1",
		Title:             "Parser",
		Phase:             PhaseTesting,
		CompletionPercent: 100,
		ModifiedFiles:     []string{"src/parser.rs"},
		Blockers:          []string{"waiting on lexer"},
		Dependencies:      []string{"1.3"},
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Fatalf("task mismatch (-want +got):\n%s", diff)
	}
	if base.Phase != PhasePlanning || len(base.ModifiedFiles) != 0 {
		t.Fatalf("builder mutated its receiver: %+v", base)
	}
	if !task.IsBlocked() {
		t.Fatalf("task with blocker should be blocked")
	}
	if got := base.WithCompletion(-4).CompletionPercent; got != 0 {
		t.Fatalf("negative completion clamped to %d, want 0", got)
	}
}

func TestCurrentTaskContextCloneDoesNotAlias(t *testing.T) {
	task := NewCurrentTaskContext("1", "t").WithModifiedFile("a.go")
	clone := task.Clone()
	clone.ModifiedFiles[0] = "b.go"
	if task.ModifiedFiles[0] != "a.go" {
		t.Fatalf("clone shares backing array with original")
	}
}
