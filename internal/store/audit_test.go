package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"steer/internal/types"
)

func openTestAudit(t *testing.T) *AuditStore {
	t.Helper()
	s, err := OpenAudit(":memory:")
	if err != nil {
		t.Fatalf("Failed to open audit store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRecord(t *testing.T) {
	task := types.NewCurrentTaskContext("3.1", "wire cache")
	pc := types.PromptContext{
		CurrentTask: &task,
		Errors:      []types.ErrorContext{types.NewErrorContext("E1", "boom", types.SeverityError)},
		Stats:       types.SessionStats{IterationCount: 4},
		AntiPatterns: []types.AntiPattern{
			types.NewAntiPattern(types.KindTestsNotRun, "tests"),
			types.NewAntiPattern(types.KindFileChurn, "churn"),
		},
	}

	rec := NewRecord("s-1", "build", "hello", pc)
	want := Record{
		SessionID:    "s-1",
		Mode:         "build",
		Iteration:    4,
		TaskID:       "3.1",
		PromptHash:   "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		PromptLength: 5,
		AntiPatterns: []string{"tests_not_run", "file_churn"},
		ErrorCount:   1,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("NewRecord mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestAudit(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		id, err := s.RecordRender(ctx, Record{
			SessionID:    "s-1",
			Mode:         "build",
			Iteration:    i,
			PromptHash:   "h",
			PromptLength: 100 * i,
			AntiPatterns: []string{"edit_without_commit"},
			CreatedAt:    at.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordRender failed: %v", err)
		}
		if id != int64(i) {
			t.Errorf("Expected id %d, got %d", i, id)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recent))
	}
	if recent[0].Iteration != 3 || recent[1].Iteration != 2 {
		t.Errorf("Expected newest first, got iterations %d, %d", recent[0].Iteration, recent[1].Iteration)
	}
	want := Record{
		ID:           3,
		SessionID:    "s-1",
		Mode:         "build",
		Iteration:    3,
		PromptHash:   "h",
		PromptLength: 300,
		AntiPatterns: []string{"edit_without_commit"},
		CreatedAt:    at.Add(3 * time.Minute),
	}
	if diff := cmp.Diff(want, recent[0]); diff != "" {
		t.Errorf("Record round trip mismatch (-want +got):\n%s", diff)
	}

	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected default limit to return all 3, got %d", len(all))
	}
}

func TestRecordRender_Defaults(t *testing.T) {
	s := openTestAudit(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if _, err := s.RecordRender(ctx, Record{Mode: "plan", PromptHash: "h"}); err != nil {
		t.Fatalf("RecordRender failed: %v", err)
	}

	recs, err := s.Recent(ctx, 1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("Recent: %v (%d records)", err, len(recs))
	}
	if len(recs[0].SessionID) != 36 {
		t.Errorf("Expected generated UUID session id, got %q", recs[0].SessionID)
	}
	if recs[0].CreatedAt.Before(before) {
		t.Errorf("Expected CreatedAt to default to now, got %v", recs[0].CreatedAt)
	}
	if recs[0].AntiPatterns != nil {
		t.Errorf("Expected no anti-patterns, got %v", recs[0].AntiPatterns)
	}
}

func TestBySessionAndKindCounts(t *testing.T) {
	s := openTestAudit(t)
	ctx := context.Background()

	inputs := []Record{
		{SessionID: "a", Mode: "build", Iteration: 1, AntiPatterns: []string{"tests_not_run"}},
		{SessionID: "b", Mode: "debug", Iteration: 1},
		{SessionID: "a", Mode: "build", Iteration: 2, AntiPatterns: []string{"tests_not_run", "file_churn"}},
	}
	for _, rec := range inputs {
		rec.PromptHash = "h"
		if _, err := s.RecordRender(ctx, rec); err != nil {
			t.Fatalf("RecordRender failed: %v", err)
		}
	}

	got, err := s.BySession(ctx, "a")
	if err != nil {
		t.Fatalf("BySession failed: %v", err)
	}
	iterations := make([]int, 0, len(got))
	for _, r := range got {
		iterations = append(iterations, r.Iteration)
	}
	if diff := cmp.Diff([]int{1, 2}, iterations); diff != "" {
		t.Errorf("BySession order mismatch (-want +got):\n%s", diff)
	}

	counts, err := s.KindCounts(ctx)
	if err != nil {
		t.Fatalf("KindCounts failed: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"tests_not_run": 2, "file_churn": 1}, counts, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("KindCounts mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenAudit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	s, err := OpenAudit(path)
	if err != nil {
		t.Fatalf("OpenAudit failed: %v", err)
	}
	if _, err := s.RecordRender(context.Background(), Record{SessionID: "x", Mode: "build", PromptHash: "h"}); err != nil {
		t.Fatalf("RecordRender failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	reopened, err := OpenAudit(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()
	recs, err := reopened.Recent(context.Background(), 10)
	if err != nil || len(recs) != 1 {
		t.Errorf("Expected 1 persisted record, got %d (%v)", len(recs), err)
	}
}
