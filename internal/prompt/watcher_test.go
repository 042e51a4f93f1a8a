package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_ReportsTemplateAndSessionChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tmplDir := t.TempDir()
	sessionDir := t.TempDir()
	session := filepath.Join(sessionDir, "session.yaml")
	require.NoError(t, os.WriteFile(session, []byte("iterations: []\n"), 0644))

	changes := make(chan []string, 8)
	w, err := NewWatcher(tmplDir, []string{session}, func(_ context.Context, changed []string) {
		changes <- changed
	})
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())

	tmplPath := filepath.Join(tmplDir, TemplateFileName(ModeBuild))
	require.NoError(t, os.WriteFile(tmplPath, []byte("{{TASK_CONTEXT}}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(session, []byte("iterations: [{iteration: 1}]\n"), 0644))

	seen := make(map[string]bool)
	deadline := time.After(5 * time.Second)
	for !(seen[tmplPath] && seen[session]) {
		select {
		case changed := <-changes:
			for _, p := range changed {
				seen[p] = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for changes, saw %v", seen)
		}
	}
	assert.False(t, seen[filepath.Join(tmplDir, "notes.txt")])
	assert.GreaterOrEqual(t, w.Stats().Events, 2)

	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop() // second stop is a no-op
}

func TestWatcher_StartTwiceIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := NewWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	assert.Len(t, w.WatchedDirs(), 1)
	w.Stop()
}
