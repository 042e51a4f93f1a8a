package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, enabled map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core), enabled)
	t.Cleanup(func() { SetLogger(nil, nil) })
	return logs
}

func TestGet_NoBackendIsNoop(t *testing.T) {
	SetLogger(nil, nil)

	l := Get(CategoryDetector)
	require.NotNil(t, l)
	assert.False(t, l.Enabled())

	// Must not panic.
	l.Debug("x %d", 1)
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.False(t, IsCategoryEnabled(CategoryDetector))
}

func TestGet_WritesThroughZap(t *testing.T) {
	logs := observe(t, nil)

	Get(CategoryAssembler).Info("rendered %d sections", 4)
	Get(CategoryAssembler).Debug("debug line")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rendered 4 sections", entries[0].Message)
	assert.Equal(t, "assembler", entries[0].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestGet_CategoryFilter(t *testing.T) {
	logs := observe(t, map[string]bool{"intel": false, "detector": true})

	Get(CategoryIntel).Info("hidden")
	Get(CategoryDetector).Info("shown")
	Get(CategoryStore).Info("unlisted categories default to on")

	assert.False(t, IsCategoryEnabled(CategoryIntel))
	assert.Equal(t, 2, logs.Len())
}

func TestLogger_With(t *testing.T) {
	logs := observe(t, nil)

	Get(CategoryTemplate).With("mode", "build").Warn("missing marker")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "build", entries[0].ContextMap()["mode"])
}

func TestTimer_StopWithThreshold(t *testing.T) {
	logs := observe(t, nil)

	timer := StartTimer(CategoryDetector, "Detect")
	elapsed := timer.StopWithThreshold(-time.Second)

	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestInitialize_DisabledInstallsNothing(t *testing.T) {
	require.NoError(t, Initialize(Config{DebugMode: false, Level: "debug"}))
	assert.False(t, Get(CategoryBoot).Enabled())
}

func TestInitialize_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "steer.log")
	t.Cleanup(func() { SetLogger(nil, nil) })

	require.NoError(t, Initialize(Config{DebugMode: true, Level: "debug", Format: "json", File: path}))
	Get(CategoryConfig).Info("hello from test")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello from test"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}
