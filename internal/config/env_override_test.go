package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"steer/internal/mcp"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("STEER_TEMPLATES_DIR", func(t *testing.T) {
		t.Setenv("STEER_TEMPLATES_DIR", "/tmp/tpl")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/tpl", cfg.Templates.Dir)
	})

	t.Run("STEER_INTEL_ENDPOINT enables stdio", func(t *testing.T) {
		t.Setenv("STEER_INTEL_ENDPOINT", "graph --stdio")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Intel.Enabled)
		assert.Equal(t, string(mcp.ProtocolStdio), cfg.Intel.Protocol)
		assert.Equal(t, "graph --stdio", cfg.Intel.Endpoint)
	})

	t.Run("STEER_INTEL_URL wins over endpoint", func(t *testing.T) {
		t.Setenv("STEER_INTEL_ENDPOINT", "graph --stdio")
		t.Setenv("STEER_INTEL_URL", "http://graph:9000")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, string(mcp.ProtocolHTTP), cfg.Intel.Protocol)
		assert.Equal(t, "http://graph:9000", cfg.Intel.BaseURL)
	})

	t.Run("STEER_AUDIT_DB enables audit", func(t *testing.T) {
		t.Setenv("STEER_AUDIT_DB", "/tmp/a.db")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Audit.Enabled)
		assert.Equal(t, "/tmp/a.db", cfg.Audit.DatabasePath)
	})

	t.Run("STEER_LOG_LEVEL turns logging on", func(t *testing.T) {
		t.Setenv("STEER_LOG_LEVEL", "debug")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("STEER_DEBUG=false wins over level", func(t *testing.T) {
		t.Setenv("STEER_LOG_LEVEL", "debug")
		t.Setenv("STEER_DEBUG", "false")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Logging.DebugMode)
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Setenv("STEER_TEMPLATES_DIR", "")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, DefaultConfig(), cfg)
	})
}
