package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"steer/internal/antipattern"
	"steer/internal/logging"
	"steer/internal/mcp"
	"steer/internal/prompt"
)

// DefaultPath is where the config lives relative to the workspace.
const DefaultPath = ".steer/config.yaml"

// Config holds all steer configuration.
type Config struct {
	Detector  antipattern.Config `yaml:"detector"`
	Assembler AssemblerConfig    `yaml:"assembler"`
	Templates TemplatesConfig    `yaml:"templates"`
	Intel     IntelConfig        `yaml:"intel"`
	Scan      ScanConfig         `yaml:"scan"`
	Audit     AuditConfig        `yaml:"audit"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// AssemblerConfig configures prompt assembly.
type AssemblerConfig struct {
	Limits      prompt.Limits `yaml:"limits"`
	DefaultMode string        `yaml:"default_mode"` // build, debug, plan
	Language    string        `yaml:"language"`     // empty = detect from modified files
}

// TemplatesConfig configures template overrides.
type TemplatesConfig struct {
	Dir   string `yaml:"dir"` // empty = built-in templates only
	Watch bool   `yaml:"watch"`
}

// IntelConfig configures the MCP code-intelligence server.
type IntelConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Protocol string        `yaml:"protocol"` // stdio, http
	Endpoint string        `yaml:"endpoint"` // stdio command line
	BaseURL  string        `yaml:"base_url"` // http endpoint
	Timeout  string        `yaml:"timeout"`
	Tools    mcp.ToolNames `yaml:"tools"`
}

// ScanConfig configures the source scanner.
type ScanConfig struct {
	Enabled      bool  `yaml:"enabled"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// AuditConfig configures the render audit log.
type AuditConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Detector: antipattern.DefaultConfig(),
		Assembler: AssemblerConfig{
			Limits:      prompt.DefaultLimits(),
			DefaultMode: string(prompt.ModeBuild),
		},
		Templates: TemplatesConfig{
			Dir: ".steer/templates",
		},
		Intel: IntelConfig{
			Enabled:  false,
			Protocol: string(mcp.ProtocolHTTP),
			BaseURL:  "http://localhost:8080",
			Timeout:  "5s",
			Tools:    mcp.DefaultToolNames(),
		},
		Scan: ScanConfig{
			Enabled:      true,
			MaxFileBytes: 512 * 1024,
		},
		Audit: AuditConfig{
			Enabled:      false,
			DatabasePath: ".steer/audit.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   ".steer/logs/steer.log",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logging.Get(logging.CategoryConfig).Debug("No config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("STEER_TEMPLATES_DIR"); dir != "" {
		c.Templates.Dir = dir
	}
	if endpoint := os.Getenv("STEER_INTEL_ENDPOINT"); endpoint != "" {
		c.Intel.Endpoint = endpoint
		c.Intel.Protocol = string(mcp.ProtocolStdio)
		c.Intel.Enabled = true
	}
	if url := os.Getenv("STEER_INTEL_URL"); url != "" {
		c.Intel.BaseURL = url
		c.Intel.Protocol = string(mcp.ProtocolHTTP)
		c.Intel.Enabled = true
	}
	if path := os.Getenv("STEER_AUDIT_DB"); path != "" {
		c.Audit.DatabasePath = path
		c.Audit.Enabled = true
	}
	if level := os.Getenv("STEER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.DebugMode = true
	}
	if debug := os.Getenv("STEER_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, ok := prompt.ParseMode(c.Assembler.DefaultMode); !ok {
		return fmt.Errorf("invalid assembler.default_mode: %q (valid: %v)", c.Assembler.DefaultMode, prompt.AllModes())
	}
	if c.Assembler.Language != "" {
		if _, ok := prompt.LookupLanguage(c.Assembler.Language); !ok {
			return fmt.Errorf("unknown assembler.language: %q (known: %v)", c.Assembler.Language, prompt.KnownLanguages())
		}
	}
	if c.Intel.Enabled {
		switch mcp.Protocol(c.Intel.Protocol) {
		case mcp.ProtocolStdio:
			if c.Intel.Endpoint == "" {
				return fmt.Errorf("intel.endpoint is required for the stdio protocol")
			}
		case mcp.ProtocolHTTP:
			if c.Intel.BaseURL == "" {
				return fmt.Errorf("intel.base_url is required for the http protocol")
			}
		default:
			return fmt.Errorf("invalid intel.protocol: %q (valid: stdio, http)", c.Intel.Protocol)
		}
		if _, err := time.ParseDuration(c.Intel.Timeout); c.Intel.Timeout != "" && err != nil {
			return fmt.Errorf("invalid intel.timeout: %w", err)
		}
	}
	if c.Scan.MaxFileBytes < 0 {
		return fmt.Errorf("scan.max_file_bytes must not be negative")
	}
	if c.Audit.Enabled && c.Audit.DatabasePath == "" {
		return fmt.Errorf("audit.database_path is required when audit is enabled")
	}
	return nil
}

// DetectorConfig returns the anti-pattern thresholds.
func (c *Config) DetectorConfig() antipattern.Config {
	return c.Detector
}

// Limits returns the assembler limits.
func (c *Config) Limits() prompt.Limits {
	return c.Assembler.Limits
}

// DefaultMode returns the configured mode, falling back to build.
func (c *Config) DefaultMode() prompt.Mode {
	if m, ok := prompt.ParseMode(c.Assembler.DefaultMode); ok {
		return m
	}
	return prompt.ModeBuild
}

// IntelTimeout returns the intel timeout as a duration.
func (c *Config) IntelTimeout() time.Duration {
	d, err := time.ParseDuration(c.Intel.Timeout)
	if err != nil || d <= 0 {
		return mcp.DefaultTimeout
	}
	return d
}

// ResolvePath anchors a relative config path at workspace.
func ResolvePath(workspace, path string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(workspace, path)
}
