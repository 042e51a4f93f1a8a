package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"steer/internal/codescan"
	"steer/internal/mcp"
	"steer/internal/prompt"
	"steer/internal/telemetry"
	"steer/internal/types"
)

// pipelineOptions are the flags shared by render, detect and watch.
type pipelineOptions struct {
	sessionPath  string
	mode         string
	templatesDir string
	scan         bool
	detect       bool
}

// pipeline is an assembler loaded from one session file.
type pipeline struct {
	assembler *prompt.Assembler
	session   *telemetry.Session
	mode      prompt.Mode
	intel     *mcp.IntelClient
}

func newPipeline(ctx context.Context, opts pipelineOptions) (*pipeline, error) {
	session, err := telemetry.Load(inWorkspace(opts.sessionPath))
	if err != nil {
		return nil, err
	}

	dir := opts.templatesDir
	if dir == "" {
		dir = cfg.Templates.Dir
	}
	registry, err := prompt.LoadRegistry(inWorkspace(dir))
	if err != nil {
		return nil, err
	}

	mode := session.ParsedMode(cfg.DefaultMode())
	if opts.mode != "" {
		m, ok := prompt.ParseMode(opts.mode)
		if !ok {
			return nil, fmt.Errorf("unknown mode %q (valid: %v)", opts.mode, prompt.AllModes())
		}
		mode = m
	}

	p := &pipeline{session: session, mode: mode}
	assemblerOpts := []prompt.AssemblerOption{
		prompt.WithLimits(cfg.Limits()),
		prompt.WithDetectorConfig(cfg.DetectorConfig()),
		prompt.WithLanguage(cfg.Assembler.Language),
	}
	if cfg.Intel.Enabled {
		transport, err := mcp.NewTransport(mcp.Protocol(cfg.Intel.Protocol), cfg.Intel.Endpoint, cfg.Intel.BaseURL, cfg.IntelTimeout())
		if err != nil {
			return nil, err
		}
		p.intel = mcp.NewIntelClient(transport,
			mcp.WithTools(cfg.Intel.Tools),
			mcp.WithTimeout(cfg.IntelTimeout()),
			mcp.WithSourceName(cfg.Intel.Protocol))
		assemblerOpts = append(assemblerOpts, prompt.WithIntelligence(p.intel))
	}
	p.assembler = prompt.NewAssembler(registry, assemblerOpts...)

	var applyOpts []telemetry.ApplyOption
	if !opts.detect {
		applyOpts = append(applyOpts, telemetry.WithoutDetection())
	}
	session.Apply(p.assembler, applyOpts...)

	files := p.files()
	if cfg.Assembler.Language == "" && session.Language == "" {
		if lang := prompt.DetectLanguage(files); lang != "" {
			p.assembler.SetLanguage(lang)
		}
	}

	if opts.scan && cfg.Scan.Enabled && len(files) > 0 {
		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, inWorkspace(f))
		}
		scanner := codescan.NewScanner(codescan.WithMaxFileBytes(cfg.Scan.MaxFileBytes))
		warnings, err := scanner.ScanFiles(ctx, paths)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.assembler.SetCodeWarnings(warnings)
	}

	logger.Debug("pipeline loaded",
		zap.String("session", opts.sessionPath),
		zap.String("mode", string(mode)),
		zap.Int("iterations", len(session.Iterations)))
	return p, nil
}

// files returns the task and session files in first-seen order.
func (p *pipeline) files() []string {
	var files []string
	seen := make(map[string]bool)
	add := func(fs []string) {
		for _, f := range fs {
			if f != "" && !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	if task, ok := p.assembler.CurrentTask(); ok {
		add(task.ModifiedFiles)
	}
	add(p.assembler.SessionStats().FilesModified)
	return files
}

// sessionID prefers the recorded id over the assembler's generated one.
func (p *pipeline) sessionID() string {
	if p.session.SessionID != "" {
		return p.session.SessionID
	}
	return p.assembler.SessionID()
}

// render builds the context once and renders it.
func (p *pipeline) render(ctx context.Context) (string, types.PromptContext, error) {
	pc := p.assembler.BuildContext(ctx)
	out, err := p.assembler.RenderContext(pc, p.mode)
	return out, pc, err
}

// Close releases the intelligence connection.
func (p *pipeline) Close() {
	if p.intel != nil {
		_ = p.intel.Close()
	}
}
