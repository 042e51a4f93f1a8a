package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"steer/internal/store"
)

var (
	renderOpts   pipelineOptions
	renderPretty bool
	renderAudit  bool
)

// renderCmd renders the next prompt from a session file
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the next prompt from a session telemetry file",
	Long: `Replays a session file into the assembler and prints the prompt for the
chosen mode. The mode defaults to the session's, then the config's.

Example:
  steer render --session .steer/session.yaml --mode debug --pretty`,
	RunE: runRender,
}

func init() {
	addPipelineFlags(renderCmd, &renderOpts)
	renderCmd.Flags().BoolVar(&renderOpts.scan, "scan", false, "Scan modified files for code anti-patterns")
	renderCmd.Flags().BoolVar(&renderPretty, "pretty", false, "Render Markdown for the terminal")
	renderCmd.Flags().BoolVar(&renderAudit, "audit", false, "Record the render in the audit log")
}

func addPipelineFlags(cmd *cobra.Command, opts *pipelineOptions) {
	cmd.Flags().StringVarP(&opts.sessionPath, "session", "s", "", "Session telemetry file (required)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Prompt mode: build, debug or plan")
	cmd.Flags().StringVar(&opts.templatesDir, "templates", "", "Template override directory")
	cmd.Flags().BoolVar(&opts.detect, "detect", true, "Run anti-pattern detection while replaying iterations")
	_ = cmd.MarkFlagRequired("session")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := newPipeline(ctx, renderOpts)
	if err != nil {
		return err
	}
	defer p.Close()

	out, pc, err := p.render(ctx)
	if err != nil {
		return err
	}

	if renderAudit || cfg.Audit.Enabled {
		audit, err := store.OpenAudit(inWorkspace(cfg.Audit.DatabasePath))
		if err != nil {
			return err
		}
		defer audit.Close()
		id, err := audit.RecordRender(ctx, store.NewRecord(p.sessionID(), string(p.mode), out, pc))
		if err != nil {
			return err
		}
		logger.Debug("render recorded", zap.Int64("id", id))
	}

	if renderPretty {
		out = renderMarkdown(out)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
