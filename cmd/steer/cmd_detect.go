package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"steer/internal/types"
)

var (
	detectOpts pipelineOptions
	detectJSON bool
)

// detectCmd reports the anti-patterns a session exhibits
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the anti-patterns detected in a session",
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectOpts.sessionPath, "session", "s", "", "Session telemetry file (required)")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print JSON instead of a table")
	_ = detectCmd.MarkFlagRequired("session")
}

// antiPatternView is the JSON shape of a detection.
type antiPatternView struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Severity    string   `json:"severity"`
	Persistence int      `json:"persistence"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"`
	Remediation string   `json:"remediation"`
}

func newAntiPatternView(p types.AntiPattern) antiPatternView {
	return antiPatternView{
		Kind:        p.Kind.String(),
		Title:       p.Kind.Title(),
		Severity:    p.Severity.String(),
		Persistence: p.PersistenceCount,
		Description: p.Description,
		Evidence:    p.Evidence,
		Remediation: p.Remediation,
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	detectOpts.detect = true
	p, err := newPipeline(ctx, detectOpts)
	if err != nil {
		return err
	}
	defer p.Close()

	patterns := p.assembler.BuildContext(ctx).AntiPatterns
	out := cmd.OutOrStdout()

	if detectJSON {
		views := make([]antiPatternView, 0, len(patterns))
		for _, ap := range patterns {
			views = append(views, newAntiPatternView(ap))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(patterns) == 0 {
		fmt.Fprintln(out, styles.Success.Render("No anti-patterns detected."))
		return nil
	}

	table := newSimpleTable("Anti-patterns", []string{"Kind", "Severity", "Streak", "Evidence"})
	for _, ap := range patterns {
		table.AddRow(ap.Kind.Title(), severityLabel(ap.Severity), strconv.Itoa(ap.PersistenceCount), strings.Join(ap.Evidence, "; "))
	}
	fmt.Fprintln(out, table.View())
	return nil
}
