package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"steer/internal/codescan"
)

// scanCmd runs the code anti-pattern scanner over files
var scanCmd = &cobra.Command{
	Use:   "scan FILE...",
	Short: "Scan source files for code anti-patterns (panics, unwraps, suppressions)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	paths := make([]string, 0, len(args))
	for _, a := range args {
		paths = append(paths, inWorkspace(a))
	}

	scanner := codescan.NewScanner(codescan.WithMaxFileBytes(cfg.Scan.MaxFileBytes))
	warnings, err := scanner.ScanFiles(ctx, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(warnings) == 0 {
		fmt.Fprintln(out, styles.Success.Render("No code anti-patterns found."))
		return nil
	}

	table := newSimpleTable(fmt.Sprintf("Code warnings (%d)", len(warnings)), []string{"Location", "Rule", "Severity", "Message"})
	for _, w := range warnings {
		table.AddRow(w.Location(), w.Rule, severityLabel(w.Severity), w.Message)
	}
	fmt.Fprintln(out, table.View())
	return nil
}
