package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"steer/internal/store"
)

var historyLimit int

// historyCmd lists recorded renders from the audit log
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent renders from the audit log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", store.DefaultRecentLimit, "Number of renders to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	audit, err := store.OpenAudit(inWorkspace(cfg.Audit.DatabasePath))
	if err != nil {
		return err
	}
	defer audit.Close()

	records, err := audit.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("No renders recorded yet."))
		return nil
	}

	table := newSimpleTable("Recent renders", []string{"When", "Session", "Mode", "Iter", "Task", "Bytes", "Anti-patterns"})
	for _, r := range records {
		table.AddRow(
			r.CreatedAt.Local().Format("01-02 15:04:05"),
			shorten(r.SessionID, 8),
			r.Mode,
			strconv.Itoa(r.Iteration),
			r.TaskID,
			strconv.Itoa(r.PromptLength),
			strings.Join(r.AntiPatterns, ", "),
		)
	}
	fmt.Fprintln(out, table.View())
	return nil
}
