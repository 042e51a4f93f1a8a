package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"steer/internal/prompt"
)

var (
	watchOpts     pipelineOptions
	watchDebounce time.Duration
)

// watchCmd re-renders whenever the session or a template changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the prompt whenever the session file or a template changes",
	RunE:  runWatch,
}

func init() {
	addPipelineFlags(watchCmd, &watchOpts)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before re-rendering")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	renderOnce(ctx, out, watchOpts)

	dir := watchOpts.templatesDir
	if dir == "" {
		dir = cfg.Templates.Dir
	}
	w, err := prompt.NewWatcher(inWorkspace(dir), []string{inWorkspace(watchOpts.sessionPath)},
		func(ctx context.Context, changed []string) {
			logger.Info("change detected", zap.Strings("paths", changed))
			renderOnce(ctx, out, watchOpts)
		})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.SetDebounce(watchDebounce)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintln(cmd.ErrOrStderr(), styles.Muted.Render("Watching "+strings.Join(w.WatchedDirs(), ", ")+" (Ctrl+C to stop)"))
	<-ctx.Done()

	stats := w.Stats()
	logger.Info("watch stopped", zap.Int("events", stats.Events), zap.Int("renders", stats.Notifications))
	return nil
}

// renderOnce renders with a fresh pipeline. Errors are printed, not returned,
// so a half-saved session file does not end the watch.
func renderOnce(ctx context.Context, out io.Writer, opts pipelineOptions) {
	p, err := newPipeline(ctx, opts)
	if err != nil {
		fmt.Fprintln(out, styles.Error.Render("render failed: "+err.Error()))
		return
	}
	defer p.Close()

	text, _, err := p.render(ctx)
	if err != nil {
		fmt.Fprintln(out, styles.Error.Render("render failed: "+err.Error()))
		return
	}
	fmt.Fprintln(out, styles.Title.Render(fmt.Sprintf("── %s prompt · %s ──", p.mode, time.Now().Format("15:04:05"))))
	fmt.Fprint(out, text)
}
