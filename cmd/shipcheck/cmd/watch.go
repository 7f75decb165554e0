package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/shipcheck/internal/output"
	"github.com/Aman-CERP/shipcheck/internal/report"
	"github.com/Aman-CERP/shipcheck/internal/ui"
	"github.com/Aman-CERP/shipcheck/internal/watcher"
	"github.com/Aman-CERP/shipcheck/pkg/shipcheck"
)

func newWatchCmd() *cobra.Command {
	flags := &checkFlags{}
	var poll bool

	cmd := &cobra.Command{
		Use:   "watch [config-path] [profile-path]",
		Short: "Re-run the check whenever the config, profiles or assets change",
		Long: `Run the check, then watch the app config, the build-profile document
and every asset they reference. Each change re-runs the check; the set of
watched assets follows the config as it is edited.

Stop with Ctrl-C.`,
		Example: `  # Watch the current project
  shipcheck watch

  # Use polling on file systems without change notification
  shipcheck watch --poll`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, flags, poll)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&poll, "poll", false, "Poll for changes instead of using file system notifications")

	return cmd
}

// watchSession re-runs the check and keeps the watched set current.
type watchSession struct {
	runner   *shipcheck.Runner
	req      shipcheck.Request
	watcher  *watcher.FileWatcher
	out      *output.Writer
	reporter *report.Reporter
	logger   *slog.Logger
}

// check runs once and points the watcher at the files the result depends on.
func (s *watchSession) check(ctx context.Context, reason string) {
	s.out.Separator(reason)

	var targets []string
	res, err := s.runner.Run(ctx, s.req)
	if err != nil {
		_ = s.reporter.RenderFatal(err)
		// Keep watching the documents so fixing them triggers a re-run.
		if paths, perr := s.runner.Paths(s.req); perr == nil {
			targets = []string{paths.ConfigPath, paths.ProfilePath}
		}
	} else {
		_ = s.reporter.Render(res.Report)
		targets = res.WatchTargets()
	}

	if err := s.watcher.SetTargets(targets); err != nil {
		s.logger.Warn("Cannot update watched files", slog.String("error", err.Error()))
	}
}

func runWatch(cmd *cobra.Command, args []string, f *checkFlags, poll bool) error {
	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, dir, err := loadConfig()
	if err != nil {
		return renderFatal(cmd, f, err)
	}
	runner, err := newRunner(cfg, f)
	if err != nil {
		return renderFatal(cmd, f, err)
	}

	logger := slog.Default()
	w, err := watcher.New(watcher.Options{
		DebounceWindow: cfg.WatchDebounce(),
		ForcePolling:   poll,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	stdout := cmd.OutOrStdout()
	styles := ui.GetStyles(stdout, f.noColor)
	s := &watchSession{
		runner:   runner,
		req:      request(cmd, dir, cfg, args, f),
		watcher:  w,
		out:      output.NewStyled(stdout, styles),
		reporter: report.NewReporter(stdout, report.WithStyles(styles)),
		logger:   logger,
	}

	s.check(ctx, "initial check")
	s.out.Statusf("👀", "Watching %d files (%s); press Ctrl-C to stop", len(w.Targets()), w.Mode())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		errs := w.Errors()
		for {
			select {
			case <-gctx.Done():
				return nil
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				s.check(gctx, describeBatch(batch))
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				s.out.Warningf("watch error: %v", err)
			}
		}
	})
	return g.Wait()
}

// describeBatch names what triggered a re-run.
func describeBatch(batch []watcher.FileEvent) string {
	switch len(batch) {
	case 0:
		return "change"
	case 1:
		return fmt.Sprintf("%s %s", filepath.Base(batch[0].Path), opVerb(batch[0].Operation))
	default:
		return fmt.Sprintf("%d files changed", len(batch))
	}
}

func opVerb(op watcher.Operation) string {
	switch op {
	case watcher.OpCreate:
		return "created"
	case watcher.OpDelete, watcher.OpRename:
		return "removed"
	default:
		return "changed"
	}
}
