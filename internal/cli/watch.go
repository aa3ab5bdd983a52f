package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/internal/logging"
	"github.com/gobeaver/filesniff/report"
	"github.com/spf13/cobra"
)

// watchCacheTTL bounds how long an analysis is reused during a watch.
const watchCacheTTL = 10 * time.Minute

// WatchFlags holds watch command flags
type WatchFlags struct {
	AnalyzeFlags
	MaxEvents int
}

// NewWatchCommand creates the watch command
func NewWatchCommand(global *GlobalFlags) *cobra.Command {
	flags := &WatchFlags{}

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Identify files as they arrive in a directory",
		Long: `Watch DIR (and its subdirectories) and analyze every file that is created
or rewritten there, once writes have settled. Files matching --exclude or
missing --include are ignored. Stops on interrupt, or after --max-events
files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], global, flags)
		},
	}

	AddAnalyzeFlags(cmd, &flags.AnalyzeFlags)
	cmd.Flags().IntVar(&flags.MaxEvents, "max-events", 0, "stop after this many files (0 = run until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, global *GlobalFlags, flags *WatchFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, global, &flags.AnalyzeFlags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	cache := filesniff.NewMemoryCache()
	analyzer, err := filesniff.New(cfg,
		filesniff.WithLogger(logger),
		filesniff.WithCache(cache, watchCacheTTL),
	)
	if err != nil {
		return err
	}
	go sweepCache(ctx, cache, watchCacheTTL)

	watcher, ok := analyzer.Source().(filesniff.CanWatch)
	if !ok {
		return fmt.Errorf("source %s cannot watch directories: %w", cfg.Source, filesniff.ErrNotSupported)
	}

	formatter, err := report.New(cfg.Output, report.Options{Color: cfg.Color, DumpSize: cfg.DumpSize})
	if err != nil {
		return err
	}

	paths, errs, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	logger.Info(ctx, "watching", logging.Fields{"dir": dir})

	out := cmd.OutOrStdout()
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn(ctx, "watch error", logging.Fields{"dir": dir, "error": err.Error()})

		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if !analyzer.Filter().Match(p) {
				continue
			}

			fa, err := analyzer.Analyze(ctx, p)
			if err != nil && ctx.Err() != nil {
				return nil
			}

			if err := formatter.Start(out); err != nil {
				return err
			}
			if err := formatter.Result(filesniff.BatchResult{Path: p, Analysis: fa, Err: err}); err != nil {
				return err
			}
			if err := formatter.Complete(nil); err != nil {
				return err
			}

			seen++
			if flags.MaxEvents > 0 && seen >= flags.MaxEvents {
				return nil
			}
		}
	}
}

// sweepCache drops expired entries every interval until ctx is done.
func sweepCache(ctx context.Context, cache *filesniff.MemoryCache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cache.Cleanup()
		}
	}
}
