package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/report"
	"github.com/spf13/cobra"
)

// NewIdentifyCommand creates the identify command
func NewIdentifyCommand(global *GlobalFlags) *cobra.Command {
	flags := &AnalyzeFlags{}

	cmd := &cobra.Command{
		Use:   "identify PATH...",
		Short: "Identify files and check their extensions",
		Long: `Identify each file from its leading bytes and compare the result with the
file's extension. Directories are expanded (recursively with -r) and their
entries filtered with --include and --exclude.

Exit status is 1 when any file could not be analyzed and 2 when
--fail-on-mismatch is set and any extension does not match.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(cmd, args, global, flags)
		},
	}

	AddAnalyzeFlags(cmd, flags)
	AddProgressFlag(cmd, flags)

	return cmd
}

func runIdentify(cmd *cobra.Command, args []string, global *GlobalFlags, flags *AnalyzeFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, global, flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	analyzer, err := filesniff.New(cfg, filesniff.WithLogger(logger))
	if err != nil {
		return err
	}

	paths, err := analyzer.Expand(ctx, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no files to analyze")
	}

	formatter, err := report.New(cfg.Output, report.Options{Color: cfg.Color, DumpSize: cfg.DumpSize})
	if err != nil {
		return err
	}
	if err := formatter.Start(cmd.OutOrStdout()); err != nil {
		return err
	}

	bar := startProgress(cmd.ErrOrStderr(), len(paths), flags.Progress)

	var renderErr error
	summary, err := analyzer.AnalyzeBatch(ctx, paths, func(r filesniff.BatchResult) {
		bar.increment()
		if renderErr == nil {
			renderErr = formatter.Result(r)
		}
	})
	bar.finish()
	if err != nil {
		return err
	}
	if renderErr != nil {
		return fmt.Errorf("failed to render results: %w", renderErr)
	}
	if err := formatter.Complete(summary); err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}

	if summary.Failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d file(s) could not be analyzed", summary.Failed, summary.Total)}
	}
	if flags.FailOnMismatch && summary.Mismatched > 0 {
		return &ExitError{Code: 2, Err: fmt.Errorf("%d of %d file(s) do not match their extension", summary.Mismatched, summary.Total)}
	}
	return nil
}
