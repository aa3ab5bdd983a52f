package cli

import (
	"io"
	"strings"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/internal/logging"
	"github.com/spf13/cobra"
)

// loadConfig reads the environment and applies any flag the user set
// explicitly. Unset flags leave environment values alone.
func loadConfig(cmd *cobra.Command, global *GlobalFlags, analyze *AnalyzeFlags) (*filesniff.Config, error) {
	var (
		cfg *filesniff.Config
		err error
	)
	if global.EnvPrefix != "" {
		cfg, err = filesniff.WithPrefix(global.EnvPrefix).Config()
	} else {
		cfg, err = filesniff.GetConfig()
	}
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("source") {
		cfg.Source = global.Source
	}
	if changed("base-path") {
		cfg.LocalBasePath = global.BasePath
	}
	if changed("log-level") {
		cfg.LogLevel = global.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = global.LogFormat
	}

	if analyze == nil {
		return cfg, nil
	}

	if changed("external") {
		cfg.UseExternalClassifier = analyze.External
	}
	if changed("output") {
		cfg.Output = analyze.Output
	}
	if changed("recursive") {
		cfg.Recursive = analyze.Recursive
	}
	if changed("include") {
		cfg.Include = strings.Join(analyze.Include, ",")
	}
	if changed("exclude") {
		cfg.Exclude = strings.Join(analyze.Exclude, ",")
	}
	if changed("checksum") {
		cfg.Checksums = strings.Join(analyze.Checksums, ",")
	}
	if changed("workers") {
		cfg.Workers = analyze.Workers
	}
	if changed("header-size") {
		cfg.HeaderSize = analyze.HeaderSize
		if !changed("dump-size") && cfg.DumpSize > cfg.HeaderSize {
			cfg.DumpSize = cfg.HeaderSize
		}
	}
	if changed("dump-size") {
		cfg.DumpSize = analyze.DumpSize
	}
	if analyze.NoColor {
		cfg.Color = false
	}

	return cfg, nil
}

// newLogger builds the diagnostic logger described by cfg
func newLogger(cfg *filesniff.Config, w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewStreamLogger(logging.StreamLoggerConfig{
		Writer: w,
		Format: logging.Format(cfg.LogFormat),
		Level:  level,
	}), nil
}
