package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	EnvPrefix string
	Source    string
	BasePath  string
	LogLevel  string
	LogFormat string
}

// AddGlobalFlags adds the persistent flags to the root command
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVar(&flags.EnvPrefix, "env-prefix", "", "environment variable prefix (default BEAVER_)")
	cmd.PersistentFlags().StringVar(&flags.Source, "source", "", "header source: local, memory, s3, gcs, azure, sftp, mount")
	cmd.PersistentFlags().StringVar(&flags.BasePath, "base-path", "", "confine the local source to this directory")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "log format: text, json")
}

// AnalyzeFlags holds the flags of commands that analyze files
type AnalyzeFlags struct {
	External       bool
	Output         string
	Recursive      bool
	Include        []string
	Exclude        []string
	Checksums      []string
	Workers        int
	HeaderSize     int
	DumpSize       int
	NoColor        bool
	FailOnMismatch bool
	Progress       bool
}

// AddAnalyzeFlags adds the analysis flags to cmd
func AddAnalyzeFlags(cmd *cobra.Command, flags *AnalyzeFlags) {
	cmd.Flags().BoolVar(&flags.External, "external", false, "identify with the external content sniffer instead of built-in signatures")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "text", "output format: text, json, yaml")
	cmd.Flags().BoolVarP(&flags.Recursive, "recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringSliceVar(&flags.Include, "include", nil, "only analyze files matching these globs")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "skip files matching these globs")
	cmd.Flags().StringSliceVar(&flags.Checksums, "checksum", nil, "checksums to compute: md5, sha1, sha256, sha512, crc32, xxhash")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 4, "number of files analyzed in parallel")
	cmd.Flags().IntVar(&flags.HeaderSize, "header-size", 64, "header bytes to read (32-64)")
	cmd.Flags().IntVar(&flags.DumpSize, "dump-size", 32, "header bytes to show in hex")
	cmd.Flags().BoolVar(&flags.NoColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&flags.FailOnMismatch, "fail-on-mismatch", false, "exit with status 2 when any extension does not match")
}
