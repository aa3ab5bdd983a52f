// Package cli implements the filesniff command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	// Sources shipped in the main module
	_ "github.com/gobeaver/filesniff/source/local"
	_ "github.com/gobeaver/filesniff/source/memory"
)

// ExitError carries a process exit status out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the status the process should exit with for err
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// NewRootCommand creates the filesniff command. Invoked with paths and no
// subcommand it behaves like identify.
func NewRootCommand() *cobra.Command {
	global := &GlobalFlags{}
	analyze := &AnalyzeFlags{}

	cmd := &cobra.Command{
		Use:   "filesniff [PATH...]",
		Short: "Identify files by their magic bytes",
		Long: `filesniff identifies what files really are from their leading bytes and
warns when a file's extension does not match its content.

Configuration is read from BEAVER_FILESNIFF_* environment variables;
flags override them.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runIdentify(cmd, args, global, analyze)
		},
	}

	AddGlobalFlags(cmd, global)
	AddAnalyzeFlags(cmd, analyze)
	AddProgressFlag(cmd, analyze)

	cmd.AddCommand(NewIdentifyCommand(global))
	cmd.AddCommand(NewWatchCommand(global))
	cmd.AddCommand(NewSignaturesCommand())
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
