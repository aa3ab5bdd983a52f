package cli

import (
	"fmt"
	"strings"

	"github.com/gobeaver/filesniff/signature"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check EXT TYPE",
		Short: "Check whether an extension is consistent with a type name",
		Long: `Run the extension consistency check on its own. EXT may be given with or
without its leading dot; TYPE is an identified type name such as "PNG" or
"PE32 executable".

Exit status is 2 on a mismatch.`,
		Example: `  filesniff check jpg JPEG
  filesniff check .exe "PE32 executable"`,
		Args: cobra.ExactArgs(2),
		RunE: runCheck,
	}

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ext := strings.ToLower(strings.TrimSpace(args[0]))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	typeName := args[1]

	verdict := signature.CheckExtension(ext, signature.Result{TypeName: typeName})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: extension %q, type %q\n", verdict, ext, typeName)

	if expected, ok := signature.ExpectedTypes(ext); ok {
		fmt.Fprintf(out, "accepted types for %s: %s\n", ext, strings.Join(expected, ", "))
	} else if ext != "" {
		fmt.Fprintf(out, "no accepted types are known for %s\n", ext)
	}

	if verdict == signature.VerdictMismatch {
		return &ExitError{Code: 2, Err: fmt.Errorf("%s does not match %s", ext, typeName)}
	}
	return nil
}
