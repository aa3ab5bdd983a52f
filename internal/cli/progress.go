package cli

import (
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
)

// AddProgressFlag adds --progress to commands that run a batch
func AddProgressFlag(cmd *cobra.Command, flags *AnalyzeFlags) {
	cmd.Flags().BoolVar(&flags.Progress, "progress", false, "show a progress bar on stderr")
}

// progress counts analyzed files. A nil *progress does nothing.
type progress struct {
	bar *pb.ProgressBar
}

func startProgress(w io.Writer, total int, enabled bool) *progress {
	if !enabled {
		return nil
	}
	bar := pb.New(total)
	bar.SetTemplate(pb.Simple)
	bar.SetWriter(w)
	bar.Start()
	return &progress{bar: bar}
}

func (p *progress) increment() {
	if p != nil {
		p.bar.Increment()
	}
}

func (p *progress) finish() {
	if p != nil {
		p.bar.Finish()
	}
}
