// Package report renders file analyses for people and for machines.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/gobeaver/filesniff"
)

// Formatter renders a stream of batch results followed by a summary.
// Calls are made one at a time.
type Formatter interface {
	// Start prepares the formatter to write to w
	Start(w io.Writer) error

	// Result renders one analyzed (or failed) file
	Result(r filesniff.BatchResult) error

	// Complete renders the summary and flushes anything buffered
	Complete(summary *filesniff.BatchSummary) error

	// Name returns the formatter name
	Name() string
}

// Options tunes rendering
type Options struct {
	// Color enables ANSI colors in text output
	Color bool

	// DumpSize is how many header bytes the text output shows in hex
	DumpSize int
}

// New returns the formatter registered under name ("text", "json" or "yaml")
func New(name string, opts Options) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "yaml":
		return NewYAMLFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", name)
	}
}

// Names returns the supported formatter names
func Names() []string {
	return []string{"json", "text", "yaml"}
}

// dump returns the leading bytes shown in reports
func dump(header []byte, size int) []byte {
	if size < 0 {
		size = 0
	}
	if len(header) < size {
		return header
	}
	return header[:size]
}

func sortedChecksums(sums map[filesniff.ChecksumAlgorithm]string) []filesniff.ChecksumAlgorithm {
	algos := make([]filesniff.ChecksumAlgorithm, 0, len(sums))
	for algo := range sums {
		algos = append(algos, algo)
	}
	sort.Slice(algos, func(i, j int) bool { return algos[i] < algos[j] })
	return algos
}
