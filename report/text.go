package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/signature"
)

const ruleWidth = 60

// TextFormatter renders the human-readable report
type TextFormatter struct {
	writer io.Writer
	opts   Options
	count  int

	title   *color.Color
	label   *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	subtle  *color.Color
	heading *color.Color
}

// NewTextFormatter creates a text formatter
func NewTextFormatter(opts Options) *TextFormatter {
	f := &TextFormatter{
		opts:    opts,
		title:   color.New(color.FgCyan, color.Bold),
		label:   color.New(color.FgWhite, color.Bold),
		good:    color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		subtle:  color.New(color.FgHiBlack),
		heading: color.New(color.FgMagenta),
	}

	for _, c := range []*color.Color{f.title, f.label, f.good, f.warn, f.bad, f.subtle, f.heading} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Name implements Formatter
func (f *TextFormatter) Name() string {
	return "text"
}

// Start implements Formatter
func (f *TextFormatter) Start(w io.Writer) error {
	f.writer = w
	f.count = 0
	return nil
}

// Result implements Formatter
func (f *TextFormatter) Result(r filesniff.BatchResult) error {
	f.count++
	w := f.writer

	if r.Err != nil {
		f.bad.Fprintf(w, "\n Error: %v\n", r.Err)
		return nil
	}

	fa := r.Analysis
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(w, "\n"+rule)
	f.title.Fprintln(w, " FILE ANALYSIS RESULTS")
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "\n %s %s\n", f.label.Sprint("File:"), fa.Name)
	fmt.Fprintf(w, "   Path: %s\n", fa.Path)
	fmt.Fprintf(w, "   Size: %s bytes\n", formatThousands(fa.Size))
	if !fa.ModTime.IsZero() {
		fmt.Fprintf(w, "   Modified: %s\n", fa.ModTime.Format("2006-01-02 15:04:05"))
	}
	ext := fa.Extension
	if ext == "" {
		ext = "(none)"
	}
	fmt.Fprintf(w, "   Extension: %s\n", ext)
	if fa.DeclaredMIME != "" {
		fmt.Fprintf(w, "   Declared MIME: %s\n", fa.DeclaredMIME)
	}

	id := fa.Identification
	fmt.Fprintf(w, "\n %s %s\n", f.label.Sprint("Identified as:"), f.identified(id))
	fmt.Fprintf(w, "   Method: %s\n", id.Method)
	fmt.Fprintf(w, "   Confidence: %s\n", id.Confidence)
	if id.MIME != "" {
		fmt.Fprintf(w, "   MIME Type: %s\n", id.MIME)
	}
	if id.Description != "" {
		fmt.Fprintf(w, "   Description: %s\n", id.Description)
	}

	switch fa.ExtensionMatch {
	case signature.VerdictMatch:
		f.good.Fprintln(w, "\n Extension matches file content")
	case signature.VerdictMismatch:
		f.warn.Fprintln(w, "\n  WARNING: Extension doesn't match file content!")
		f.warn.Fprintln(w, "   The file might have been renamed or is suspicious")
	}

	if fa.HeaderErr != nil {
		f.bad.Fprintf(w, "\n Header could not be read: %v\n", fa.HeaderErr)
	}

	if len(fa.Checksums) > 0 {
		f.heading.Fprintln(w, "\n Checksums:")
		for _, algo := range sortedChecksums(fa.Checksums) {
			fmt.Fprintf(w, "   %s: %s\n", algo, fa.Checksums[algo])
		}
	}
	if fa.ChecksumErr != nil {
		f.bad.Fprintf(w, "\n Checksum failed: %v\n", fa.ChecksumErr)
	}

	if shown := dump(fa.Header, f.opts.DumpSize); len(shown) > 0 {
		f.heading.Fprintf(w, "\n First %d bytes (hex):\n", len(shown))
		for _, line := range strings.Split(HexDump(shown, 16), "\n") {
			fmt.Fprintf(w, "   %s\n", line)
		}

		f.heading.Fprintln(w, "\n   ASCII preview:")
		fmt.Fprintf(w, "   %s\n", f.subtle.Sprint(ASCIIPreview(shown)))
	}

	fmt.Fprintln(w, "\n"+rule)
	return nil
}

func (f *TextFormatter) identified(id signature.Result) string {
	if !id.Identified() {
		return f.bad.Sprint(id.TypeName)
	}
	return f.good.Sprint(id.TypeName)
}

// Complete implements Formatter. The summary line is only printed for
// batches of more than one file.
func (f *TextFormatter) Complete(s *filesniff.BatchSummary) error {
	if s == nil || f.count < 2 {
		return nil
	}

	fmt.Fprintf(f.writer, "\n %s %d file(s): %d identified, ", f.label.Sprint("Analyzed"), s.Total, s.Identified)
	mismatched := fmt.Sprintf("%d mismatched", s.Mismatched)
	if s.Mismatched > 0 {
		mismatched = f.warn.Sprint(mismatched)
	}
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = f.bad.Sprint(failed)
	}
	fmt.Fprintf(f.writer, "%s, %d unreadable, %s\n", mismatched, s.Unreadable, failed)
	return nil
}

// formatThousands renders n with comma thousands separators
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
