package report

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/gobeaver/filesniff"
	"github.com/gobeaver/filesniff/signature"
	"gopkg.in/yaml.v3"
)

// FileReport is the machine-readable view of one file
type FileReport struct {
	Path           string            `json:"path" yaml:"path"`
	Name           string            `json:"name,omitempty" yaml:"name,omitempty"`
	Size           int64             `json:"size" yaml:"size"`
	Modified       *time.Time        `json:"modified,omitempty" yaml:"modified,omitempty"`
	Extension      string            `json:"extension" yaml:"extension"`
	DeclaredMIME   string            `json:"declared_mime,omitempty" yaml:"declared_mime,omitempty"`
	Identification *signature.Result `json:"identification,omitempty" yaml:"identification,omitempty"`
	ExtensionMatch signature.Verdict `json:"extension_match" yaml:"extension_match"`
	Header         string            `json:"header,omitempty" yaml:"header,omitempty"`
	HeaderError    string            `json:"header_error,omitempty" yaml:"header_error,omitempty"`
	Checksums      map[string]string `json:"checksums,omitempty" yaml:"checksums,omitempty"`
	ChecksumError  string            `json:"checksum_error,omitempty" yaml:"checksum_error,omitempty"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Document is the complete machine-readable output of a run
type Document struct {
	Files   []FileReport            `json:"files" yaml:"files"`
	Summary *filesniff.BatchSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// NewFileReport converts a batch result. Header is the hex of the first
// dumpSize header bytes.
func NewFileReport(r filesniff.BatchResult, dumpSize int) FileReport {
	if r.Err != nil {
		return FileReport{Path: r.Path, Error: r.Err.Error()}
	}

	fa := r.Analysis
	id := fa.Identification
	out := FileReport{
		Path:           fa.Path,
		Name:           fa.Name,
		Size:           fa.Size,
		Extension:      fa.Extension,
		DeclaredMIME:   fa.DeclaredMIME,
		Identification: &id,
		ExtensionMatch: fa.ExtensionMatch,
		Header:         hex.EncodeToString(dump(fa.Header, dumpSize)),
	}
	if !fa.ModTime.IsZero() {
		mod := fa.ModTime.UTC()
		out.Modified = &mod
	}
	if fa.HeaderErr != nil {
		out.HeaderError = fa.HeaderErr.Error()
	}
	if len(fa.Checksums) > 0 {
		out.Checksums = make(map[string]string, len(fa.Checksums))
		for algo, sum := range fa.Checksums {
			out.Checksums[string(algo)] = sum
		}
	}
	if fa.ChecksumErr != nil {
		out.ChecksumError = fa.ChecksumErr.Error()
	}
	return out
}

// documentFormatter buffers results and encodes one Document, sorted by
// path, on Complete.
type documentFormatter struct {
	name   string
	opts   Options
	writer io.Writer
	doc    Document
	encode func(w io.Writer, doc *Document) error
}

// NewJSONFormatter creates a formatter writing one indented JSON document
func NewJSONFormatter(opts Options) Formatter {
	return &documentFormatter{
		name: "json",
		opts: opts,
		encode: func(w io.Writer, doc *Document) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}

// NewYAMLFormatter creates a formatter writing one YAML document
func NewYAMLFormatter(opts Options) Formatter {
	return &documentFormatter{
		name: "yaml",
		opts: opts,
		encode: func(w io.Writer, doc *Document) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func (f *documentFormatter) Name() string {
	return f.name
}

func (f *documentFormatter) Start(w io.Writer) error {
	f.writer = w
	f.doc = Document{Files: []FileReport{}}
	return nil
}

func (f *documentFormatter) Result(r filesniff.BatchResult) error {
	f.doc.Files = append(f.doc.Files, NewFileReport(r, f.opts.DumpSize))
	return nil
}

func (f *documentFormatter) Complete(summary *filesniff.BatchSummary) error {
	sort.SliceStable(f.doc.Files, func(i, j int) bool {
		return f.doc.Files[i].Path < f.doc.Files[j].Path
	})
	f.doc.Summary = summary
	return f.encode(f.writer, &f.doc)
}
