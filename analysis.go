package filesniff

import (
	"time"

	"github.com/gobeaver/filesniff/signature"
)

// FileAnalysis is everything learned about one file. It is built once per
// analyzed path and handed to a renderer.
type FileAnalysis struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time

	// Extension is lowercased with its leading dot, or empty
	Extension string
	// DeclaredMIME is the MIME type the extension claims
	DeclaredMIME string

	// Header holds the bytes actually read, at most Config.HeaderSize
	Header []byte
	// HeaderErr is set when the header could not be read. The analysis
	// still completes with an Unknown identification.
	HeaderErr error

	Identification signature.Result
	ExtensionMatch signature.Verdict

	Checksums   map[ChecksumAlgorithm]string
	ChecksumErr error
}

// Suspicious reports whether the content contradicts the declared extension
func (fa *FileAnalysis) Suspicious() bool {
	return fa.ExtensionMatch == signature.VerdictMismatch
}

// clone returns a copy that shares no header bytes or checksum map with fa
func (fa *FileAnalysis) clone() *FileAnalysis {
	c := *fa
	if fa.Header != nil {
		c.Header = append([]byte{}, fa.Header...)
	}
	if fa.Checksums != nil {
		c.Checksums = make(map[ChecksumAlgorithm]string, len(fa.Checksums))
		for k, v := range fa.Checksums {
			c.Checksums[k] = v
		}
	}
	return &c
}
