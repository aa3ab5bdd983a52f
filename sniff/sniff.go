// Package sniff provides the high-confidence content sniffer used when the
// external classifier is enabled. It recognises far more formats than the
// built-in signature table by delegating to github.com/h2non/filetype, and
// falls back to a plain-text check for content filetype does not cover.
package sniff

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gobeaver/filesniff/signature"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// ScanSize is the number of leading bytes filetype needs to see every
// format it knows about.
const ScanSize = 262

// HeaderReader returns up to n leading bytes of the file at path
type HeaderReader interface {
	ReadHeader(ctx context.Context, path string, n int) ([]byte, error)
}

// Sniffer implements signature.ExternalClassifier on top of a HeaderReader
type Sniffer struct {
	reader HeaderReader
}

// New creates a sniffer that reads content through r
func New(r HeaderReader) *Sniffer {
	return &Sniffer{reader: r}
}

// Describe reads the head of path and describes it. A nil description with
// a nil error means the content was not recognised.
func (s *Sniffer) Describe(ctx context.Context, path string) (*signature.Description, error) {
	buf, err := s.reader.ReadHeader(ctx, path, ScanSize)
	if err != nil {
		return nil, err
	}
	return DescribeBytes(buf), nil
}

// DescribeBytes describes buf, or returns nil when it is empty or unrecognised
func DescribeBytes(buf []byte) *signature.Description {
	if len(buf) == 0 {
		return nil
	}

	kind, err := filetype.Match(buf)
	if err == nil && kind != filetype.Unknown {
		return &signature.Description{
			Text: describeKind(kind, buf),
			MIME: kind.MIME.Value,
		}
	}

	if text, ok := describeText(buf); ok {
		return &signature.Description{Text: text, MIME: "text/plain"}
	}

	return nil
}

func describeKind(kind types.Type, buf []byte) string {
	name := strings.ToUpper(kind.Extension)

	var noun string
	switch kind.MIME.Type {
	case "image", "audio", "video", "font":
		noun = kind.MIME.Type + " data"
	default:
		switch {
		case filetype.IsDocument(buf) || kind.MIME.Subtype == "pdf":
			noun = "document"
		case filetype.IsArchive(buf):
			noun = "archive data"
		default:
			noun = "data"
		}
	}

	return name + " " + noun
}

// describeText reports ASCII or UTF-8 text. Control bytes other than tab,
// newline, form feed and carriage return disqualify the buffer. A multi-byte
// rune cut off at the end of buf is tolerated.
func describeText(buf []byte) (string, bool) {
	ascii := true
	for i := 0; i < len(buf); {
		b := buf[i]
		if b < utf8.RuneSelf {
			if b < 0x20 && b != '\t' && b != '\n' && b != '\f' && b != '\r' {
				return "", false
			}
			if b == 0x7f {
				return "", false
			}
			i++
			continue
		}

		ascii = false
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(buf[i:]) {
				break
			}
			return "", false
		}
		i += size
	}

	if ascii {
		return "ASCII text", true
	}
	return "UTF-8 Unicode text", true
}
