package signature

import (
	"path/filepath"
	"strings"
)

// Verdict is the outcome of an extension consistency check. The zero value
// means no extension was available to check.
type Verdict int

const (
	VerdictUnchecked Verdict = iota
	VerdictMatch
	VerdictMismatch
)

// Bool returns the verdict as a boolean and whether it was checked at all
func (v Verdict) Bool() (match bool, checked bool) {
	return v == VerdictMatch, v != VerdictUnchecked
}

// String returns "match", "mismatch" or "unchecked"
func (v Verdict) String() string {
	switch v {
	case VerdictMatch:
		return "match"
	case VerdictMismatch:
		return "mismatch"
	default:
		return "unchecked"
	}
}

// MarshalJSON encodes the verdict as true, false or null
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictMatch:
		return []byte("true"), nil
	case VerdictMismatch:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML encodes the verdict as true, false or null
func (v Verdict) MarshalYAML() (interface{}, error) {
	match, checked := v.Bool()
	if !checked {
		return nil, nil
	}
	return match, nil
}

// extensionTypes maps a declared extension to the type-name substrings that
// are acceptable for it.
var extensionTypes = map[string][]string{
	".jpg":  {"JPEG", "JFIF", "EXIF"},
	".jpeg": {"JPEG", "JFIF", "EXIF"},
	".png":  {"PNG"},
	".gif":  {"GIF", "GIF87a", "GIF89a"},
	".bmp":  {"BMP", "Bitmap"},
	".pdf":  {"PDF"},
	".doc":  {"DOC", "Microsoft Word", "MS Word"},
	".docx": {"DOC", "Microsoft Word", "MS Word"},
	".zip":  {"ZIP"},
	".rar":  {"RAR"},
	".7z":   {"7Z", "7-Zip"},
	".mp3":  {"MP3", "MPEG", "ID3"},
	".mp4":  {"MP4", "MPEG-4"},
	".exe":  {"EXE", "PE32", "PE64", "MZ"},
	".txt":  {"Text", "ASCII", "UTF", "BOM"},
}

// ExpectedTypes returns the acceptable type-name substrings for ext
func ExpectedTypes(ext string) ([]string, bool) {
	types, ok := extensionTypes[ext]
	if !ok {
		return nil, false
	}
	out := make([]string, len(types))
	copy(out, types)
	return out, true
}

// NormalizeExtension returns the lowercased extension of name, including the
// leading dot, or "" when name has none.
func NormalizeExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// CheckExtension reports whether a declared extension is consistent with an
// identification. ext must be lowercased with its leading dot.
//
// An empty ext is VerdictUnchecked. An extension missing from the mapping
// table is VerdictMismatch: it was checked and nothing vouches for it.
func CheckExtension(ext string, r Result) Verdict {
	if ext == "" {
		return VerdictUnchecked
	}

	expected, ok := extensionTypes[ext]
	if !ok {
		return VerdictMismatch
	}

	identified := strings.ToUpper(r.TypeName)
	for _, candidate := range expected {
		if strings.Contains(identified, strings.ToUpper(candidate)) {
			return VerdictMatch
		}
	}
	return VerdictMismatch
}
