package signature

import (
	"bytes"
	"fmt"
)

// MaxHeaderSize is the largest prefix the engine ever needs. Every rule must
// fit inside it.
const MaxHeaderSize = 64

// MinHeaderSize is the smallest header read the engine accepts. Shorter
// reads would hide the longer seed signatures.
const MinHeaderSize = 32

// Rule is a single file signature: a byte pattern expected at a fixed offset,
// plus the descriptor reported when it matches.
type Rule struct {
	Pattern   []byte // Magic bytes to match
	Offset    int    // Offset from start of file
	TypeName  string // Canonical type name, e.g. "PNG"
	Extension string // Default extension including the dot
	MIME      string
}

// Matches reports whether header carries the rule's pattern at its offset.
// A header that is too short never matches.
func (r Rule) Matches(header []byte) bool {
	end := r.Offset + len(r.Pattern)
	if len(r.Pattern) == 0 || r.Offset < 0 || end > len(header) {
		return false
	}
	return bytes.Equal(header[r.Offset:end], r.Pattern)
}

// Span returns the number of header bytes needed to evaluate the rule.
func (r Rule) Span() int {
	return r.Offset + len(r.Pattern)
}

// String returns a compact description such as "PNG@0[89 50 4e 47 ...]".
func (r Rule) String() string {
	return fmt.Sprintf("%s@%d[% x]", r.TypeName, r.Offset, r.Pattern)
}

func (r Rule) validate(index int) error {
	if len(r.Pattern) == 0 {
		return NewRuleError(ErrorTypePattern, index, "pattern must not be empty")
	}
	if r.Offset < 0 {
		return NewRuleError(ErrorTypeOffset, index, fmt.Sprintf("offset %d is negative", r.Offset))
	}
	if r.Span() > MaxHeaderSize {
		return NewRuleError(ErrorTypeOffset, index,
			fmt.Sprintf("offset+len(pattern)=%d exceeds max header size %d", r.Span(), MaxHeaderSize))
	}
	if r.TypeName == "" {
		return NewRuleError(ErrorTypeTypeName, index, "type name must not be empty")
	}
	return nil
}

// clone returns a copy whose pattern does not alias the original.
func (r Rule) clone() Rule {
	r.Pattern = append([]byte(nil), r.Pattern...)
	return r
}
