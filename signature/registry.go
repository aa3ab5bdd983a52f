package signature

import "sync"

// seedRules is the built-in signature table. Order is significant: on an
// equal-length match the earlier rule wins.
var seedRules = []Rule{
	// Images
	{Pattern: []byte{0xFF, 0xD8, 0xFF}, TypeName: "JPEG", Extension: ".jpg", MIME: "image/jpeg"},
	{Pattern: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, TypeName: "PNG", Extension: ".png", MIME: "image/png"},
	{Pattern: []byte("GIF87a"), TypeName: "GIF87a", Extension: ".gif", MIME: "image/gif"},
	{Pattern: []byte("GIF89a"), TypeName: "GIF89a", Extension: ".gif", MIME: "image/gif"},
	{Pattern: []byte("BM"), TypeName: "BMP", Extension: ".bmp", MIME: "image/bmp"},

	// Documents
	{Pattern: []byte("%PDF"), TypeName: "PDF", Extension: ".pdf", MIME: "application/pdf"},
	{Pattern: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, TypeName: "DOC", Extension: ".doc", MIME: "application/msword"},

	// Archives
	{Pattern: []byte{0x50, 0x4B, 0x03, 0x04}, TypeName: "ZIP", Extension: ".zip", MIME: "application/zip"},
	{Pattern: []byte("Rar!\x1a\x07\x00"), TypeName: "RAR", Extension: ".rar", MIME: "application/x-rar-compressed"},
	{Pattern: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}, TypeName: "7Z", Extension: ".7z", MIME: "application/x-7z-compressed"},

	// Media
	{Pattern: []byte{0xFF, 0xFB}, TypeName: "MP3", Extension: ".mp3", MIME: "audio/mpeg"}, // MP3 frame sync
	// Only matches a 28-byte ftyp box; other box sizes fall through.
	{Pattern: []byte{0x00, 0x00, 0x00, 0x1C, 'f', 't', 'y', 'p'}, TypeName: "MP4", Extension: ".mp4", MIME: "video/mp4"},

	// Executables
	{Pattern: []byte("MZ"), TypeName: "EXE", Extension: ".exe", MIME: "application/x-msdownload"},

	// Text with BOM
	{Pattern: []byte{0xEF, 0xBB, 0xBF}, TypeName: "UTF-8 BOM", Extension: ".txt", MIME: "text/plain"},
	{Pattern: []byte{0xFF, 0xFE}, TypeName: "UTF-16 LE", Extension: ".txt", MIME: "text/plain"},
	{Pattern: []byte{0xFE, 0xFF}, TypeName: "UTF-16 BE", Extension: ".txt", MIME: "text/plain"},
}

// Registry is an ordered, read-only collection of signature rules.
// It is safe for concurrent use; nothing mutates it after construction.
type Registry struct {
	rules []Rule
}

// NewRegistry validates the rules and returns a registry holding copies of
// them in the given order.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{rules: make([]Rule, 0, len(rules))}
	for i, rule := range rules {
		if err := rule.validate(i); err != nil {
			return nil, err
		}
		r.rules = append(r.rules, rule.clone())
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on an invalid rule.
// Intended for package-level tables.
func MustRegistry(rules ...Rule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(err)
	}
	return r
}

// Global default registry (lazy initialized)
var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry seeded with the built-in
// signatures. Thread-safe, lazy initialization.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = MustRegistry(seedRules...)
	})
	return defaultRegistry
}

// With returns a new registry with extra rules appended after the existing
// ones. The receiver is left untouched.
func (r *Registry) With(rules ...Rule) (*Registry, error) {
	combined := make([]Rule, 0, len(r.rules)+len(rules))
	combined = append(combined, r.rules...)
	combined = append(combined, rules...)
	return NewRegistry(combined...)
}

// Without returns a new registry lacking every rule with the given type name.
func (r *Registry) Without(typeName string) *Registry {
	kept := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.TypeName != typeName {
			kept = append(kept, rule.clone())
		}
	}
	return &Registry{rules: kept}
}

// LookupAll returns every rule matching header, in registration order.
func (r *Registry) LookupAll(header []byte) []Rule {
	var matches []Rule
	for _, rule := range r.rules {
		if rule.Matches(header) {
			matches = append(matches, rule.clone())
		}
	}
	return matches
}

// Best returns the most specific matching rule: the longest pattern wins and
// the first registered rule breaks ties.
func (r *Registry) Best(header []byte) (Rule, bool) {
	best := -1
	for i, rule := range r.rules {
		if !rule.Matches(header) {
			continue
		}
		if best < 0 || len(rule.Pattern) > len(r.rules[best].Pattern) {
			best = i
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return r.rules[best].clone(), true
}

// Rules returns a copy of all registered rules
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.clone()
	}
	return out
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// MinRequiredLength returns the smallest header length that can match any
// rule, or 0 for an empty registry.
func (r *Registry) MinRequiredLength() int {
	shortest := 0
	for _, rule := range r.rules {
		if shortest == 0 || rule.Span() < shortest {
			shortest = rule.Span()
		}
	}
	return shortest
}
