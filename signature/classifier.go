package signature

import (
	"context"
	"strings"
)

// Description is the free-text answer of an external content sniffer
type Description struct {
	Text string
	MIME string
}

// ExternalClassifier is a pluggable, higher-confidence content sniffer.
// Describe returns nil without error when it has no answer for path.
type ExternalClassifier interface {
	Describe(ctx context.Context, path string) (*Description, error)
}

// Options configures a Classifier. Options are fixed at construction.
type Options struct {
	// Registry defaults to DefaultRegistry().
	Registry *Registry

	// External is consulted only when UseExternalClassifier is set.
	External ExternalClassifier

	// UseExternalClassifier routes Identify exclusively through External.
	UseExternalClassifier bool
}

// Classifier maps header bytes to a Result. It holds no mutable state and
// may be shared between goroutines.
type Classifier struct {
	registry    *Registry
	heuristics  []Heuristic
	external    ExternalClassifier
	useExternal bool
}

// New creates a classifier from opts
func New(opts Options) (*Classifier, error) {
	if opts.UseExternalClassifier && opts.External == nil {
		return nil, NewRuleError(ErrorTypeExternal, -1, "external classifier enabled but none provided")
	}

	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	return &Classifier{
		registry:    registry,
		heuristics:  Heuristics(),
		external:    opts.External,
		useExternal: opts.UseExternalClassifier,
	}, nil
}

// Default returns a signature-only classifier over the default registry
func Default() *Classifier {
	c, _ := New(Options{})
	return c
}

// Registry returns the registry the classifier matches against
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// UsesExternal reports whether Identify is served by the external backend
func (c *Classifier) UsesExternal() bool {
	return c.useExternal
}

// Classify identifies header using signatures, then heuristics. It never
// fails: an empty or unrecognised header yields Unknown().
func (c *Classifier) Classify(header []byte) Result {
	if len(header) == 0 {
		return Unknown()
	}

	if rule, ok := c.registry.Best(header); ok {
		return FromRule(rule)
	}

	for _, h := range c.heuristics {
		if h.Match(header) {
			return h.result()
		}
	}

	return Unknown()
}

// Identify is the per-file entry point. With the external backend enabled the
// answer comes from it alone; otherwise it is Classify(header).
func (c *Classifier) Identify(ctx context.Context, path string, header []byte) Result {
	if !c.useExternal {
		return c.Classify(header)
	}

	desc, err := c.external.Describe(ctx, path)
	if err != nil || desc == nil {
		return Unknown()
	}
	return FromDescription(*desc)
}

// FromDescription converts an external description into a high-confidence result
func FromDescription(desc Description) Result {
	mime := desc.MIME
	if mime == "" {
		mime = UnknownMIME
	}
	return Result{
		TypeName:    TypeNameFromDescription(desc.Text),
		MIME:        mime,
		Description: desc.Text,
		Method:      MethodExternal,
		Confidence:  ConfidenceHigh,
	}
}

// descriptionVocabulary is searched in order. An entry matches when any of
// its any keywords, or every one of its all keywords, occurs in the
// lowercased description.
var descriptionVocabulary = []struct {
	typeName string
	any      []string
	all      []string
}{
	{typeName: "JPEG", any: []string{"jpeg", "jpg"}},
	{typeName: "PNG", any: []string{"png"}},
	{typeName: "GIF", any: []string{"gif"}},
	{typeName: "PDF", any: []string{"pdf"}},
	{typeName: "ZIP", any: []string{"zip"}},
	{typeName: "RAR", any: []string{"rar"}},
	{typeName: "MP3", any: []string{"mpeg", "mp3"}},
	{typeName: "MS Word", all: []string{"microsoft", "word"}},
	{typeName: "Text", any: []string{"ascii", "text"}},
}

// TypeNameFromDescription normalizes free text such as "PNG image data, 1x1"
// into a short type name. Unmatched text yields its first word; empty text
// yields "Unknown".
func TypeNameFromDescription(desc string) string {
	lower := strings.ToLower(desc)

	for _, entry := range descriptionVocabulary {
		if containsAny(lower, entry.any) || containsAll(lower, entry.all) {
			return entry.typeName
		}
	}

	if words := strings.Fields(desc); len(words) > 0 {
		return words[0]
	}
	return UnknownTypeName
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs []string) bool {
	if len(subs) == 0 {
		return false
	}
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
