package signature

import "fmt"

// Method records how an identification was reached
type Method string

const (
	MethodSignature Method = "signature-match"
	MethodHeuristic Method = "heuristic"
	MethodExternal  Method = "external"
	MethodNone      Method = "none"
)

// Confidence is the qualitative strength of an identification
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank orders confidence tiers from none (0) to high (3).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

const (
	UnknownTypeName = "Unknown"
	UnknownMIME     = "application/octet-stream"
)

// Result is the outcome of one classification. It is a plain value built
// fresh for every call.
type Result struct {
	TypeName    string     `json:"type" yaml:"type"`
	MIME        string     `json:"mime" yaml:"mime"`
	Extension   string     `json:"extension,omitempty" yaml:"extension,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Method      Method     `json:"method" yaml:"method"`
	Confidence  Confidence `json:"confidence" yaml:"confidence"`
}

// Unknown returns the result used when nothing matched or no data was available
func Unknown() Result {
	return Result{
		TypeName:   UnknownTypeName,
		MIME:       UnknownMIME,
		Method:     MethodNone,
		Confidence: ConfidenceNone,
	}
}

// FromRule builds a signature-match result for a rule
func FromRule(rule Rule) Result {
	return Result{
		TypeName:   rule.TypeName,
		MIME:       rule.MIME,
		Extension:  rule.Extension,
		Method:     MethodSignature,
		Confidence: ConfidenceMedium,
	}
}

// Identified reports whether the result names an actual type
func (r Result) Identified() bool {
	return r.Method != MethodNone && r.TypeName != UnknownTypeName
}

// String returns e.g. "PNG (image/png, signature-match, medium)"
func (r Result) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", r.TypeName, r.MIME, r.Method, r.Confidence)
}
