package signature

import "bytes"

// Heuristic is a looser check tried only when no signature matched.
type Heuristic struct {
	Name     string
	TypeName string
	MIME     string
	Match    func(header []byte) bool
}

// defaultHeuristics are evaluated in order; the first hit wins.
var defaultHeuristics = []Heuristic{
	{
		Name:     "dos-stub",
		TypeName: "EXE",
		MIME:     "application/x-msdownload",
		Match: func(header []byte) bool {
			return len(header) >= 2 &&
				(bytes.Equal(header[:2], []byte("MZ")) || bytes.Equal(header[:2], []byte("ZM")))
		},
	},
	{
		Name:     "riff-container",
		TypeName: "RIFF",
		MIME:     "application/x-riff",
		Match: func(header []byte) bool {
			return len(header) >= 4 && bytes.Equal(header[:4], []byte("RIFF"))
		},
	},
}

// Heuristics returns the fallback checks in evaluation order
func Heuristics() []Heuristic {
	out := make([]Heuristic, len(defaultHeuristics))
	copy(out, defaultHeuristics)
	return out
}

func (h Heuristic) result() Result {
	return Result{
		TypeName:   h.TypeName,
		MIME:       h.MIME,
		Method:     MethodHeuristic,
		Confidence: ConfidenceLow,
	}
}
