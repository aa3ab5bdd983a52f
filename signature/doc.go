// Package signature identifies file types from their leading bytes.
//
// It is the engine behind [filesniff]: an ordered table of magic-byte rules, a
// classifier that picks the most specific matching rule, a small set of
// heuristics for ambiguous headers, and a checker that tells whether a file's
// extension agrees with what its content says. The package does no I/O and
// has no dependencies outside the standard library.
//
// # Classifying a header
//
//	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
//	res := signature.Default().Classify(header)
//	// res.TypeName == "PNG", res.Method == signature.MethodSignature
//
// Classify never fails. Empty or unrecognised headers come back as
// [Unknown] with [ConfidenceNone].
//
// # Matching policy
//
// Every rule whose pattern sits at its offset in the header is a candidate.
// The candidate with the longest pattern wins; on a tie the rule registered
// first wins. The registry is an ordered slice, so the outcome is the same on
// every run. When nothing matches, heuristics run in a fixed order:
//
//  1. "MZ" or "ZM" at offset 0 reports EXE
//  2. "RIFF" at offset 0 reports RIFF
//
// Heuristic results carry [ConfidenceLow]; signature matches carry
// [ConfidenceMedium].
//
// # Custom registries
//
//	reg, err := signature.DefaultRegistry().With(signature.Rule{
//	    Pattern:   []byte("fLaC"),
//	    TypeName:  "FLAC",
//	    Extension: ".flac",
//	    MIME:      "audio/flac",
//	})
//	c, err := signature.New(signature.Options{Registry: reg})
//
// Rules must have a non-empty pattern that ends within [MaxHeaderSize] bytes.
//
// # External classifiers
//
// An [ExternalClassifier] (for example a libmagic or filetype binding) can
// replace signature matching entirely. It is chosen when the classifier is
// built and is then the only source of answers for [Classifier.Identify]:
//
//	c, err := signature.New(signature.Options{
//	    External:              backend,
//	    UseExternalClassifier: true,
//	})
//
// # Extension checks
//
//	verdict := signature.CheckExtension(".jpg", res)
//
// The verdict is [VerdictUnchecked] for an empty extension, [VerdictMatch] when
// the identified type name contains one of the names expected for the
// extension, and [VerdictMismatch] otherwise, including for extensions the
// table does not know.
//
// [filesniff]: https://github.com/gobeaver/filesniff
package signature
