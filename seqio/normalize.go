package seqio

import (
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"
)

// Normalized keeps both renditions of a sequence: the original-case input
// for display and the uppercase RNA alphabet the engine folds.
type Normalized struct {
	// Original is the sequence as read, only DNA->RNA converted (unless
	// disabled), case preserved.
	Original string
	// Folding is the uppercase sequence handed to the folding engine.
	Folding string
}

// Normalize converts a raw sequence for folding. Unless noConv is set, T is
// replaced by U in either case; Folding is additionally uppercased.
func Normalize(seq string, noConv bool) Normalized {
	original := seq
	if !noConv {
		original = strings.Map(func(r rune) rune {
			switch r {
			case 'T':
				return 'U'
			case 't':
				return 'u'
			}
			return r
		}, original)
	}
	return Normalized{
		Original: original,
		Folding:  strings.ToUpper(original),
	}
}

// Fingerprint returns a short stable digest of a sequence, used to identify
// records in verbose diagnostics.
func Fingerprint(seq string) string {
	sum := blake3.Sum256([]byte(seq))
	return hex.EncodeToString(sum[:8])
}
