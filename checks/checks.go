/*
Package checks provides utilities to check for certain properties of a
sequence or a secondary structure string.
*/
package checks

import (
	"strings"
)

// IsRNA accepts a string and checks if it is a strict RNA sequence,
// consisting only of the four unambiguous bases.
func IsRNA(seq string) bool {
	for _, base := range seq {
		switch base {
		case 'A', 'C', 'U', 'G':
			continue
		default:
			return false
		}
	}
	return len(seq) > 0
}

// IsDNA accepts a string and checks if it is a strict DNA sequence.
func IsDNA(seq string) bool {
	for _, base := range seq {
		switch base {
		case 'A', 'C', 'T', 'G':
			continue
		default:
			return false
		}
	}
	return len(seq) > 0
}

// nucleotideAlphabet covers the unambiguous bases of both alphabets plus the
// IUPAC ambiguity codes.
const nucleotideAlphabet = "ACGTUNRYSWKMBDHV"

// IsNucleotideSequence reports whether seq consists of nucleotide letters,
// case insensitively, allowing IUPAC ambiguity codes.
func IsNucleotideSequence(seq string) bool {
	if len(seq) == 0 {
		return false
	}
	for _, base := range strings.ToUpper(seq) {
		if !strings.ContainsRune(nucleotideAlphabet, base) {
			return false
		}
	}
	return true
}

// GcContent checks the GcContent of a given sequence.
func GcContent(sequence string) float64 {
	sequence = strings.ToUpper(sequence)
	GuanineCount := strings.Count(sequence, "G")
	CytosineCount := strings.Count(sequence, "C")
	GuanineAndCytosinePercentage := float64(GuanineCount+CytosineCount) / float64(len(sequence))
	return GuanineAndCytosinePercentage
}

// accepts a string and checks if it uses valid dot-bracket notation.
func IsValidDotBracketStructure(seq string) bool {
	for _, base := range seq {
		switch base {
		case '(', ')', '.':
			continue
		default:
			return false
		}
	}
	return true
}

// IsConstraintLine reports whether a line looks like a pseudo dot-bracket
// structure constraint. The constraint alphabet extends dot-bracket notation
// with the unpaired/paired markers and pseudoknot brackets.
func IsConstraintLine(line string) bool {
	if len(line) == 0 {
		return false
	}
	for _, c := range line {
		switch c {
		case '.', '(', ')', 'x', '<', '>', '|', '[', ']', '{', '}', '+':
			continue
		default:
			return false
		}
	}
	return true
}
