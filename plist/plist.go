/*
Package plist builds and merges sparse base pair probability lists for
dot-plot rendering and overlay comparison.
*/
package plist

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/motif"
)

// Kind is the provenance of a probability entry.
type Kind int

const (
	// KindBasepair entries come from the equilibrium probability matrix.
	KindBasepair Kind = iota
	// KindMFEPair entries mark pairs of the MFE structure for overlay.
	KindMFEPair
	// KindHairpinMotif and KindInteriorMotif are synthetic entries for
	// detected ligand motifs.
	KindHairpinMotif
	KindInteriorMotif
	// KindStack entries carry stacked pair probabilities.
	KindStack
)

func (k Kind) String() string {
	switch k {
	case KindBasepair:
		return "basepair"
	case KindMFEPair:
		return "mfe-pair"
	case KindHairpinMotif:
		return "hairpin-motif"
	case KindInteriorMotif:
		return "interior-motif"
	case KindStack:
		return "stack"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// certainWeight is the fixed weight of entries that represent a known pair
// rather than an equilibrium probability (0.95 squared).
const certainWeight = 0.95 * 0.95

// growthChunk is the capacity increment used when a list grows.
const growthChunk = 10

// Entry is one base pair with a probability and its provenance. Positions
// are one-based with I < J; entries are unique on (I, J) within one list.
type Entry struct {
	I, J int
	P    float64
	Kind Kind
}

// List is a growable, length-carrying sequence of entries. Appending keeps
// insertion order; entries from probability matrices are ascending in
// (I, J).
type List struct {
	entries []Entry
}

// Len returns the number of entries.
func (l *List) Len() int { return len(l.entries) }

// Entries exposes the backing entries in order.
func (l *List) Entries() []Entry { return l.entries }

// Append adds an entry unless an identical (I, J, Kind) entry is already
// present, growing capacity in fixed chunks.
func (l *List) Append(e Entry) {
	for _, ex := range l.entries {
		if ex.I == e.I && ex.J == e.J && ex.Kind == e.Kind {
			return
		}
	}
	if len(l.entries) == cap(l.entries) {
		l.entries = slices.Grow(l.entries, growthChunk)
	}
	l.entries = append(l.entries, e)
}

// FromProbabilities builds a list of all pairs whose equilibrium
// probability reaches the threshold, ascending in (I, J).
func FromProbabilities(probs [][]float64, threshold float64) *List {
	l := &List{}
	for i := range probs {
		for j := i + 1; j < len(probs[i]); j++ {
			if p := probs[i][j]; p >= threshold {
				l.Append(Entry{I: i + 1, J: j + 1, P: p, Kind: KindBasepair})
			}
		}
	}
	return l
}

// FromStructure builds a list with one entry per base pair of the
// structure, each at the fixed certain weight, for overlay comparison.
func FromStructure(structure string) (*List, error) {
	pt, err := fold.PairTable(structure)
	if err != nil {
		return nil, err
	}
	l := &List{}
	for i, j := range pt {
		if j > i {
			l.Append(Entry{I: i + 1, J: j + 1, P: certainWeight, Kind: KindMFEPair})
		}
	}
	return l, nil
}

// FromStackProbs builds a list of stacked pair probabilities.
func FromStackProbs(stacks []fold.PairProb) *List {
	l := &List{}
	for _, s := range stacks {
		l.Append(Entry{I: s.I + 1, J: s.J + 1, P: s.P, Kind: KindStack})
	}
	return l
}

// Merge appends synthetic entries for detected motif occurrences, in
// detection order, never reordering existing entries. A hairpin occurrence
// contributes one entry, an interior occurrence two: the outer (I, J) and
// the inner (K, L) pair. Merging distinct occurrence sets in either order
// yields the same final entry set.
func (l *List) Merge(occurrences []motif.Occurrence) {
	for _, occ := range occurrences {
		if occ.Kind == motif.KindHairpin {
			l.Append(Entry{I: occ.I, J: occ.J, P: certainWeight, Kind: KindHairpinMotif})
			continue
		}
		l.Append(Entry{I: occ.I, J: occ.J, P: certainWeight, Kind: KindInteriorMotif})
		l.Append(Entry{I: occ.K, J: occ.L, P: certainWeight, Kind: KindInteriorMotif})
	}
}
