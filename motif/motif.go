/*
Package motif parses ligand binding motifs and unstructured domain catalogs
and detects their occurrences in folded structures.
*/
package motif

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsjzz/rnafold/fold"
)

// Ligand is a stabilizing sequence/structure motif with an extrinsic energy
// bonus modeling ligand binding. Sequence and structure have equal length;
// an '&' in both splits the motif into the two strands of an interior loop.
type Ligand struct {
	Seq    string
	Struct string
	Energy float64
}

// ParseError describes a malformed motif specification. Motif parse errors
// are recoverable: folding proceeds without the motif.
type ParseError struct {
	Spec   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed ligand motif %q: %s", e.Spec, e.Reason)
}

// ParseLigand parses a motif specification "<subseq>,<substruct>,<energy>".
// The subsequence is uppercased; the energy must parse as a real number and
// both parts must have equal, non-zero length.
func ParseLigand(spec string) (Ligand, error) {
	parts := strings.SplitN(spec, ",", 3)
	if len(parts) != 3 {
		return Ligand{}, &ParseError{Spec: spec, Reason: "expected three comma-separated fields"}
	}
	seq := strings.ToUpper(strings.TrimSpace(parts[0]))
	str := strings.TrimSpace(parts[1])
	energy, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Ligand{}, &ParseError{Spec: spec, Reason: "energy contribution missing or unparsable"}
	}
	if len(seq) == 0 || seq == "&" {
		return Ligand{}, &ParseError{Spec: spec, Reason: "sequence length is zero"}
	}
	if len(seq) != len(str) {
		return Ligand{}, &ParseError{Spec: spec, Reason: "sequence and structure have unequal lengths"}
	}
	if strings.Count(seq, "&") != strings.Count(str, "&") || strings.Count(seq, "&") > 1 {
		return Ligand{}, &ParseError{Spec: spec, Reason: "strand separators do not match"}
	}
	return Ligand{Seq: seq, Struct: str, Energy: energy}, nil
}

// IsHairpin reports whether the motif is confined to a single loop.
func (l Ligand) IsHairpin() bool {
	return !strings.Contains(l.Seq, "&")
}

// HairpinShaped reports whether the motif structure closes a complete
// hairpin, which is the precondition for it to contribute a folding bonus.
func (l Ligand) HairpinShaped() bool {
	if !l.IsHairpin() || len(l.Struct) < 5 {
		return false
	}
	if l.Struct[0] != '(' || l.Struct[len(l.Struct)-1] != ')' {
		return false
	}
	return strings.Trim(l.Struct[1:len(l.Struct)-1], ".") == ""
}

// Kind distinguishes hairpin and interior loop occurrences.
type Kind int

const (
	KindHairpin Kind = iota
	KindInterior
)

func (k Kind) String() string {
	if k == KindHairpin {
		return "hairpin"
	}
	return "interior"
}

// Occurrence is one detected motif site, positions one-based. Hairpin
// occurrences span a single region [I:J]; interior occurrences additionally
// carry the inner pair positions K and L.
type Occurrence struct {
	I, J int
	K, L int
	Kind Kind
}

// Detect scans the structure for the motif, in increasing-I order. The
// sequence must already be uppercase.
func (l Ligand) Detect(seq, structure string) []Occurrence {
	if len(seq) != len(structure) {
		return nil
	}
	if l.IsHairpin() {
		return l.detectHairpin(seq, structure)
	}
	return l.detectInterior(seq, structure)
}

func (l Ligand) detectHairpin(seq, structure string) []Occurrence {
	var occs []Occurrence
	m := len(l.Seq)
	for i := 0; i+m <= len(seq); i++ {
		if seq[i:i+m] == l.Seq && structure[i:i+m] == l.Struct {
			occs = append(occs, Occurrence{
				I: i + 1, J: i + m,
				K: i + 1, L: i + m,
				Kind: KindHairpin,
			})
		}
	}
	return occs
}

func (l Ligand) detectInterior(seq, structure string) []Occurrence {
	seqParts := strings.SplitN(l.Seq, "&", 2)
	strParts := strings.SplitN(l.Struct, "&", 2)
	seq5, seq3 := seqParts[0], seqParts[1]
	str5, str3 := strParts[0], strParts[1]
	if len(seq5) == 0 || len(seq3) == 0 {
		return nil
	}

	pt, err := fold.PairTable(structure)
	if err != nil {
		return nil
	}

	var occs []Occurrence
	for i := 0; i+len(seq5) <= len(seq); i++ {
		if seq[i:i+len(seq5)] != seq5 || structure[i:i+len(str5)] != str5 {
			continue
		}
		// the outer pair links the first base of the 5' part with the last
		// base of the 3' part
		outer := pt[i]
		if outer < 0 || outer <= i {
			continue
		}
		p := outer - len(seq3) + 1
		if p <= i+len(seq5) || p+len(seq3) > len(seq) {
			continue
		}
		if seq[p:p+len(seq3)] != seq3 || structure[p:p+len(str3)] != str3 {
			continue
		}
		// the inner pair links the ends facing the enclosed loop
		if pt[i+len(seq5)-1] != p {
			continue
		}
		occs = append(occs, Occurrence{
			I: i + 1, J: p + len(seq3),
			K: i + len(seq5), L: p + 1,
			Kind: KindInterior,
		})
	}
	return occs
}

// Registry collects the usable motifs of one run: ligand motifs plus an
// optional unstructured domain catalog. Registration happens before
// folding; detection afterwards.
type Registry struct {
	Ligands []Ligand
	Domains *DomainCatalog
}

// Add registers a ligand motif.
func (r *Registry) Add(l Ligand) {
	r.Ligands = append(r.Ligands, l)
}

// HasLigands reports whether any ligand motif is registered.
func (r *Registry) HasLigands() bool { return len(r.Ligands) > 0 }

// Detect returns the occurrences of all registered ligand motifs in the
// structure, ordered by ascending I.
func (r *Registry) Detect(seq, structure string) []Occurrence {
	var all []Occurrence
	for _, l := range r.Ligands {
		all = append(all, l.Detect(seq, structure)...)
	}
	// motifs are scanned independently, restore global detection order
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j-1].I > all[j].I; j-- {
			all[j-1], all[j] = all[j], all[j-1]
		}
	}
	return all
}
