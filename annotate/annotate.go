/*
Package annotate renders motif occurrences as structure-plot annotation
macros and as human readable detection messages.
*/
package annotate

import (
	"fmt"
	"strings"

	"github.com/tsjzz/rnafold/motif"
)

// Ligand renders ligand motif occurrences as PostScript annotation macros
// for a structure plot. Hairpin motifs mark one region, interior motifs
// mark both strands.
func Ligand(occs []motif.Occurrence) string {
	parts := make([]string, 0, len(occs))
	for _, o := range occs {
		if o.Kind == motif.KindHairpin {
			parts = append(parts, fmt.Sprintf("%d %d 1. 0 0 Fomark", o.I, o.J))
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %d %d %d 1. 0 0 BFmark", o.I, o.J, o.K, o.L))
	}
	return strings.Join(parts, " ")
}

// Domains renders unstructured-domain occurrences as omark macros.
func Domains(occs []motif.DomainOccurrence, cat *motif.DomainCatalog) string {
	parts := make([]string, 0, len(occs))
	for _, o := range occs {
		end := o.Start + cat.MotifSize(o.Number) - 1
		parts = append(parts, fmt.Sprintf("%d %d 12 0.4 0.65 0.95 omark", o.Start, end))
	}
	return strings.Join(parts, " ")
}

// Join combines annotation fragments, skipping empty ones.
func Join(fragments ...string) string {
	parts := fragments[:0]
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// LigandMessages formats one detection message per ligand occurrence, the
// structure named by which ("mfe", "centroid", "MEA").
func LigandMessages(which string, occs []motif.Occurrence) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		if o.Kind == motif.KindHairpin {
			out = append(out, fmt.Sprintf("specified motif detected in %s structure: [%d:%d]",
				which, o.I, o.J))
			continue
		}
		out = append(out, fmt.Sprintf("specified motif detected in %s structure: [%d:%d] & [%d:%d]",
			which, o.I, o.K, o.L, o.J))
	}
	return out
}

// DomainMessages formats one detection message per unstructured-domain
// occurrence.
func DomainMessages(which string, occs []motif.DomainOccurrence, cat *motif.DomainCatalog) []string {
	out := make([]string, 0, len(occs))
	for _, o := range occs {
		end := o.Start + cat.MotifSize(o.Number) - 1
		out = append(out, fmt.Sprintf("ud motif %d detected in %s structure: [%d:%d]",
			o.Number, which, o.Start, end))
	}
	return out
}
