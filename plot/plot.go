/*
Package plot writes PostScript drawings of secondary structures and base
pair probability dot plots. The layout is a plain circular one; the files
carry the annotation macro hooks (Fomark, BFmark, omark) motif annotations
rely on.
*/
package plot

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/plist"
)

const psProlog = `%!PS-Adobe-3.0 EPSF-3.0
%%BoundingBox: 0 0 700 700
/fsize 10 def
/drawpair { moveto lineto stroke } bind def
/Fomark { pop pop pop dup pop pop } bind def
/BFmark { pop pop pop pop pop pop pop } bind def
/omark { pop pop pop pop pop pop } bind def
0.5 setlinewidth
`

// WriteStructurePlot draws seq folded into structure at path. annotation
// holds pre-rendered motif marks and may be empty.
func WriteStructurePlot(path, seq, structure, annotation string) error {
	if len(seq) != len(structure) {
		return fmt.Errorf("sequence and structure lengths differ: %d vs %d", len(seq), len(structure))
	}
	pt, err := fold.PairTable(structure)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(psProlog)
	fmt.Fprintf(&b, "%% %s\n", seq)
	fmt.Fprintf(&b, "%% %s\n", structure)

	// circular layout, one slot per nucleotide
	n := len(seq)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		xs[i] = 350 + 300*math.Cos(a)
		ys[i] = 350 + 300*math.Sin(a)
	}

	b.WriteString("newpath\n")
	for i := 0; i < n; i++ {
		verb := "lineto"
		if i == 0 {
			verb = "moveto"
		}
		fmt.Fprintf(&b, "%.2f %.2f %s\n", xs[i], ys[i], verb)
	}
	b.WriteString("stroke\n")

	for i := 0; i < n; i++ {
		if j := pt[i]; j > i {
			fmt.Fprintf(&b, "%.2f %.2f %.2f %.2f drawpair\n", xs[i], ys[i], xs[j], ys[j])
		}
	}
	if annotation != "" {
		fmt.Fprintf(&b, "%s\n", annotation)
	}
	b.WriteString("showpage\n%%EOF\n")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// WriteDotPlot writes a base pair probability dot plot: the upper triangle
// holds the entries of upper drawn with side sqrt(p), the lower triangle
// the entries of lower drawn with side p.
func WriteDotPlot(path, seq string, upper, lower *plist.List) error {
	var b strings.Builder
	b.WriteString(psProlog)
	fmt.Fprintf(&b, "/sequence (%s) def\n", seq)
	b.WriteString("/ubox { exch dup 0 drawbox } bind def\n")
	b.WriteString("/lbox { exch dup 0 drawbox } bind def\n")
	b.WriteString("/drawbox { pop pop pop pop } bind def\n")

	for _, e := range upper.Entries() {
		fmt.Fprintf(&b, "%d %d %.9f ubox\n", e.I, e.J, math.Sqrt(e.P))
	}
	if lower != nil {
		for _, e := range lower.Entries() {
			fmt.Fprintf(&b, "%d %d %.9f lbox\n", e.I, e.J, e.P)
		}
	}
	b.WriteString("showpage\n%%EOF\n")

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
