package fold

import (
	"fmt"
	"math"
	"strings"

	"github.com/tsjzz/rnafold/checks"
)

// hairpinMotif is a ligand binding motif confined to a single hairpin loop.
// The bonus energy is added whenever a hairpin with exactly this sequence
// (closing pair included) is formed.
type hairpinMotif struct {
	seq   string
	bonus float64
}

// Compound bundles a sequence with the model settings, energy maps and the
// accumulated constraints needed to fold it. All constraint and motif
// registration must happen before the first folding call; registration
// afterwards is rejected.
type Compound struct {
	seq      string
	md       Model
	n        int
	energies energies
	tempK    float64

	cons   *Constraints
	motifs []hairpinMotif
	folded bool

	// minimum free energy caches, see fillMFE
	v   [][]float64
	wm  [][]float64
	wm1 [][]float64
	w   []float64

	// partition function state, see partition.go
	pf *partition
}

// NewCompound returns a compound ready to fold, in case of error the
// returned compound is nil. The sequence must be an uppercase unambiguous
// RNA sequence; normalization is the caller's job.
func NewCompound(seq string, md Model) (*Compound, error) {
	if !checks.IsRNA(seq) {
		return nil, fmt.Errorf("the sequence %s is not unambiguous RNA", seq)
	}
	return &Compound{
		seq:      seq,
		md:       md,
		n:        len(seq),
		energies: rnaEnergies(),
		tempK:    md.Temperature + celsiusToKelvin,
	}, nil
}

// Len returns the sequence length.
func (c *Compound) Len() int { return c.n }

// Sequence returns the folding sequence.
func (c *Compound) Sequence() string { return c.seq }

// Model returns the model settings of the compound.
func (c *Compound) Model() Model { return c.md }

// SetConstraints attaches the composed constraint set. It must be called
// before any folding call.
func (c *Compound) SetConstraints(cons *Constraints) error {
	if c.folded {
		return fmt.Errorf("constraints must be registered before folding")
	}
	if cons != nil && cons.n != c.n {
		return fmt.Errorf("constraint set sized %d does not match sequence length %d", cons.n, c.n)
	}
	c.cons = cons
	return nil
}

// Constraints returns the attached constraint set, which may be nil.
func (c *Compound) Constraints() *Constraints { return c.cons }

// ConstraintsActive reports whether any constraint source contributed.
func (c *Compound) ConstraintsActive() bool {
	return c.cons != nil && c.cons.active
}

// AddHairpinMotif registers a stabilizing hairpin motif. It reports whether
// the motif is usable: the closing bases must form a canonical pair and the
// enclosed loop must be large enough.
func (c *Compound) AddHairpinMotif(seq string, bonus float64) bool {
	if c.folded {
		return false
	}
	if len(seq) < minHairpinLoop+2 {
		return false
	}
	if !canonicalPair(seq[0], seq[len(seq)-1]) {
		return false
	}
	c.motifs = append(c.motifs, hairpinMotif{seq: seq, bonus: bonus})
	return true
}

// hairpinMotifBonus returns the summed bonus of motifs whose sequence covers
// exactly the hairpin closed by (i, j).
func (c *Compound) hairpinMotifBonus(i, j int) float64 {
	bonus := 0.0
	for _, m := range c.motifs {
		if j-i+1 == len(m.seq) && c.seq[i:j+1] == m.seq {
			bonus += m.bonus
		}
	}
	return bonus
}

// constraint helpers, all tolerant of a nil constraint set

func (c *Compound) mayStayUnpaired(i int) bool {
	if c.cons == nil {
		return true
	}
	return c.cons.mayStayUnpaired(i)
}

func (c *Compound) rangeMayStayUnpaired(i, j int) bool {
	if c.cons == nil {
		return true
	}
	return c.cons.rangeMayStayUnpaired(i, j)
}

func (c *Compound) canPair(i, j int) bool {
	if i < 0 || j >= c.n || j-i-1 < minHairpinLoop {
		return false
	}
	if c.cons != nil {
		if !c.cons.allowsPair(i, j) {
			return false
		}
		if c.cons.forcedPartner(i) == j {
			// an explicitly forced pair bypasses the canonical check
			return true
		}
	}
	return canonicalPair(c.seq[i], c.seq[j])
}

func (c *Compound) softPair(i, j int) float64 {
	if c.cons == nil || c.cons.Soft == nil {
		return 0
	}
	return c.cons.Soft[i] + c.cons.Soft[j]
}

// loop energies

func (c *Compound) hairpinEnergy(i, j int) float64 {
	size := j - i - 1
	e := loopDeltaG(c.energies.hairpinLoops, size, c.tempK)
	e += c.hairpinMotifBonus(i, j)
	e += c.softPair(i, j)
	return e
}

// interiorEnergy scores the loop formed by outer pair (i,j) and inner pair
// (k,l): a stack, a bulge or an interior loop depending on the gap sizes.
func (c *Compound) interiorEnergy(i, j, k, l int) float64 {
	n1 := k - i - 1
	n2 := j - l - 1
	var e float64
	switch {
	case n1 == 0 && n2 == 0:
		e = c.energies.stackDeltaG(c.seq[i], c.seq[k], c.seq[l], c.seq[j], c.tempK)
	case n1 == 0 || n2 == 0:
		e = loopDeltaG(c.energies.bulgeLoops, n1+n2, c.tempK)
	default:
		e = loopDeltaG(c.energies.internalLoops, n1+n2, c.tempK)
		if n1 != n2 {
			e += loopsAsymmetryPenalty * math.Abs(float64(n1-n2))
		}
	}
	return e + c.softPair(i, j)
}

// branchEnergy is charged once per helix branching off the exterior loop or
// a multibranch loop.
func (c *Compound) branchEnergy(i, j int) float64 {
	e := 0.0
	if isAUClosing(c.seq[i], c.seq[j]) {
		e += closingAUPenalty
	}
	if c.md.Dangles >= 2 {
		if i > 0 {
			e += exteriorDangle
		}
		if j < c.n-1 {
			e += exteriorDangle
		}
	}
	return e
}

var infEnergy = math.Inf(1)

// fillMFE computes the minimum free energy matrices. v(i,j) is the optimum
// under the condition that i pairs with j, wm/wm1 are the multibranch
// helpers (wm1 fixes the first branch at i), w is the exterior loop optimum
// over the prefix ending at j.
func (c *Compound) fillMFE() {
	if c.v != nil {
		return
	}
	c.folded = true
	n := c.n

	c.v = newSquare(n)
	c.wm = newSquare(n)
	c.wm1 = newSquare(n)

	for span := minHairpinLoop + 2; span <= n; span++ {
		for i := 0; i+span-1 < n; i++ {
			j := i + span - 1
			c.fillV(i, j)
			c.fillWM(i, j)
		}
	}

	// exterior loop
	c.w = make([]float64, n)
	for j := 0; j < n; j++ {
		best := infEnergy
		if c.mayStayUnpaired(j) {
			if j == 0 {
				best = 0
			} else {
				best = c.w[j-1]
			}
		}
		for k := 0; k+minHairpinLoop+1 <= j; k++ {
			if c.v[k][j] == infEnergy {
				continue
			}
			left := 0.0
			if k > 0 {
				left = c.w[k-1]
			}
			if left == infEnergy {
				continue
			}
			if e := left + c.v[k][j] + c.branchEnergy(k, j); e < best {
				best = e
			}
		}
		c.w[j] = best
	}
}

func (c *Compound) fillV(i, j int) {
	if !c.canPair(i, j) {
		c.v[i][j] = infEnergy
		return
	}

	best := infEnergy

	// hairpin loop
	if c.rangeMayStayUnpaired(i+1, j-1) {
		best = c.hairpinEnergy(i, j)
	}

	// stack, bulge and interior loops
	for k := i + 1; k <= i+maxInteriorSpan+1 && k+minHairpinLoop+1 < j; k++ {
		if !c.rangeMayStayUnpaired(i+1, k-1) {
			break
		}
		for l := j - 1; l > k+minHairpinLoop && (k-i-1)+(j-l-1) <= maxInteriorSpan; l-- {
			if !c.rangeMayStayUnpaired(l+1, j-1) {
				continue
			}
			if c.v[k][l] == infEnergy {
				continue
			}
			if e := c.interiorEnergy(i, j, k, l) + c.v[k][l]; e < best {
				best = e
			}
		}
	}

	// multibranch loop: at least two branches inside (i, j)
	for k := i + 2; k < j-1; k++ {
		left := c.wm[i+1][k-1]
		right := c.wm1[k][j-1]
		if left == infEnergy || right == infEnergy {
			continue
		}
		if e := multibranchClosing + c.softPair(i, j) + left + right; e < best {
			best = e
		}
	}

	if c.md.NoLonelyPairs && best != infEnergy {
		if !c.canPair(i+1, j-1) && !c.canPair(i-1, j+1) {
			best += isolatedBasePairPenalty
		}
	}

	c.v[i][j] = best
}

func (c *Compound) fillWM(i, j int) {
	// wm1: exactly one helix, starting at i, possibly followed by unpaired
	// bases up to j
	wm1 := infEnergy
	if j > i && c.wm1[i][j-1] != infEnergy && c.mayStayUnpaired(j) {
		wm1 = c.wm1[i][j-1] + multibranchUnpaired
	}
	if c.v[i][j] != infEnergy {
		if e := c.v[i][j] + multibranchBranch + c.branchEnergy(i, j); e < wm1 {
			wm1 = e
		}
	}
	c.wm1[i][j] = wm1

	// wm: one or more helices in [i, j], possibly with a leading unpaired run
	wm := infEnergy
	for k := i; k+minHairpinLoop+1 <= j; k++ {
		if c.wm1[k][j] == infEnergy {
			continue
		}
		if k > i && c.wm[i][k-1] != infEnergy {
			if e := c.wm[i][k-1] + c.wm1[k][j]; e < wm {
				wm = e
			}
		}
		if c.rangeMayStayUnpaired(i, k-1) {
			if e := float64(k-i)*multibranchUnpaired + c.wm1[k][j]; e < wm {
				wm = e
			}
		}
	}
	c.wm[i][j] = wm
}

// MFE computes the minimum free energy structure. When the attached hard
// constraints leave no feasible structure, the reserved sentinel
// EnergyInfeasible is returned together with an empty structure.
func (c *Compound) MFE() (string, float64) {
	c.fillMFE()
	n := c.n
	if n == 0 {
		return "", 0
	}
	if c.w[n-1] == infEnergy {
		return "", EnergyInfeasible
	}
	structure := c.traceExterior()
	return structure, c.w[n-1]
}

// ReleaseMFE drops the minimum free energy matrices. Folding results already
// produced stay valid; only the caches are freed.
func (c *Compound) ReleaseMFE() {
	c.v = nil
	c.wm = nil
	c.wm1 = nil
	c.w = nil
}

const energyEpsilon = 1e-9

func approxEq(a, b float64) bool {
	return math.Abs(a-b) <= energyEpsilon
}

type traceFrame struct {
	matrix int // 0 v, 1 wm, 2 wm1
	i, j   int
}

// traceExterior backtracks through the filled matrices and renders the
// dot-bracket structure.
func (c *Compound) traceExterior() string {
	n := c.n
	result := make([]byte, n)
	for i := range result {
		result[i] = '.'
	}

	var frames []traceFrame

	j := n - 1
	for j >= 0 {
		w := c.w[j]
		var prev float64
		if j == 0 {
			prev = 0
		} else {
			prev = c.w[j-1]
		}
		if c.mayStayUnpaired(j) && approxEq(w, prev) {
			j--
			continue
		}
		found := false
		for k := 0; k+minHairpinLoop+1 <= j; k++ {
			if c.v[k][j] == infEnergy {
				continue
			}
			left := 0.0
			if k > 0 {
				left = c.w[k-1]
			}
			if left == infEnergy {
				continue
			}
			if approxEq(w, left+c.v[k][j]+c.branchEnergy(k, j)) {
				frames = append(frames, traceFrame{0, k, j})
				j = k - 1
				found = true
				break
			}
		}
		if !found {
			// numerically ambiguous cell, treat the position as unpaired
			j--
		}
	}

	for len(frames) > 0 {
		f := frames[len(frames)-1]
		frames = frames[:len(frames)-1]
		switch f.matrix {
		case 0:
			frames = c.traceV(f.i, f.j, result, frames)
		case 1:
			frames = c.traceWM(f.i, f.j, frames)
		case 2:
			frames = c.traceWM1(f.i, f.j, frames)
		}
	}

	return string(result)
}

func (c *Compound) traceV(i, j int, result []byte, frames []traceFrame) []traceFrame {
	result[i] = '('
	result[j] = ')'

	target := c.v[i][j]
	if c.md.NoLonelyPairs && !c.canPair(i+1, j-1) && !c.canPair(i-1, j+1) {
		target -= isolatedBasePairPenalty
	}

	if c.rangeMayStayUnpaired(i+1, j-1) && approxEq(target, c.hairpinEnergy(i, j)) {
		return frames
	}

	for k := i + 1; k <= i+maxInteriorSpan+1 && k+minHairpinLoop+1 < j; k++ {
		if !c.rangeMayStayUnpaired(i+1, k-1) {
			break
		}
		for l := j - 1; l > k+minHairpinLoop && (k-i-1)+(j-l-1) <= maxInteriorSpan; l-- {
			if !c.rangeMayStayUnpaired(l+1, j-1) || c.v[k][l] == infEnergy {
				continue
			}
			if approxEq(target, c.interiorEnergy(i, j, k, l)+c.v[k][l]) {
				return append(frames, traceFrame{0, k, l})
			}
		}
	}

	for k := i + 2; k < j-1; k++ {
		left := c.wm[i+1][k-1]
		right := c.wm1[k][j-1]
		if left == infEnergy || right == infEnergy {
			continue
		}
		if approxEq(target, multibranchClosing+c.softPair(i, j)+left+right) {
			frames = append(frames, traceFrame{1, i + 1, k - 1})
			frames = append(frames, traceFrame{2, k, j - 1})
			return frames
		}
	}

	return frames
}

func (c *Compound) traceWM(i, j int, frames []traceFrame) []traceFrame {
	target := c.wm[i][j]
	for k := i; k+minHairpinLoop+1 <= j; k++ {
		if c.wm1[k][j] == infEnergy {
			continue
		}
		if k > i && c.wm[i][k-1] != infEnergy &&
			approxEq(target, c.wm[i][k-1]+c.wm1[k][j]) {
			frames = append(frames, traceFrame{1, i, k - 1})
			frames = append(frames, traceFrame{2, k, j})
			return frames
		}
		if c.rangeMayStayUnpaired(i, k-1) &&
			approxEq(target, float64(k-i)*multibranchUnpaired+c.wm1[k][j]) {
			return append(frames, traceFrame{2, k, j})
		}
	}
	return frames
}

func (c *Compound) traceWM1(i, j int, frames []traceFrame) []traceFrame {
	target := c.wm1[i][j]
	for ; j > i; j-- {
		if c.wm1[i][j-1] != infEnergy && c.mayStayUnpaired(j) &&
			approxEq(target, c.wm1[i][j-1]+multibranchUnpaired) {
			target = c.wm1[i][j-1]
			continue
		}
		break
	}
	return append(frames, traceFrame{0, i, j})
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	row := make([]float64, n*n)
	for i := range row {
		row[i] = infEnergy
	}
	for i := range m {
		m[i] = row[i*n : (i+1)*n]
	}
	return m
}

// DotBracketValid reports whether structure is a balanced dot-bracket string
// over the plain alphabet.
func DotBracketValid(structure string) bool {
	if !checks.IsValidDotBracketStructure(structure) {
		return false
	}
	depth := 0
	for _, r := range structure {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// PairTable parses a dot-bracket structure into a table mapping each
// position to its partner, -1 for unpaired positions. Pseudoknot bracket
// families are matched independently.
func PairTable(structure string) ([]int, error) {
	table := make([]int, len(structure))
	for i := range table {
		table[i] = -1
	}
	stacks := map[byte][]int{}
	closing := map[byte]byte{')': '(', ']': '[', '}': '{', '>': '<'}
	for i := 0; i < len(structure); i++ {
		ch := structure[i]
		switch ch {
		case '.', ',', 'x', '|', '+':
			continue
		case '(', '[', '{', '<':
			stacks[ch] = append(stacks[ch], i)
		case ')', ']', '}', '>':
			open := closing[ch]
			s := stacks[open]
			if len(s) == 0 {
				return nil, fmt.Errorf("unbalanced structure at position %d", i+1)
			}
			j := s[len(s)-1]
			stacks[open] = s[:len(s)-1]
			table[i] = j
			table[j] = i
		default:
			return nil, fmt.Errorf("invalid structure character %q at position %d", ch, i+1)
		}
	}
	for open, s := range stacks {
		if len(s) > 0 {
			return nil, fmt.Errorf("unbalanced structure: %d unclosed %q", len(s), open)
		}
	}
	return table, nil
}

// EmptyStructure returns the all-unpaired structure for a sequence length.
func EmptyStructure(n int) string {
	return strings.Repeat(".", n)
}
