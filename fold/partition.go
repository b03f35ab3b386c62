package fold

import (
	"fmt"
	"math"
)

// The Boltzmann ensemble uses a pair-additive energy model: every base pair
// contributes a formation energy plus the per-position soft energies. The
// loop-based model stays reserved for MFE and structure evaluation; the
// split keeps the inside/outside recursions exact.
func (c *Compound) pfPairEnergy(i, j int) float64 {
	var e float64
	a, b := c.seq[i], c.seq[j]
	switch {
	case (a == 'G' && b == 'C') || (a == 'C' && b == 'G'):
		e = -3.2
	case (a == 'A' && b == 'U') || (a == 'U' && b == 'A'):
		e = -1.8
	case isWobble(a, b):
		e = -1.2
	default:
		// forced non-canonical pair
		e = -1.0
	}
	return e + c.softPair(i, j)
}

// partition holds the inside/outside matrices of the ensemble. All matrices
// are rescaled by a per-nucleotide factor to avoid overflow on long
// sequences: q[i][j] stores Q(i,j) / scale^(j-i+1).
type partition struct {
	q, qb [][]float64
	qhat  [][]float64
	probs [][]float64

	scale    float64 // per-nucleotide rescaling factor
	total    float64 // scaled exterior partition function over the full span
	ensemble float64 // ensemble free energy in kcal/mol
}

// PairProb is a base pair with its equilibrium probability, zero-based.
type PairProb struct {
	I, J int
	P    float64
}

// RescaleBoltzmann derives the per-nucleotide scaling factor from a
// reference energy, usually the minimum free energy. It must be called
// before the partition function is computed.
func (c *Compound) RescaleBoltzmann(referenceEnergy float64) {
	if c.n == 0 {
		return
	}
	c.pf = &partition{
		scale: math.Exp(-referenceEnergy / (c.md.RT() * float64(c.n))),
	}
}

// PFScale returns the active per-nucleotide scaling factor.
func (c *Compound) PFScale() float64 {
	if c.pf == nil || c.pf.scale == 0 {
		return 1
	}
	return c.pf.scale
}

// PartitionFunction fills the inside matrices and returns the pairing
// propensity string together with the ensemble free energy. A zero
// partition function (only possible under hard constraints) yields the
// EnergyInfeasible sentinel.
func (c *Compound) PartitionFunction() (string, float64, error) {
	if c.n == 0 {
		return "", 0, nil
	}
	c.folded = true
	if c.pf == nil {
		c.pf = &partition{scale: 1}
	}
	if c.pf.q == nil {
		c.fillInside()
		if c.pf.total <= 0 {
			c.pf.ensemble = EnergyInfeasible
			return "", EnergyInfeasible, nil
		}
		rt := c.md.RT()
		c.pf.ensemble = -rt * (math.Log(c.pf.total) + float64(c.n)*math.Log(c.pf.scale))
		if c.md.ComputeBPP > 0 {
			c.fillOutside()
		}
	}
	if c.pf.ensemble == EnergyInfeasible {
		return "", EnergyInfeasible, nil
	}
	return c.propensityString(), c.pf.ensemble, nil
}

func (c *Compound) fillInside() {
	n := c.n
	p := c.pf
	s := p.scale
	rt := c.md.RT()

	p.q = zeroSquare(n)
	p.qb = zeroSquare(n)

	boltz := func(e float64) float64 { return math.Exp(-e / rt) }

	// q over an empty span is 1, handled via the helpers below
	qAt := func(i, j int) float64 {
		if i > j {
			return 1
		}
		return p.q[i][j]
	}

	for span := 1; span <= n; span++ {
		for i := 0; i+span-1 < n; i++ {
			j := i + span - 1

			if c.canPair(i, j) {
				p.qb[i][j] = boltz(c.pfPairEnergy(i, j)) / (s * s) * qAt(i+1, j-1)
			}

			acc := 0.0
			if c.mayStayUnpaired(j) {
				acc = qAt(i, j-1) / s
			}
			for k := i; k+minHairpinLoop+1 <= j; k++ {
				if p.qb[k][j] == 0 {
					continue
				}
				acc += qAt(i, k-1) * p.qb[k][j]
			}
			p.q[i][j] = acc
		}
	}

	p.total = p.q[0][n-1]
}

// fillOutside computes, for every pair, the partition function of all
// structures outside the pair, then the pair probability matrix.
func (c *Compound) fillOutside() {
	n := c.n
	p := c.pf
	s := p.scale
	rt := c.md.RT()

	p.qhat = zeroSquare(n)
	p.probs = zeroSquare(n)

	boltz := func(e float64) float64 { return math.Exp(-e / rt) }
	qAt := func(i, j int) float64 {
		if i > j {
			return 1
		}
		return p.q[i][j]
	}

	for span := n; span >= minHairpinLoop+2; span-- {
		for i := 0; i+span-1 < n; i++ {
			j := i + span - 1
			if p.qb[i][j] == 0 {
				continue
			}

			out := qAt(0, i-1) * qAt(j+1, n-1)
			for h := 0; h < i; h++ {
				for l := j + 1; l < n; l++ {
					if p.qhat[h][l] == 0 || !c.canPair(h, l) {
						continue
					}
					out += boltz(c.pfPairEnergy(h, l)) / (s * s) *
						p.qhat[h][l] * qAt(h+1, i-1) * qAt(j+1, l-1)
				}
			}
			p.qhat[i][j] = out
			p.probs[i][j] = p.qb[i][j] * out / p.total
		}
	}
}

// PairProbabilities returns the upper-triangular pair probability matrix, or
// nil when base pair probabilities were not computed.
func (c *Compound) PairProbabilities() [][]float64 {
	if c.pf == nil {
		return nil
	}
	return c.pf.probs
}

// propensityString renders one character per position reflecting how firmly
// the ensemble pairs it, analogous to the classic pseudo dot-bracket output.
func (c *Compound) propensityString() string {
	n := c.n
	if c.pf.probs == nil {
		return EmptyStructure(n)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		up, down := 0.0, 0.0
		for j := 0; j < n; j++ {
			switch {
			case j > i:
				down += c.pf.probs[i][j]
			case j < i:
				up += c.pf.probs[j][i]
			}
		}
		tot := up + down
		switch {
		case tot > 0.99:
			if down >= up {
				out[i] = '('
			} else {
				out[i] = ')'
			}
		case tot > 2.0/3.0:
			if down >= up {
				out[i] = '{'
			} else {
				out[i] = '}'
			}
		case tot > 1.0/3.0:
			out[i] = ','
		default:
			out[i] = '.'
		}
	}
	return string(out)
}

// Centroid returns the structure assembled from all pairs with probability
// above one half, together with its mean base pair distance to the
// ensemble. Pairs above one half can never cross.
func (c *Compound) Centroid() (string, float64, error) {
	if c.pf == nil || c.pf.probs == nil {
		return "", 0, fmt.Errorf("pair probabilities not computed")
	}
	n := c.n
	out := []byte(EmptyStructure(n))
	dist := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pr := c.pf.probs[i][j]
			if pr > 0.5 {
				out[i] = '('
				out[j] = ')'
				dist += 1 - pr
			} else {
				dist += pr
			}
		}
	}
	return string(out), dist, nil
}

// MeanBPDistance returns the ensemble diversity, the expected base pair
// distance between two structures drawn from the ensemble.
func (c *Compound) MeanBPDistance() float64 {
	if c.pf == nil || c.pf.probs == nil {
		return 0
	}
	d := 0.0
	for i := 0; i < c.n; i++ {
		for j := i + 1; j < c.n; j++ {
			pr := c.pf.probs[i][j]
			d += 2 * pr * (1 - pr)
		}
	}
	return d
}

// StructureFrequency returns the equilibrium frequency of the given
// structure in the computed ensemble.
func (c *Compound) StructureFrequency(structure string) (float64, error) {
	if c.pf == nil || c.pf.q == nil {
		return 0, fmt.Errorf("partition function not computed")
	}
	pt, err := PairTable(structure)
	if err != nil {
		return 0, err
	}
	e := 0.0
	for i, j := range pt {
		if j > i {
			e += c.pfPairEnergy(i, j)
		}
	}
	rt := c.md.RT()
	return math.Exp((c.pf.ensemble - e) / rt), nil
}

// StackProbs lists the probabilities of stacked pairs (i,j)(i+1,j-1) at or
// above the threshold.
func (c *Compound) StackProbs(threshold float64) []PairProb {
	if c.pf == nil || c.pf.probs == nil {
		return nil
	}
	var out []PairProb
	for i := 0; i < c.n; i++ {
		for j := i + 1; j < c.n; j++ {
			if c.pf.probs[i][j] == 0 || j-i-1 < minHairpinLoop+2 {
				continue
			}
			inner := c.pf.q[i+1][j-1]
			if inner == 0 {
				continue
			}
			pr := c.pf.probs[i][j] * c.pf.qb[i+1][j-1] / inner
			if pr >= threshold {
				out = append(out, PairProb{I: i, J: j, P: pr})
			}
		}
	}
	return out
}

func zeroSquare(n int) [][]float64 {
	m := make([][]float64, n)
	row := make([]float64, n*n)
	for i := range m {
		m[i] = row[i*n : (i+1)*n]
	}
	return m
}
