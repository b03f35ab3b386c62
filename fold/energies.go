package fold

import "math"

const (
	// isolatedBasePairPenalty penalizes base pairs that can stack on neither
	// side when lonely pairs are disabled, heuristic from
	// https://www.ncbi.nlm.nih.gov/pubmed/10329189
	isolatedBasePairPenalty = 1600

	// minHairpinLoop is the minimal number of unpaired bases enclosed by a
	// hairpin pair.
	minHairpinLoop = 3
	// maxInteriorSpan bounds the total number of unpaired bases in an
	// interior loop or bulge.
	maxInteriorSpan = 30

	// loopsAsymmetryPenalty is an energy penalty added for interior loops if
	// the left loop size differs from the right loop size.
	// Formula 12 from SantaLucia, 2004
	loopsAsymmetryPenalty = 0.3
	// closingAUPenalty is the energy penalty applied to helices closed by an
	// AU or GU pair.
	closingAUPenalty = 0.5

	// multibranchClosing, multibranchBranch and multibranchUnpaired are the
	// a, b, c coefficients of the linear multibranch loop model.
	multibranchClosing  = 3.4
	multibranchBranch   = 0.4
	multibranchUnpaired = 0.0

	// exteriorDangle is the stabilization per unpaired base directly
	// adjacent to a helix in the exterior loop, only active for even dangle
	// models.
	exteriorDangle = -0.3
)

// energy holds two energies, enthalpy and entropy.
type energy struct {
	// enthalpy in kcal/mol
	enthalpyH float64
	// entropy in cal/(mol*K)
	entropyS float64
}

// deltaG computes the free energy of an enthalpy/entropy pair at the given
// temperature in Kelvin.
func deltaG(enthalpyH, entropyS, tempKelvin float64) float64 {
	return enthalpyH - tempKelvin*(entropyS/1000.0)
}

// stackKey identifies a stack of two base pairs. The first two bytes are the
// 5' and 3' base of the outer pair, the last two of the inner pair.
type stackKey [4]byte

// matchingBasepairEnergy is the energy of matching stacked base pairs.
type matchingBasepairEnergy map[stackKey]energy

// loopEnergy is a map[int]energy where the int is the length of the loop.
type loopEnergy map[int]energy

// energies holds the energy maps needed to compute folding energies.
type energies struct {
	nearestNeighbors matchingBasepairEnergy
	hairpinLoops     loopEnergy
	bulgeLoops       loopEnergy
	internalLoops    loopEnergy
}

// rnaStacks lists the Watson-Crick nearest neighbor parameters, keyed by
// outer and inner pair. Rotational symmetric entries are filled in by
// rnaEnergies below.
var rnaStacks = map[stackKey]energy{
	{'A', 'U', 'A', 'U'}: {-6.82, -19.0},
	{'A', 'U', 'U', 'A'}: {-9.38, -26.7},
	{'U', 'A', 'A', 'U'}: {-7.69, -20.5},
	{'A', 'U', 'G', 'C'}: {-10.48, -27.1},
	{'A', 'U', 'C', 'G'}: {-10.44, -26.9},
	{'U', 'A', 'G', 'C'}: {-11.40, -29.5},
	{'U', 'A', 'C', 'G'}: {-12.44, -32.5},
	{'C', 'G', 'G', 'C'}: {-10.64, -26.7},
	{'C', 'G', 'C', 'G'}: {-13.39, -32.7},
	{'G', 'C', 'G', 'C'}: {-14.88, -36.9},
	{'G', 'C', 'C', 'G'}: {-12.11, -32.0},
}

// wobbleStack is the fallback for stacks involving a GU wobble pair.
var wobbleStack = energy{-4.5, -11.5}

// defaultStack is used for canonical stacks without an explicit entry.
var defaultStack = energy{-5.0, -13.0}

// rnaEnergies returns the energy maps for RNA folding, with the stack table
// closed under rotation of the two pairs.
func rnaEnergies() energies {
	nn := make(matchingBasepairEnergy, 2*len(rnaStacks))
	for k, e := range rnaStacks {
		nn[k] = e
		// the same stack read from the other strand: outer pair becomes the
		// reversed inner pair and vice versa
		rot := stackKey{k[3], k[2], k[1], k[0]}
		if _, ok := nn[rot]; !ok {
			nn[rot] = e
		}
	}

	return energies{
		nearestNeighbors: nn,
		hairpinLoops: loopEnergy{
			3: {0, -18.06},
			4: {0, -18.06},
			5: {0, -18.38},
			6: {0, -17.41},
			7: {0, -19.35},
			8: {0, -17.73},
			9: {0, -20.64},
		},
		bulgeLoops: loopEnergy{
			1: {0, -12.25},
			2: {0, -9.03},
			3: {0, -10.32},
			4: {0, -11.61},
			5: {0, -12.90},
			6: {0, -14.19},
		},
		internalLoops: loopEnergy{
			2: {0, -4.84},
			3: {0, -5.80},
			4: {0, -5.48},
			5: {0, -6.45},
			6: {0, -6.77},
		},
	}
}

// jacobsonStockmayer extrapolates the free energy of a loop of size n from
// the largest pre-calculated loop of size max.
func jacobsonStockmayer(n, max int, maxEnergy, tempKelvin float64) float64 {
	return maxEnergy + 1.75*gasConstant*tempKelvin*math.Log(float64(n)/float64(max))
}

// loopDeltaG looks up the free energy of a loop of the given size,
// extrapolating beyond the table.
func loopDeltaG(table loopEnergy, size int, tempKelvin float64) float64 {
	if e, ok := table[size]; ok {
		return deltaG(e.enthalpyH, e.entropyS, tempKelvin)
	}
	max := 0
	for k := range table {
		if k > max {
			max = k
		}
	}
	if size < max {
		// table has a hole below its maximum, use the closest entry above
		for s := size; s <= max; s++ {
			if e, ok := table[s]; ok {
				return deltaG(e.enthalpyH, e.entropyS, tempKelvin)
			}
		}
	}
	e := table[max]
	return jacobsonStockmayer(size, max, deltaG(e.enthalpyH, e.entropyS, tempKelvin), tempKelvin)
}

// canonicalPair reports whether two bases form a Watson-Crick or wobble pair.
func canonicalPair(a, b byte) bool {
	switch {
	case a == 'A' && b == 'U', a == 'U' && b == 'A':
		return true
	case a == 'G' && b == 'C', a == 'C' && b == 'G':
		return true
	case a == 'G' && b == 'U', a == 'U' && b == 'G':
		return true
	}
	return false
}

// isWobble reports whether a pair is a GU wobble pair.
func isWobble(a, b byte) bool {
	return (a == 'G' && b == 'U') || (a == 'U' && b == 'G')
}

// isAUClosing reports whether a closing pair attracts the AU/GU penalty.
func isAUClosing(a, b byte) bool {
	return a == 'A' || a == 'U' || isWobble(a, b)
}

// stackDeltaG returns the free energy of the stack with outer pair (a,d) and
// inner pair (b,c) at the given temperature.
func (e energies) stackDeltaG(a, b, c, d byte, tempKelvin float64) float64 {
	nrg, ok := e.nearestNeighbors[stackKey{a, d, b, c}]
	if !ok {
		if isWobble(a, d) || isWobble(b, c) {
			nrg = wobbleStack
		} else {
			nrg = defaultStack
		}
	}
	return deltaG(nrg.enthalpyH, nrg.entropyS, tempKelvin)
}
