package fold

import "fmt"

// Evaluate computes the free energy of the given structure for the
// compound's sequence under its model. The structure must be a nested
// dot-bracket string of matching length; crossing (pseudoknotted) pairs are
// rejected.
func (c *Compound) Evaluate(structure string) (float64, error) {
	if len(structure) != c.n {
		return 0, fmt.Errorf("structure length %d does not match sequence length %d",
			len(structure), c.n)
	}
	pt, err := PairTable(structure)
	if err != nil {
		return 0, err
	}

	// reject crossing pairs, the loop decomposition below assumes nesting
	for i, j := range pt {
		if j <= i {
			continue
		}
		for k := i + 1; k < j; k++ {
			if pt[k] >= 0 && (pt[k] < i || pt[k] > j) {
				return 0, fmt.Errorf("structure contains crossing pairs at %d and %d", i+1, k+1)
			}
		}
	}

	energy := 0.0
	for k := 0; k < c.n; {
		if pt[k] > k {
			j := pt[k]
			energy += c.branchEnergy(k, j)
			energy += c.evalPair(pt, k, j)
			k = j + 1
			continue
		}
		k++
	}
	return energy, nil
}

// evalPair scores the loop closed by pair (i, j) and recurses into the
// enclosed branches.
func (c *Compound) evalPair(pt []int, i, j int) float64 {
	var children []PairKey
	for k := i + 1; k < j; {
		if pt[k] > k {
			children = append(children, PairKey{k, pt[k]})
			k = pt[k] + 1
			continue
		}
		k++
	}

	var e float64
	switch len(children) {
	case 0:
		e = c.hairpinEnergy(i, j)
	case 1:
		ch := children[0]
		e = c.interiorEnergy(i, j, ch.I, ch.J) + c.evalPair(pt, ch.I, ch.J)
	default:
		e = multibranchClosing + c.softPair(i, j)
		unpaired := j - i - 1
		for _, ch := range children {
			unpaired -= ch.J - ch.I + 1
			e += multibranchBranch + c.branchEnergy(ch.I, ch.J) + c.evalPair(pt, ch.I, ch.J)
		}
		e += float64(unpaired) * multibranchUnpaired
	}

	if c.md.NoLonelyPairs && !c.canPair(i+1, j-1) && !c.canPair(i-1, j+1) {
		e += isolatedBasePairPenalty
	}
	return e
}

// EvaluateWithDangles evaluates the structure under a copy of the model with
// the given dangle setting. The compound itself is left untouched; this is
// what the partition function uses to derive a reference energy when the
// active dangle model has odd parity.
func (c *Compound) EvaluateWithDangles(structure string, dangles int) (float64, error) {
	clone := *c
	clone.md.Dangles = dangles
	// matrices must not be shared, Evaluate does not touch them but be safe
	clone.v, clone.wm, clone.wm1, clone.w = nil, nil, nil, nil
	clone.pf = nil
	return clone.Evaluate(structure)
}
