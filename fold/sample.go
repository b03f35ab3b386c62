package fold

import (
	"fmt"
	"math/rand"

	"github.com/mroth/weightedrand"
)

// weightScale maps relative Boltzmann weights onto the integer weights the
// chooser expects.
const weightScale = 1 << 30

// sampleChoice is one admissible decomposition at a sampling step: either
// "rightmost position unpaired" (pair.I < 0) or "pair (k, j) forms".
type sampleChoice struct {
	pairAt int // -1 for the unpaired move
	weight float64
}

// Sample draws one structure from the computed Boltzmann ensemble by
// stochastic backtracking through the inside matrices.
func (c *Compound) Sample(rng *rand.Rand) (string, error) {
	if c.pf == nil || c.pf.q == nil {
		return "", fmt.Errorf("partition function not computed")
	}
	if c.pf.total <= 0 {
		return "", fmt.Errorf("empty ensemble")
	}

	out := []byte(EmptyStructure(c.n))
	if err := c.sampleSegment(rng, 0, c.n-1, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Compound) sampleSegment(rng *rand.Rand, i, j int, out []byte) error {
	p := c.pf
	qAt := func(a, b int) float64 {
		if a > b {
			return 1
		}
		return p.q[a][b]
	}

	for j >= i {
		var choices []sampleChoice
		if c.mayStayUnpaired(j) {
			choices = append(choices, sampleChoice{pairAt: -1, weight: qAt(i, j-1) / p.scale})
		}
		for k := i; k+minHairpinLoop+1 <= j; k++ {
			if p.qb[k][j] == 0 {
				continue
			}
			choices = append(choices, sampleChoice{pairAt: k, weight: qAt(i, k-1) * p.qb[k][j]})
		}
		if len(choices) == 0 {
			return fmt.Errorf("no admissible decomposition at position %d", j+1)
		}

		max := 0.0
		for _, ch := range choices {
			if ch.weight > max {
				max = ch.weight
			}
		}
		wc := make([]weightedrand.Choice, 0, len(choices))
		for idx, ch := range choices {
			w := uint(ch.weight / max * weightScale)
			if w == 0 {
				continue
			}
			wc = append(wc, weightedrand.Choice{Item: idx, Weight: w})
		}
		if len(wc) == 0 {
			wc = append(wc, weightedrand.Choice{Item: 0, Weight: 1})
		}
		chooser, err := weightedrand.NewChooser(wc...)
		if err != nil {
			return err
		}
		picked := choices[chooser.PickSource(rng).(int)]

		if picked.pairAt < 0 {
			j--
			continue
		}
		k := picked.pairAt
		out[k] = '('
		out[j] = ')'
		if err := c.sampleSegment(rng, k+1, j-1, out); err != nil {
			return err
		}
		j = k - 1
	}
	return nil
}
