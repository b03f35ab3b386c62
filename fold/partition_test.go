package fold_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/fold"
)

func pfCompound(t *testing.T) *fold.Compound {
	t.Helper()
	c, err := fold.NewCompound(hairpinSeq, fold.DefaultModel())
	assert.NoError(t, err)

	_, mfeEnergy := c.MFE()
	c.RescaleBoltzmann(mfeEnergy)
	return c
}

func TestPartitionFunction(t *testing.T) {
	c := pfCompound(t)

	propensity, ensemble, err := c.PartitionFunction()
	assert.NoError(t, err)
	assert.Len(t, propensity, len(hairpinSeq))
	assert.True(t, ensemble < 0, "stable ensemble expected, got %f", ensemble)
	for _, ch := range propensity {
		assert.Contains(t, "(){},.", string(ch))
	}
}

func TestPairProbabilitiesAreProbabilities(t *testing.T) {
	c := pfCompound(t)
	_, _, err := c.PartitionFunction()
	assert.NoError(t, err)

	probs := c.PairProbabilities()
	n := len(hairpinSeq)
	for i := 0; i < n; i++ {
		rowSum := 0.0
		for j := 0; j < n; j++ {
			switch {
			case j > i:
				assert.True(t, probs[i][j] >= 0 && probs[i][j] <= 1+1e-9,
					"p(%d,%d) = %f out of range", i, j, probs[i][j])
				rowSum += probs[i][j]
			case j < i:
				rowSum += probs[j][i]
			}
		}
		assert.True(t, rowSum <= 1+1e-6, "position %d pairs with total probability %f", i, rowSum)
	}
}

func TestCentroid(t *testing.T) {
	c := pfCompound(t)
	_, _, err := c.PartitionFunction()
	assert.NoError(t, err)

	centroid, dist, err := c.Centroid()
	assert.NoError(t, err)
	assert.Len(t, centroid, len(hairpinSeq))
	assert.True(t, fold.DotBracketValid(centroid))
	assert.True(t, dist >= 0)
}

func TestCentroidNeedsProbabilities(t *testing.T) {
	c, err := fold.NewCompound(hairpinSeq, fold.DefaultModel())
	assert.NoError(t, err)

	_, _, err = c.Centroid()
	assert.Error(t, err)
}

func TestStructureFrequency(t *testing.T) {
	c, err := fold.NewCompound(hairpinSeq, fold.DefaultModel())
	assert.NoError(t, err)
	mfeStruct, mfeEnergy := c.MFE()
	c.RescaleBoltzmann(mfeEnergy)
	_, _, err = c.PartitionFunction()
	assert.NoError(t, err)

	freq, err := c.StructureFrequency(mfeStruct)
	assert.NoError(t, err)
	assert.True(t, freq > 0, "mfe structure is part of the ensemble")
	assert.True(t, freq <= 1+1e-9, "frequency %f exceeds one", freq)
}

func TestMeanBPDistance(t *testing.T) {
	c := pfCompound(t)
	_, _, err := c.PartitionFunction()
	assert.NoError(t, err)

	assert.True(t, c.MeanBPDistance() >= 0)
}

func TestStackProbsBounded(t *testing.T) {
	c := pfCompound(t)
	_, _, err := c.PartitionFunction()
	assert.NoError(t, err)

	for _, sp := range c.StackProbs(1e-6) {
		assert.True(t, sp.P >= 1e-6)
		assert.True(t, sp.P <= 1+1e-9)
		assert.True(t, sp.I < sp.J)
	}
}

func TestPartitionFunctionInfeasible(t *testing.T) {
	c, err := fold.NewCompound("AAAAAA", fold.DefaultModel())
	assert.NoError(t, err)
	cons := fold.NewConstraints(6)
	assert.NoError(t, cons.ForcePaired(0))
	assert.NoError(t, c.SetConstraints(cons))

	_, ensemble, err := c.PartitionFunction()
	assert.NoError(t, err)
	assert.Equal(t, fold.EnergyInfeasible, ensemble)
}

func TestSample(t *testing.T) {
	c := pfCompound(t)
	_, _, err := c.PartitionFunction()
	assert.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		s, err := c.Sample(rng)
		assert.NoError(t, err)
		assert.Len(t, s, len(hairpinSeq))
		assert.True(t, fold.DotBracketValid(s), "sampled %q", s)
	}
}

func TestSampleNeedsPartitionFunction(t *testing.T) {
	c, err := fold.NewCompound(hairpinSeq, fold.DefaultModel())
	assert.NoError(t, err)

	_, err = c.Sample(rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
