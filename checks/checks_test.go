package checks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/checks"
)

func TestIsRNA(t *testing.T) {
	assert.True(t, checks.IsRNA("GGGGAAACCCC"))
	assert.False(t, checks.IsRNA("GATTACA"))
	assert.False(t, checks.IsRNA("gggaaaccc"), "folding sequences are uppercase")
	assert.False(t, checks.IsRNA(""))
}

func TestIsDNA(t *testing.T) {
	assert.True(t, checks.IsDNA("GATTACA"))
	assert.False(t, checks.IsDNA("GAUUACA"))
	assert.False(t, checks.IsDNA(""))
}

func TestIsNucleotideSequence(t *testing.T) {
	assert.True(t, checks.IsNucleotideSequence("GAUUACA"))
	assert.True(t, checks.IsNucleotideSequence("gattaca"))
	assert.True(t, checks.IsNucleotideSequence("ACGUNRYSWKMBDHV"))
	assert.False(t, checks.IsNucleotideSequence("ACGU-ACGU"))
	assert.False(t, checks.IsNucleotideSequence(""))
}

func TestGcContent(t *testing.T) {
	assert.Equal(t, 1.0, checks.GcContent("GGCC"))
	assert.Equal(t, 0.0, checks.GcContent("AUAU"))
	assert.Equal(t, 0.5, checks.GcContent("GAUC"))
}

func TestIsValidDotBracketStructure(t *testing.T) {
	assert.True(t, checks.IsValidDotBracketStructure("((...))"))
	assert.False(t, checks.IsValidDotBracketStructure("((.x.))"))
}

func TestIsConstraintLine(t *testing.T) {
	assert.True(t, checks.IsConstraintLine("((..xx..))"))
	assert.True(t, checks.IsConstraintLine("<<..||..>>"))
	assert.True(t, checks.IsConstraintLine("..[[..]].."))
	assert.False(t, checks.IsConstraintLine("ACGU"))
	assert.False(t, checks.IsConstraintLine(""))
}
