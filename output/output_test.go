package output_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/output"
)

func TestSanitize(t *testing.T) {
	r := output.NewRouter("_", "")
	assert.Equal(t, "seq_1", r.Sanitize("seq 1"))
	assert.Equal(t, "a_b", r.Sanitize("a///b"))
	assert.Equal(t, "plain-id.v2", r.Sanitize("plain-id.v2"))
}

func TestResolveDefaults(t *testing.T) {
	r := output.NewRouter("_", "")

	path, err := r.Resolve("ss.ps", "rna.ps", "")
	assert.NoError(t, err)
	assert.Equal(t, "rna.ps", path)

	path, err = r.Resolve("ss.ps", "rna.ps", "seq1")
	assert.NoError(t, err)
	assert.Equal(t, "seq1_ss.ps", path)
}

func TestResolveCollision(t *testing.T) {
	r := output.NewRouter("_", "seq1_ss.ps")

	_, err := r.Resolve("ss.ps", "rna.ps", "seq1")
	var ce *output.CollisionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "seq1_ss.ps", ce.Path)
}

func TestResolveUniqueDedup(t *testing.T) {
	r := output.NewRouter("_", "")

	first, err := r.ResolveUnique(".fold", "RNAfold_output.fold", "seq")
	assert.NoError(t, err)
	assert.Equal(t, "seq.fold", first)

	second, err := r.ResolveUnique(".fold", "RNAfold_output.fold", "seq")
	assert.NoError(t, err)
	assert.Equal(t, "seq_1.fold", second)

	third, err := r.ResolveUnique(".fold", "RNAfold_output.fold", "seq")
	assert.NoError(t, err)
	assert.Equal(t, "seq_2.fold", third)
}

func TestIDControlAuto(t *testing.T) {
	c := output.DefaultIDControl()
	c.Auto = true

	assert.Equal(t, "Sequence_0001", c.Next("whatever header"))
	assert.Equal(t, "Sequence_0002", c.Next(""))
}

func TestIDControlHeader(t *testing.T) {
	c := output.DefaultIDControl()

	assert.Equal(t, "seq1", c.Next("seq1 some description"))
	assert.Equal(t, "", c.Next(""))
}

func TestFileStem(t *testing.T) {
	c := output.DefaultIDControl()
	assert.Equal(t, "seq1", c.FileStem("seq1 long header", "seq1"))

	c.FilenameFull = true
	assert.Equal(t, "seq1 long header", c.FileStem("seq1 long header", "seq1"))
}
