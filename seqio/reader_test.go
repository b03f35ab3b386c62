package seqio_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/seqio"
)

func readAll(t *testing.T, input string, collectRest bool) []*seqio.Record {
	t.Helper()
	r := seqio.NewReader(strings.NewReader(input), collectRest)
	var out []*seqio.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		assert.NoError(t, err)
		out = append(out, rec)
	}
}

func TestReadHeaderedRecord(t *testing.T) {
	recs := readAll(t, ">seq1 a description\nGGGGAAACCCC\n", false)
	assert.Len(t, recs, 1)
	assert.True(t, recs[0].HasHeader)
	assert.Equal(t, "seq1 a description", recs[0].ID)
	assert.Equal(t, "GGGGAAACCCC", recs[0].Sequence)
}

func TestReadHeaderlessRecords(t *testing.T) {
	recs := readAll(t, "GGGGAAACCCC\nAAUUGGCC\n", false)
	assert.Len(t, recs, 2)
	assert.False(t, recs[0].HasHeader)
	assert.Equal(t, "GGGGAAACCCC", recs[0].Sequence)
	assert.Equal(t, "AAUUGGCC", recs[1].Sequence)
}

func TestMultilineSequence(t *testing.T) {
	recs := readAll(t, ">seq1\nGGGG\nAAACCCC\n", false)
	assert.Len(t, recs, 1)
	assert.Equal(t, "GGGGAAACCCC", recs[0].Sequence)
}

func TestCollectRest(t *testing.T) {
	recs := readAll(t, "GGGGAAACCCC\n((((...))))\n", true)
	assert.Len(t, recs, 1)
	assert.Equal(t, []string{"((((...))))"}, recs[0].Rest)
}

func TestRestSeparatesRecords(t *testing.T) {
	recs := readAll(t, ">a\nGGGG\n\n>b\nCCCC\n", true)
	assert.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}

func TestBlankLinesSkipped(t *testing.T) {
	recs := readAll(t, "\n\nGGGGAAACCCC\n", false)
	assert.Len(t, recs, 1)
}

func TestMalformedSequence(t *testing.T) {
	r := seqio.NewReader(strings.NewReader("not a sequence\n"), false)
	_, err := r.Next()
	var pe *seqio.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "not a sequence", pe.Line)
}

func TestReadingContinuesAfterMalformedRecord(t *testing.T) {
	r := seqio.NewReader(strings.NewReader("bogus line\nGGGGAAACCCC\n"), false)
	_, err := r.Next()
	var pe *seqio.ParseError
	assert.True(t, errors.As(err, &pe))

	rec, err := r.Next()
	assert.NoError(t, err)
	assert.Equal(t, "GGGGAAACCCC", rec.Sequence)
}

func TestHeaderWithoutSequence(t *testing.T) {
	r := seqio.NewReader(strings.NewReader(">only a header\n"), false)
	_, err := r.Next()
	var pe *seqio.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestNormalize(t *testing.T) {
	n := seqio.Normalize("gatTACA", false)
	assert.Equal(t, "gauUACA", n.Original)
	assert.Equal(t, "GAUUACA", n.Folding)

	n = seqio.Normalize("gatTACA", true)
	assert.Equal(t, "gatTACA", n.Original)
	assert.Equal(t, "GATTACA", n.Folding)
}

func TestFingerprintStable(t *testing.T) {
	a := seqio.Fingerprint("GGGGAAACCCC")
	b := seqio.Fingerprint("GGGGAAACCCC")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, seqio.Fingerprint("GGGGAAACCCG"))
}
