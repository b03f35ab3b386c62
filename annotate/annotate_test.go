package annotate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/annotate"
	"github.com/tsjzz/rnafold/motif"
)

func TestLigandHairpin(t *testing.T) {
	occs := []motif.Occurrence{
		{I: 3, J: 9, K: 3, L: 9, Kind: motif.KindHairpin},
	}
	assert.Equal(t, "3 9 1. 0 0 Fomark", annotate.Ligand(occs))
}

func TestLigandInterior(t *testing.T) {
	occs := []motif.Occurrence{
		{I: 2, J: 20, K: 6, L: 16, Kind: motif.KindInterior},
	}
	assert.Equal(t, "2 20 6 16 1. 0 0 BFmark", annotate.Ligand(occs))
}

func TestLigandMixed(t *testing.T) {
	occs := []motif.Occurrence{
		{I: 3, J: 9, K: 3, L: 9, Kind: motif.KindHairpin},
		{I: 12, J: 30, K: 16, L: 26, Kind: motif.KindInterior},
	}
	assert.Equal(t,
		"3 9 1. 0 0 Fomark 12 30 16 26 1. 0 0 BFmark",
		annotate.Ligand(occs))
}

func TestDomains(t *testing.T) {
	cat := &motif.DomainCatalog{Motifs: []motif.DomainMotif{{Motif: "GAAA", Energy: -4.5}}}

	occs := []motif.DomainOccurrence{{Start: 5, Number: 0}}
	assert.Equal(t, "5 8 12 0.4 0.65 0.95 omark", annotate.Domains(occs, cat))
}

func TestJoinSkipsEmpty(t *testing.T) {
	assert.Equal(t, "a b", annotate.Join("a", "", "b"))
	assert.Equal(t, "", annotate.Join("", ""))
}

func TestLigandMessages(t *testing.T) {
	occs := []motif.Occurrence{
		{I: 3, J: 9, K: 3, L: 9, Kind: motif.KindHairpin},
		{I: 2, J: 20, K: 6, L: 16, Kind: motif.KindInterior},
	}
	msgs := annotate.LigandMessages("mfe", occs)
	assert.Equal(t, []string{
		"specified motif detected in mfe structure: [3:9]",
		"specified motif detected in mfe structure: [2:6] & [16:20]",
	}, msgs)
}

func TestDomainMessages(t *testing.T) {
	cat := &motif.DomainCatalog{Motifs: []motif.DomainMotif{{Motif: "GAAA", Energy: -4.5}}}

	msgs := annotate.DomainMessages("centroid", []motif.DomainOccurrence{{Start: 5, Number: 0}}, cat)
	assert.Equal(t, []string{"ud motif 0 detected in centroid structure: [5:8]"}, msgs)
}
