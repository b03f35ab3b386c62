package motif_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsjzz/rnafold/motif"
)

func TestParseLigand(t *testing.T) {
	l, err := motif.ParseLigand("gaaac,(...),-4.5")
	assert.NoError(t, err)
	assert.Equal(t, "GAAAC", l.Seq)
	assert.Equal(t, "(...)", l.Struct)
	assert.Equal(t, -4.5, l.Energy)
	assert.True(t, l.IsHairpin())
}

func TestParseLigandInterior(t *testing.T) {
	l, err := motif.ParseLigand("GG&CC,((&)),-9.2")
	assert.NoError(t, err)
	assert.False(t, l.IsHairpin())
	assert.False(t, l.HairpinShaped())
}

func TestParseLigandErrors(t *testing.T) {
	cases := []string{
		"GAAAC,(...)",        // missing energy
		"GAAAC,(...),x",      // unparsable energy
		"GAAAC,(..),-4.5",    // length mismatch
		",,-4.5",             // empty motif
		"GG&CC,((.)),-4.5",   // separator mismatch
		"G&G&G,(&(&),-4.5",   // too many strands
	}
	for _, spec := range cases {
		_, err := motif.ParseLigand(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestHairpinShaped(t *testing.T) {
	shaped, err := motif.ParseLigand("GAAAC,(...),-1")
	assert.NoError(t, err)
	assert.True(t, shaped.HairpinShaped())

	open, err := motif.ParseLigand("GAAAC,.(..),-1")
	assert.NoError(t, err)
	assert.False(t, open.HairpinShaped())
}

func TestDetectHairpin(t *testing.T) {
	l, err := motif.ParseLigand("GAAAC,(...),-4.5")
	assert.NoError(t, err)

	occs := l.Detect("GGGGAAACCCC", "((((...))))")
	assert.Equal(t, []motif.Occurrence{
		{I: 4, J: 8, K: 4, L: 8, Kind: motif.KindHairpin},
	}, occs)
}

func TestDetectHairpinAbsent(t *testing.T) {
	l, err := motif.ParseLigand("GAAAC,(...),-4.5")
	assert.NoError(t, err)

	assert.Empty(t, l.Detect("GGGGAAACCCC", "..........."))
}

func TestDetectInterior(t *testing.T) {
	l, err := motif.ParseLigand("GG&CC,((&)),-9.2")
	assert.NoError(t, err)

	occs := l.Detect("AAGGAAAACCAA", "..((....))..")
	assert.Equal(t, []motif.Occurrence{
		{I: 3, J: 10, K: 4, L: 9, Kind: motif.KindInterior},
	}, occs)
}

func TestRegistryDetectOrder(t *testing.T) {
	hairpin, err := motif.ParseLigand("GAAAC,(...),-4.5")
	assert.NoError(t, err)
	interior, err := motif.ParseLigand("GG&CC,((&)),-9.2")
	assert.NoError(t, err)

	reg := &motif.Registry{}
	reg.Add(interior)
	reg.Add(hairpin)
	assert.True(t, reg.HasLigands())

	// the stacked helix carries the interior motif at two offsets and the
	// hairpin motif once
	seq := "AAGGGAAACCCAA"
	str := "..(((...))).."
	occs := reg.Detect(seq, str)
	if assert.Len(t, occs, 3) {
		for i := 1; i < len(occs); i++ {
			assert.True(t, occs[i-1].I <= occs[i].I)
		}
		assert.Equal(t, motif.KindHairpin, occs[2].Kind)
	}
}

func TestDomainCatalogDetect(t *testing.T) {
	cat := &motif.DomainCatalog{Motifs: []motif.DomainMotif{{Motif: "GAAA", Energy: -2.0}}}

	occs := cat.Detect("GGGGGAAACCCC", "((((....))))")
	assert.Equal(t, []motif.DomainOccurrence{{Start: 5, Number: 0}}, occs)

	// paired region suppresses the site
	assert.Empty(t, cat.Detect("GGGGGAAACCCC", "(((((..)))))"))
}

func TestLoadDomainCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.yaml")
	data := "motifs:\n  - motif: gaaa\n    energy: -2.0\n  - motif: UUUU\n    energy: -1.1\n"
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cat, err := motif.LoadDomainCatalog(path)
	assert.NoError(t, err)
	if assert.Len(t, cat.Motifs, 2) {
		assert.Equal(t, "GAAA", cat.Motifs[0].Motif)
		assert.Equal(t, 4, cat.MotifSize(0))
	}
}

func TestLoadDomainCatalogErrors(t *testing.T) {
	_, err := motif.LoadDomainCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("motifs:\n  - motif: ''\n    energy: 0\n"), 0o644))
	_, err = motif.LoadDomainCatalog(path)
	assert.Error(t, err)
}
