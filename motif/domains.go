package motif

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DomainMotif is one unstructured domain entry: a sequence motif bound by a
// ligand while the region stays unpaired.
type DomainMotif struct {
	Motif  string  `yaml:"motif"`
	Energy float64 `yaml:"energy"`
}

// DomainCatalog is a catalog of unstructured domain motifs, loaded from a
// YAML file of the form:
//
//	motifs:
//	  - motif: GGUG
//	    energy: -1.5
type DomainCatalog struct {
	Motifs []DomainMotif `yaml:"motifs"`
}

// LoadDomainCatalog reads and validates a catalog file.
func LoadDomainCatalog(path string) (*DomainCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading domain catalog: %w", err)
	}
	var cat DomainCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing domain catalog %s: %w", path, err)
	}
	for i := range cat.Motifs {
		cat.Motifs[i].Motif = strings.ToUpper(strings.TrimSpace(cat.Motifs[i].Motif))
		if cat.Motifs[i].Motif == "" {
			return nil, fmt.Errorf("domain catalog %s: motif %d has an empty sequence", path, i+1)
		}
	}
	return &cat, nil
}

// MotifSize returns the length of catalog entry number (zero-based).
func (c *DomainCatalog) MotifSize(number int) int {
	if number < 0 || number >= len(c.Motifs) {
		return 0
	}
	return len(c.Motifs[number].Motif)
}

// DomainOccurrence is one detected unstructured domain site. Start is
// one-based; Number indexes the catalog entry.
type DomainOccurrence struct {
	Start  int
	Number int
}

// Detect finds catalog motifs inside completely unpaired stretches of the
// structure, in ascending start order.
func (c *DomainCatalog) Detect(seq, structure string) []DomainOccurrence {
	if c == nil || len(seq) != len(structure) {
		return nil
	}
	var occs []DomainOccurrence
	for i := 0; i < len(seq); i++ {
		for num, m := range c.Motifs {
			size := len(m.Motif)
			if i+size > len(seq) || seq[i:i+size] != m.Motif {
				continue
			}
			if strings.Trim(structure[i:i+size], ".") != "" {
				continue
			}
			occs = append(occs, DomainOccurrence{Start: i + 1, Number: num})
		}
	}
	return occs
}

// AddDomainMotif appends a motif to the registry's catalog, creating the
// catalog on first use. Directive scripts register domains this way.
func (r *Registry) AddDomainMotif(seq string, energy float64) {
	if r.Domains == nil {
		r.Domains = &DomainCatalog{}
	}
	r.Domains.Motifs = append(r.Domains.Motifs, DomainMotif{
		Motif:  strings.ToUpper(seq),
		Energy: energy,
	})
}
