/*
Package constraint composes folding constraints from their independent
sources: hard constraints from file or inline pseudo dot-bracket lines,
SHAPE reactivity pseudo-energies, ligand motif bonuses, and directive
scripts. All sources are accumulated into one Spec and applied to a fold
compound exactly once, in a fixed total order.
*/
package constraint

import (
	"fmt"
	"os"
	"strings"

	"github.com/lunny/log"

	"github.com/tsjzz/rnafold/checks"
	"github.com/tsjzz/rnafold/fold"
	"github.com/tsjzz/rnafold/motif"
)

// LengthError reports an inline or file constraint longer than the
// sequence. It is always fatal; a shorter constraint is merely warned about
// and right-padded as unconstrained.
type LengthError struct {
	ConstraintLen, SeqLen int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("structure constraint of length %d is too long for sequence of length %d",
		e.ConstraintLen, e.SeqLen)
}

// Spec accumulates every constraint source for one record. The precedence
// is fixed: a constraint file wins over inline constraint lines; SHAPE data
// applies independently; ligand motifs next; directive script commands come
// last and may override everything before them.
type Spec struct {
	// File is the path of a hard constraint file, empty when unused.
	File string
	// InlineLines are the trailing record lines that may hold a pseudo
	// dot-bracket constraint. Only consulted when File is empty.
	InlineLines []string
	// Multiline allows the inline constraint to span several lines (set
	// when the record carried a header).
	Multiline bool
	// Enforce forces even non-canonical bracket pairs to form.
	Enforce bool
	// Canonical restricts bracket pairs to canonical ones.
	Canonical bool

	// SHAPE selects reactivity-derived pseudo-energies.
	SHAPE *SHAPEOptions

	// Ligands are the stabilizing motifs to register.
	Ligands []motif.Ligand

	// Commands is a parsed directive script.
	Commands []Command
}

// Active reports whether any constraint source is configured. The
// post-fold infeasibility check only fires when this is true.
func (s *Spec) Active() bool {
	return s.File != "" || len(s.InlineLines) > 0 || s.SHAPE != nil ||
		len(s.Ligands) > 0 || len(s.Commands) > 0
}

// HardActive reports whether a hard constraint source (file, inline lines
// or a directive script) is configured; only those can render the solution
// set empty.
func (s *Spec) HardActive() bool {
	return s.File != "" || len(s.InlineLines) > 0 || len(s.Commands) > 0
}

// Apply composes all sources onto the compound, registering detected-motif
// material in reg. It must be called before the first folding call on c.
func (s *Spec) Apply(c *fold.Compound, reg *motif.Registry, logger *log.Logger) error {
	cons := fold.NewConstraints(c.Len())

	// (a)/(b): exactly one hard dot-bracket source
	db, err := s.hardConstraint(c.Len(), logger)
	if err != nil {
		return err
	}
	if db != "" {
		if err := s.applyDotBracket(cons, c.Sequence(), db, logger); err != nil {
			return err
		}
	} else if len(s.InlineLines) > 0 {
		logger.Warn("no structure constraint found after sequence")
	}

	// (c): SHAPE pseudo-energies, independent of the hard source
	if s.SHAPE != nil {
		if err := s.SHAPE.apply(cons, logger); err != nil {
			return err
		}
	}

	// (d): ligand motif stabilizing terms
	for _, l := range s.Ligands {
		reg.Add(l)
		if !l.HairpinShaped() {
			// interior motifs participate in detection only
			continue
		}
		if !c.AddHairpinMotif(l.Seq, l.Energy) {
			logger.Warnf("ligand motif %q not usable as hairpin bonus, detection only", l.Seq)
		}
	}

	// (e): directive script, last, may override earlier constraints
	for _, cmd := range s.Commands {
		if err := cmd.apply(cons, reg, logger); err != nil {
			logger.Warnf("skipping directive %q: %v", cmd.source, err)
		}
	}

	return c.SetConstraints(cons)
}

// hardConstraint resolves the single active dot-bracket source: the file
// when given, otherwise the inline lines.
func (s *Spec) hardConstraint(seqLen int, logger *log.Logger) (string, error) {
	if s.File != "" {
		data, err := os.ReadFile(s.File)
		if err != nil {
			return "", fmt.Errorf("reading constraint file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">") {
				continue
			}
			return line, nil
		}
		logger.Warn("constraint file holds no structure constraint")
		return "", nil
	}

	var db strings.Builder
	for _, line := range s.InlineLines {
		if !checks.IsConstraintLine(line) {
			break
		}
		db.WriteString(line)
		if !s.Multiline {
			break
		}
		if db.Len() >= seqLen {
			break
		}
	}
	return db.String(), nil
}

// applyDotBracket translates one pseudo dot-bracket string into hard
// constraint rules. Longer than the sequence is fatal; shorter is warned
// about and padded as unconstrained.
func (s *Spec) applyDotBracket(cons *fold.Constraints, seq, db string, logger *log.Logger) error {
	n := len(seq)
	switch {
	case len(db) == 0:
		logger.Warn("structure constraint is missing")
		return nil
	case len(db) > n:
		return &LengthError{ConstraintLen: len(db), SeqLen: n}
	case len(db) < n:
		logger.Warn("structure constraint is shorter than sequence")
	}
	cons.MarkActive()

	var stack []int
	for i := 0; i < len(db); i++ {
		switch db[i] {
		case '.':
			// unconstrained
		case 'x':
			if err := cons.ForceUnpaired(i); err != nil {
				logger.Warnf("constraint conflict: %v", err)
			}
		case '|', '<', '>':
			if err := cons.ForcePaired(i); err != nil {
				logger.Warnf("constraint conflict: %v", err)
			}
		case '(':
			stack = append(stack, i)
		case ')':
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced structure constraint at position %d", i+1)
			}
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if err := s.forceBracketPair(cons, seq, j, i, logger); err != nil {
				logger.Warnf("constraint conflict: %v", err)
			}
		default:
			// pseudoknot and extension symbols carry no hard rule
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unbalanced structure constraint: %d unclosed brackets", len(stack))
	}
	return nil
}

func (s *Spec) forceBracketPair(cons *fold.Constraints, seq string, i, j int, logger *log.Logger) error {
	canonical := pairable(seq[i], seq[j])
	if !canonical && (s.Canonical || !s.Enforce) {
		logger.Warnf("dropping non-canonical constraint pair (%d,%d)", i+1, j+1)
		return nil
	}
	return cons.ForcePair(i, j)
}

func pairable(a, b byte) bool {
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
