package fold

import "fmt"

// PairKey identifies a base pair by its zero-based positions, I < J.
type PairKey struct {
	I, J int
}

// orderedPair normalizes a pair key.
func orderedPair(i, j int) PairKey {
	if i > j {
		i, j = j, i
	}
	return PairKey{i, j}
}

// Constraints is the immutable outcome of constraint composition: hard
// pairing rules plus per-position soft energies. It is built once, attached
// to a compound and never mutated afterwards.
type Constraints struct {
	n int

	// unpaired marks positions that must stay unpaired.
	unpaired []bool
	// mustPair marks positions that must pair with some partner.
	mustPair []bool
	// partner holds a forced partner per position, -1 when free.
	partner []int
	// banned pairs, normalized I < J.
	banned map[PairKey]bool

	// Soft holds a pseudo energy per position, added whenever the position
	// is part of a base pair (SHAPE-style reactivity conversion).
	Soft []float64

	active bool
}

// NewConstraints returns an empty constraint set for a sequence of length n.
func NewConstraints(n int) *Constraints {
	partner := make([]int, n)
	for i := range partner {
		partner[i] = -1
	}
	return &Constraints{
		n:        n,
		unpaired: make([]bool, n),
		mustPair: make([]bool, n),
		partner:  partner,
		banned:   make(map[PairKey]bool),
		Soft:     make([]float64, n),
	}
}

// Len returns the constrained sequence length.
func (c *Constraints) Len() int { return c.n }

// MarkActive records that a constraint source contributed, enabling the
// post-fold infeasibility check even when the source added no rule.
func (c *Constraints) MarkActive() { c.active = true }

// Active reports whether any constraint source contributed.
func (c *Constraints) Active() bool { return c.active }

// ForceUnpaired requires position i (zero-based) to stay unpaired.
func (c *Constraints) ForceUnpaired(i int) error {
	if err := c.checkPos(i); err != nil {
		return err
	}
	if c.mustPair[i] || c.partner[i] >= 0 {
		return fmt.Errorf("position %d is already required to pair", i+1)
	}
	c.unpaired[i] = true
	c.active = true
	return nil
}

// ForcePaired requires position i to pair with some partner.
func (c *Constraints) ForcePaired(i int) error {
	if err := c.checkPos(i); err != nil {
		return err
	}
	if c.unpaired[i] {
		return fmt.Errorf("position %d is already required to stay unpaired", i+1)
	}
	c.mustPair[i] = true
	c.active = true
	return nil
}

// ForcePair requires the specific pair (i, j) to form.
func (c *Constraints) ForcePair(i, j int) error {
	if err := c.checkPos(i); err != nil {
		return err
	}
	if err := c.checkPos(j); err != nil {
		return err
	}
	p := orderedPair(i, j)
	if c.unpaired[p.I] || c.unpaired[p.J] {
		return fmt.Errorf("pair (%d,%d) conflicts with an unpaired constraint", p.I+1, p.J+1)
	}
	if ex := c.partner[p.I]; ex >= 0 && ex != p.J {
		return fmt.Errorf("position %d already forced to pair with %d", p.I+1, ex+1)
	}
	if ex := c.partner[p.J]; ex >= 0 && ex != p.I {
		return fmt.Errorf("position %d already forced to pair with %d", p.J+1, ex+1)
	}
	c.partner[p.I] = p.J
	c.partner[p.J] = p.I
	c.mustPair[p.I] = true
	c.mustPair[p.J] = true
	c.active = true
	return nil
}

// ProhibitPair bans the specific pair (i, j). A prohibition overrides an
// earlier forced pair, directive scripts rely on this.
func (c *Constraints) ProhibitPair(i, j int) error {
	if err := c.checkPos(i); err != nil {
		return err
	}
	if err := c.checkPos(j); err != nil {
		return err
	}
	p := orderedPair(i, j)
	if c.partner[p.I] == p.J {
		c.partner[p.I] = -1
		c.partner[p.J] = -1
		c.mustPair[p.I] = false
		c.mustPair[p.J] = false
	}
	c.banned[p] = true
	c.active = true
	return nil
}

// AddSoft accumulates a pseudo energy at position i, charged whenever the
// position pairs.
func (c *Constraints) AddSoft(i int, e float64) error {
	if err := c.checkPos(i); err != nil {
		return err
	}
	c.Soft[i] += e
	c.active = true
	return nil
}

func (c *Constraints) checkPos(i int) error {
	if i < 0 || i >= c.n {
		return fmt.Errorf("constraint position %d outside sequence of length %d", i+1, c.n)
	}
	return nil
}

// engine-side queries

func (c *Constraints) mayStayUnpaired(i int) bool {
	return !c.mustPair[i]
}

func (c *Constraints) rangeMayStayUnpaired(i, j int) bool {
	for k := i; k <= j; k++ {
		if c.mustPair[k] {
			return false
		}
	}
	return true
}

func (c *Constraints) allowsPair(i, j int) bool {
	p := orderedPair(i, j)
	if c.unpaired[p.I] || c.unpaired[p.J] {
		return false
	}
	if c.banned[p] {
		return false
	}
	if ex := c.partner[p.I]; ex >= 0 && ex != p.J {
		return false
	}
	if ex := c.partner[p.J]; ex >= 0 && ex != p.I {
		return false
	}
	return true
}

func (c *Constraints) forcedPartner(i int) int {
	if i < 0 || i >= c.n {
		return -1
	}
	return c.partner[i]
}
