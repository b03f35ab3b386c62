package fold

// Maximum expected accuracy structures. The two input types make the choice
// between the plain and the sequence-aware optimization explicit: a plain
// probability set never reaches the sequence-aware trace and vice versa.

// PlainProbs is a sparse pair probability set over a sequence of length N.
type PlainProbs struct {
	N     int
	Pairs []PairProb
}

// SeqProbs is a sparse pair probability set that still needs the sequence to
// resolve which pairs are admissible. Required whenever the model ran with
// G-quadruplex support, since quadruplex positions masquerade as ordinary
// pairs in the probability list.
type SeqProbs struct {
	Seq   string
	Pairs []PairProb
}

// MEA computes the maximum expected accuracy structure over a plain
// probability set: it maximizes gamma-weighted expected true positives
// minus expected false positives. Gamma above one favors sensitivity.
func MEA(p PlainProbs, gamma float64) (string, float64) {
	probs := denseProbs(p.N, p.Pairs, nil)
	return meaTrace(p.N, probs, gamma)
}

// MEASeq is the sequence-aware variant of MEA. Pairs that the sequence
// cannot form canonically are excluded from the optimization.
func MEASeq(p SeqProbs, gamma float64) (string, float64) {
	n := len(p.Seq)
	admissible := func(i, j int) bool {
		return canonicalPair(p.Seq[i], p.Seq[j])
	}
	probs := denseProbs(n, p.Pairs, admissible)
	return meaTrace(n, probs, gamma)
}

func denseProbs(n int, pairs []PairProb, admissible func(i, j int) bool) [][]float64 {
	probs := zeroSquare(n)
	for _, pr := range pairs {
		if pr.I < 0 || pr.J >= n || pr.I >= pr.J {
			continue
		}
		if admissible != nil && !admissible(pr.I, pr.J) {
			continue
		}
		probs[pr.I][pr.J] = pr.P
	}
	return probs
}

func meaTrace(n int, probs [][]float64, gamma float64) (string, float64) {
	if n == 0 {
		return "", 0
	}

	// expected accuracy of leaving a position unpaired
	unpaired := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 1.0
		for j := 0; j < n; j++ {
			switch {
			case j > i:
				acc -= probs[i][j]
			case j < i:
				acc -= probs[j][i]
			}
		}
		if acc < 0 {
			acc = 0
		}
		unpaired[i] = acc
	}

	m := zeroSquare(n)
	for i := 0; i < n; i++ {
		m[i][i] = unpaired[i]
	}
	for span := 2; span <= n; span++ {
		for i := 0; i+span-1 < n; i++ {
			j := i + span - 1
			best := m[i][j-1] + unpaired[j]
			for k := i; k < j; k++ {
				if probs[k][j] == 0 {
					continue
				}
				e := 2 * gamma * probs[k][j]
				if k > i {
					e += m[i][k-1]
				}
				if k+1 <= j-1 {
					e += m[k+1][j-1]
				}
				if e > best {
					best = e
				}
			}
			m[i][j] = best
		}
	}

	out := []byte(EmptyStructure(n))
	type segment struct{ i, j int }
	stack := []segment{{0, n - 1}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, j := seg.i, seg.j
		if j <= i {
			continue
		}
		if approxEq(m[i][j], m[i][j-1]+unpaired[j]) {
			stack = append(stack, segment{i, j - 1})
			continue
		}
		found := false
		for k := i; k < j; k++ {
			if probs[k][j] == 0 {
				continue
			}
			e := 2 * gamma * probs[k][j]
			if k > i {
				e += m[i][k-1]
			}
			if k+1 <= j-1 {
				e += m[k+1][j-1]
			}
			if approxEq(m[i][j], e) {
				out[k] = '('
				out[j] = ')'
				stack = append(stack, segment{i, k - 1})
				stack = append(stack, segment{k + 1, j - 1})
				found = true
				break
			}
		}
		if !found {
			stack = append(stack, segment{i, j - 1})
		}
	}

	return string(out), m[0][n-1]
}
