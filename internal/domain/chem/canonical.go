package chem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize parses a SMILES string and returns the unique canonical
// representative of its molecular graph.  Any two SMILES spellings of the
// same graph map to the same output string.
func Canonicalize(smiles string) (string, error) {
	m, err := ParseSMILES(smiles)
	if err != nil {
		return "", err
	}
	return m.CanonicalSMILES(), nil
}

// CanonicalSMILES writes the molecule as a canonical SMILES string using
// Morgan-style invariant refinement to fix the atom order.
func (m *Mol) CanonicalSMILES() string {
	ranks := m.canonicalRanks()

	// Emit each connected component separately, ordered by their best rank,
	// joined with the dot disconnection operator.
	comps := m.components()
	sort.Slice(comps, func(i, j int) bool {
		return bestRank(comps[i], ranks) < bestRank(comps[j], ranks)
	})

	w := &smilesWriter{
		mol:     m,
		ranks:   ranks,
		visited: make([]bool, len(m.Atoms)),
		closing: make(map[int][]closure),
	}
	parts := make([]string, 0, len(comps))
	for _, comp := range comps {
		start := comp[0]
		for _, a := range comp {
			if ranks[a] < ranks[start] {
				start = a
			}
		}
		w.assignClosures(comp)
		var sb strings.Builder
		w.walk(start, -1, &sb)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ".")
}

// canonicalRanks computes a stable rank per atom: initial invariants
// (element, aromaticity, charge, degree, hydrogen count) refined by
// iterated neighbourhood hashing, with deterministic tie-breaking.
func (m *Mol) canonicalRanks() []int {
	n := len(m.Atoms)
	inv := make([]string, n)
	for i, a := range m.Atoms {
		inv[i] = fmt.Sprintf("%s|%t|%d|%d|%d",
			a.Element, a.Aromatic, a.Charge, len(m.Neighbors(i)), m.ImplicitHydrogens(i))
	}
	ranks := ranksOf(inv)

	for {
		refined := m.refineOnce(ranks)
		if distinct(refined) == distinct(ranks) {
			ranks = refined
			break
		}
		ranks = refined
	}

	// Break remaining ties deterministically: promote the lowest-index atom
	// of the first tied class and re-refine until all ranks are distinct.
	for distinct(ranks) < n {
		tied := firstTiedAtom(ranks)
		inv := make([]string, n)
		for i, r := range ranks {
			if i == tied {
				inv[i] = fmt.Sprintf("%09d|0", r)
			} else {
				inv[i] = fmt.Sprintf("%09d|1", r)
			}
		}
		ranks = ranksOf(inv)
		for {
			refined := m.refineOnce(ranks)
			if distinct(refined) == distinct(ranks) {
				ranks = refined
				break
			}
			ranks = refined
		}
	}
	return ranks
}

func (m *Mol) refineOnce(ranks []int) []int {
	inv := make([]string, len(ranks))
	for i := range ranks {
		nbr := make([]int, 0, 4)
		for _, nb := range m.Neighbors(i) {
			nbr = append(nbr, ranks[nb])
		}
		sort.Ints(nbr)
		var sb strings.Builder
		fmt.Fprintf(&sb, "%09d", ranks[i])
		for _, r := range nbr {
			fmt.Fprintf(&sb, ",%09d", r)
		}
		inv[i] = sb.String()
	}
	return ranksOf(inv)
}

func ranksOf(inv []string) []int {
	uniq := append([]string(nil), inv...)
	sort.Strings(uniq)
	uniq = dedupe(uniq)
	pos := make(map[string]int, len(uniq))
	for i, s := range uniq {
		pos[s] = i
	}
	ranks := make([]int, len(inv))
	for i, s := range inv {
		ranks[i] = pos[s]
	}
	return ranks
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

func distinct(ranks []int) int {
	set := map[int]bool{}
	for _, r := range ranks {
		set[r] = true
	}
	return len(set)
}

func firstTiedAtom(ranks []int) int {
	count := map[int]int{}
	for _, r := range ranks {
		count[r]++
	}
	bestRank := -1
	for r, c := range count {
		if c > 1 && (bestRank == -1 || r < bestRank) {
			bestRank = r
		}
	}
	for i, r := range ranks {
		if r == bestRank {
			return i
		}
	}
	return 0
}

func (m *Mol) components() [][]int {
	visited := make([]bool, len(m.Atoms))
	var comps [][]int
	for start := range m.Atoms {
		if visited[start] {
			continue
		}
		var comp []int
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, nb := range m.Neighbors(cur) {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

func bestRank(comp []int, ranks []int) int {
	best := ranks[comp[0]]
	for _, a := range comp {
		if ranks[a] < best {
			best = ranks[a]
		}
	}
	return best
}

// closure is a ring-closure digit attached to an atom during writing.
type closure struct {
	digit int
	other int
	bond  *Bond
}

type smilesWriter struct {
	mol     *Mol
	ranks   []int
	visited []bool
	closing map[int][]closure
}

// assignClosures finds the ring-closure bonds of a component: the canonical
// DFS spanning tree is computed first, every non-tree bond gets a digit.
func (w *smilesWriter) assignClosures(comp []int) {
	start := comp[0]
	for _, a := range comp {
		if w.ranks[a] < w.ranks[start] {
			start = a
		}
	}

	inTree := map[*Bond]bool{}
	seen := make(map[int]bool, len(comp))
	var dfs func(at, from int)
	dfs = func(at, from int) {
		seen[at] = true
		for _, nb := range w.orderedNeighbors(at) {
			if nb == from {
				continue
			}
			b := w.mol.BondBetween(at, nb)
			if seen[nb] {
				continue
			}
			inTree[b] = true
			dfs(nb, at)
		}
	}
	dfs(start, -1)

	digit := 1
	assigned := map[*Bond]bool{}
	for _, a := range comp {
		for _, nb := range w.orderedNeighbors(a) {
			b := w.mol.BondBetween(a, nb)
			if inTree[b] || assigned[b] {
				continue
			}
			assigned[b] = true
			w.closing[b.From] = append(w.closing[b.From], closure{digit: digit, other: b.To, bond: b})
			w.closing[b.To] = append(w.closing[b.To], closure{digit: digit, other: b.From, bond: b})
			digit++
		}
	}
}

// orderedNeighbors returns the neighbours of an atom sorted by canonical
// rank, which fixes both the spanning tree and the emission order.
func (w *smilesWriter) orderedNeighbors(at int) []int {
	nbs := append([]int(nil), w.mol.Neighbors(at)...)
	sort.Slice(nbs, func(i, j int) bool { return w.ranks[nbs[i]] < w.ranks[nbs[j]] })
	return nbs
}

func (w *smilesWriter) walk(at, from int, sb *strings.Builder) {
	w.visited[at] = true
	sb.WriteString(w.atomString(at))

	for _, cl := range w.closing[at] {
		if !w.visited[cl.other] {
			// First endpoint: the bond symbol precedes the digit.
			sb.WriteString(bondSymbol(cl.bond))
		}
		if cl.digit > 9 {
			sb.WriteByte('%')
			sb.WriteString(strconv.Itoa(cl.digit))
		} else {
			sb.WriteString(strconv.Itoa(cl.digit))
		}
	}

	var next []int
	for _, nb := range w.orderedNeighbors(at) {
		if nb == from || w.visited[nb] {
			continue
		}
		if w.isClosure(at, nb) {
			continue
		}
		next = append(next, nb)
	}

	for i, nb := range next {
		b := w.mol.BondBetween(at, nb)
		if i < len(next)-1 {
			sb.WriteByte('(')
			sb.WriteString(bondSymbol(b))
			w.walk(nb, at, sb)
			sb.WriteByte(')')
		} else {
			sb.WriteString(bondSymbol(b))
			w.walk(nb, at, sb)
		}
	}
}

func (w *smilesWriter) isClosure(a, b int) bool {
	for _, cl := range w.closing[a] {
		if cl.other == b {
			return true
		}
	}
	return false
}

func bondSymbol(b *Bond) string {
	if b == nil || b.Aromatic {
		return ""
	}
	switch b.Order {
	case 2:
		return "="
	case 3:
		return "#"
	default:
		return ""
	}
}

func (w *smilesWriter) atomString(at int) string {
	a := w.mol.Atoms[at]
	symbol := a.Element
	if a.Aromatic {
		symbol = strings.ToLower(symbol)
	}

	needsBracket := a.Charge != 0 || a.Isotope != 0 || !organicSubset[a.Element]
	if !needsBracket && a.HCount >= 0 && a.HCount != w.bareHydrogens(at) {
		// An explicit hydrogen count must survive the round trip unless it
		// matches what a bare atom would imply.
		needsBracket = true
	}
	if !needsBracket {
		return symbol
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope != 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(symbol)
	h := w.mol.ImplicitHydrogens(at)
	if h == 1 {
		sb.WriteByte('H')
	} else if h > 1 {
		sb.WriteByte('H')
		sb.WriteString(strconv.Itoa(h))
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge > 1:
		sb.WriteByte('+')
		sb.WriteString(strconv.Itoa(a.Charge))
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge < -1:
		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(-a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}

// bareHydrogens computes the hydrogen count a bare organic-subset atom at
// this position would imply.
func (w *smilesWriter) bareHydrogens(at int) int {
	a := w.mol.Atoms[at]
	val, ok := defaultValence[a.Element]
	if !ok {
		return 0
	}
	h := val - int(w.mol.bondOrderSum(at)+0.5)
	if h < 0 {
		return 0
	}
	return h
}
