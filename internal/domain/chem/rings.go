package chem

import (
	"sort"
	"strconv"
)

// SSSR returns the smallest set of smallest rings of the molecule, each ring
// as a sorted slice of atom indices.  The set size equals the cyclomatic
// number (bonds - atoms + components).
//
// Candidate rings are found per bond: removing the bond and running a BFS
// shortest path between its endpoints yields the smallest ring through that
// bond.  Candidates are deduplicated, sorted by size, and greedily accepted
// while they still cover an uncovered bond.  Exact for the small fused-ring
// systems QM9 molecules exhibit.
func (m *Mol) SSSR() [][]int {
	target := m.cyclomaticNumber()
	if target <= 0 {
		return nil
	}

	seen := map[string]bool{}
	var candidates [][]int
	for _, b := range m.Bonds {
		ring := m.smallestRingThrough(b)
		if ring == nil {
			continue
		}
		key := ringKey(ring)
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, ring)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) < len(candidates[j])
		}
		return ringKey(candidates[i]) < ringKey(candidates[j])
	})

	covered := map[[2]int]bool{}
	var sssr [][]int
	for _, ring := range candidates {
		if len(sssr) == target {
			break
		}
		if m.ringAddsBond(ring, covered) {
			for _, e := range m.ringEdges(ring) {
				covered[e] = true
			}
			sssr = append(sssr, ring)
		}
	}
	return sssr
}

// RingStats returns the SSSR ring count and the per-size histogram keyed
// "R<size>".  Sizes 3..maxSize always appear (zero-filled); larger rings are
// still counted under their own key.
func (m *Mol) RingStats(maxSize int) (int, map[string]int) {
	rings := m.SSSR()
	hist := make(map[string]int)
	for size := 3; size <= maxSize; size++ {
		hist[ringSizeKey(size)] = 0
	}
	for _, ring := range rings {
		hist[ringSizeKey(len(ring))]++
	}
	return len(rings), hist
}

// BondStats returns the counts of single, double, triple, and aromatic
// bonds.  An aromatic bond is counted only as aromatic.
func (m *Mol) BondStats() (single, double, triple, aromatic int) {
	for _, b := range m.Bonds {
		switch {
		case b.Aromatic:
			aromatic++
		case b.Order == 1:
			single++
		case b.Order == 2:
			double++
		case b.Order == 3:
			triple++
		}
	}
	return
}

// InRing reports whether the bond between atoms a and b lies on an SSSR
// ring.
func (m *Mol) InRing(a, b int) bool {
	for _, ring := range m.SSSR() {
		for _, e := range m.ringEdges(ring) {
			if (e[0] == a && e[1] == b) || (e[0] == b && e[1] == a) {
				return true
			}
		}
	}
	return false
}

func (m *Mol) cyclomaticNumber() int {
	return len(m.Bonds) - len(m.Atoms) + m.componentCount()
}

func (m *Mol) componentCount() int {
	visited := make([]bool, len(m.Atoms))
	count := 0
	for start := range m.Atoms {
		if visited[start] {
			continue
		}
		count++
		queue := []int{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range m.Neighbors(cur) {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}
	return count
}

// smallestRingThrough finds the smallest ring containing bond b as the BFS
// shortest path between its endpoints with the bond itself excluded.
// Returns nil when b is a bridge.
func (m *Mol) smallestRingThrough(b Bond) []int {
	parent := make([]int, len(m.Atoms))
	for i := range parent {
		parent[i] = -1
	}
	parent[b.From] = b.From
	queue := []int{b.From}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range m.Neighbors(cur) {
			if cur == b.From && nb == b.To {
				continue // the excluded bond
			}
			if parent[nb] != -1 {
				continue
			}
			parent[nb] = cur
			if nb == b.To {
				ring := []int{nb}
				for at := cur; at != b.From; at = parent[at] {
					ring = append(ring, at)
				}
				ring = append(ring, b.From)
				sort.Ints(ring)
				return ring
			}
			queue = append(queue, nb)
		}
	}
	return nil
}

// ringEdges returns the molecule bonds whose both endpoints belong to the
// ring atom set.  For a smallest ring this is exactly the cycle edge set: a
// chord would imply a smaller ring through it.
func (m *Mol) ringEdges(ring []int) [][2]int {
	inRing := map[int]bool{}
	for _, a := range ring {
		inRing[a] = true
	}
	var edges [][2]int
	for _, b := range m.Bonds {
		if inRing[b.From] && inRing[b.To] {
			lo, hi := b.From, b.To
			if lo > hi {
				lo, hi = hi, lo
			}
			edges = append(edges, [2]int{lo, hi})
		}
	}
	return edges
}

func (m *Mol) ringAddsBond(ring []int, covered map[[2]int]bool) bool {
	for _, e := range m.ringEdges(ring) {
		if !covered[e] {
			return true
		}
	}
	return false
}

func ringKey(ring []int) string {
	var sb []byte
	for _, a := range ring {
		sb = strconv.AppendInt(sb, int64(a), 10)
		sb = append(sb, ',')
	}
	return string(sb)
}

func ringSizeKey(size int) string {
	return "R" + strconv.Itoa(size)
}
