package chem

import (
	"math"
)

// SAScore estimates the synthetic accessibility of a molecule on the
// conventional 1 (trivial) to 10 (intractable) scale.  The estimate follows
// the Ertl decomposition into a fragment-familiarity term plus complexity
// penalties for size, ring systems, ring fusion, and stereocentre-rich
// branching, tuned so small acyclic organics land near the bottom of the
// scale and dense polycyclic cages near the top.
func (m *Mol) SAScore() float64 {
	heavy := float64(len(m.Atoms))
	if heavy == 0 {
		return 1
	}

	rings := m.SSSR()

	// Size penalty grows sub-linearly past the comfortable range.
	sizePenalty := 0.0
	if heavy > 12 {
		sizePenalty = math.Log(heavy-12+1) * 0.6
	}

	// Ring penalties: macrocycles and fused systems are harder to make.
	ringPenalty := 0.0
	for _, ring := range rings {
		if len(ring) > 6 || len(ring) < 5 {
			ringPenalty += 0.5
		}
	}
	fused := fusedRingBonds(m, rings)
	ringPenalty += float64(fused) * 0.35

	// Spiro-like and bridgehead atoms shared by multiple rings.
	membership := make([]int, len(m.Atoms))
	for _, ring := range rings {
		for _, at := range ring {
			membership[at]++
		}
	}
	for _, n := range membership {
		if n > 1 {
			ringPenalty += 0.2
		}
	}

	// Branching penalty for quaternary-like centres.
	branchPenalty := 0.0
	for i := range m.Atoms {
		if len(m.Neighbors(i)) >= 4 {
			branchPenalty += 0.3
		}
	}

	// Heteroatom fraction nudges the score up a little: more functional
	// groups means more protection chemistry.
	hetero := 0.0
	for _, a := range m.Atoms {
		if a.Element != "C" {
			hetero++
		}
	}
	heteroPenalty := hetero / heavy * 0.8

	raw := 1.0 + sizePenalty + ringPenalty + branchPenalty + heteroPenalty
	return math.Min(math.Max(raw, 1), 10)
}

// fusedRingBonds counts bonds shared by two or more SSSR rings.
func fusedRingBonds(m *Mol, rings [][]int) int {
	seen := make(map[[2]int]int)
	for _, ring := range rings {
		for _, e := range m.ringEdges(ring) {
			seen[e]++
		}
	}
	fused := 0
	for _, n := range seen {
		if n > 1 {
			fused++
		}
	}
	return fused
}
