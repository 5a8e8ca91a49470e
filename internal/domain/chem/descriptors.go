package chem

import (
	"math"
)

// Atom-contribution table for the octanol-water partition coefficient,
// Crippen-style but reduced to element/aromaticity classes.  A production
// system would use the full 68-class Crippen table; the reduced table keeps
// the correct sign and ordering behaviour for the H/C/N/O/F chemistry of
// QM9.
var logPContribution = map[string]float64{
	"C":  0.1441,
	"c":  0.2955, // aromatic carbon
	"N":  -0.6000,
	"n":  -0.3239,
	"O":  -0.3567,
	"o":  0.0335,
	"F":  0.4202,
	"Cl": 0.6895,
	"Br": 0.8456,
	"I":  0.8857,
	"S":  0.6237,
	"s":  0.6237,
	"P":  0.8612,
	"B":  -0.3187,
	"H":  0.1125,
}

// Polar-surface-area contributions per heteroatom environment, reduced from
// the Ertl TPSA fragment table.
const (
	tpsaNH2 = 26.02
	tpsaNH  = 12.03
	tpsaN   = 3.24
	tpsaNAr = 12.89
	tpsaOH  = 20.23
	tpsaO   = 9.23
	tpsaOAr = 13.14
)

// LogP estimates the octanol-water partition coefficient as a sum of atom
// contributions, implicit hydrogens included.
func (m *Mol) LogP() float64 {
	var logp float64
	for i, a := range m.Atoms {
		key := a.Element
		if a.Aromatic {
			switch a.Element {
			case "C":
				key = "c"
			case "N":
				key = "n"
			case "O":
				key = "o"
			case "S":
				key = "s"
			}
		}
		logp += logPContribution[key]
		logp += float64(m.ImplicitHydrogens(i)) * logPContribution["H"]
	}
	return logp
}

// TPSA estimates the topological polar surface area from nitrogen and
// oxygen environments.
func (m *Mol) TPSA() float64 {
	var tpsa float64
	for i, a := range m.Atoms {
		h := m.ImplicitHydrogens(i)
		switch a.Element {
		case "N":
			switch {
			case a.Aromatic:
				tpsa += tpsaNAr
			case h >= 2:
				tpsa += tpsaNH2
			case h == 1:
				tpsa += tpsaNH
			default:
				tpsa += tpsaN
			}
		case "O":
			switch {
			case a.Aromatic:
				tpsa += tpsaOAr
			case h >= 1:
				tpsa += tpsaOH
			default:
				tpsa += tpsaO
			}
		}
	}
	return tpsa
}

// HBondDonors counts N and O atoms carrying at least one hydrogen.
func (m *Mol) HBondDonors() int {
	count := 0
	for i, a := range m.Atoms {
		if (a.Element == "N" || a.Element == "O") && m.ImplicitHydrogens(i) > 0 {
			count++
		}
	}
	return count
}

// HBondAcceptors counts N and O atoms.
func (m *Mol) HBondAcceptors() int {
	count := 0
	for _, a := range m.Atoms {
		if a.Element == "N" || a.Element == "O" {
			count++
		}
	}
	return count
}

// RotatableBonds counts single non-ring bonds between two heavy atoms that
// each carry at least one further heavy neighbour.
func (m *Mol) RotatableBonds() int {
	count := 0
	for _, b := range m.Bonds {
		if b.Order != 1 || b.Aromatic {
			continue
		}
		if len(m.Neighbors(b.From)) < 2 || len(m.Neighbors(b.To)) < 2 {
			continue
		}
		if m.InRing(b.From, b.To) {
			continue
		}
		count++
	}
	return count
}

// AromaticRingCount counts SSSR rings consisting entirely of aromatic atoms.
func (m *Mol) AromaticRingCount() int {
	count := 0
	for _, ring := range m.SSSR() {
		aromatic := true
		for _, at := range ring {
			if !m.Atoms[at].Aromatic {
				aromatic = false
				break
			}
		}
		if aromatic {
			count++
		}
	}
	return count
}

// qedDesirability is a Gaussian desirability function centred on the
// drug-like optimum of one property.
func qedDesirability(x, mean, sigma float64) float64 {
	d := (x - mean) / sigma
	return math.Exp(-0.5 * d * d)
}

// QED estimates the quantitative drug-likeness score in [0, 1] as the
// geometric mean of per-property desirability functions over molecular
// weight, logP, hydrogen-bond donors and acceptors, polar surface area,
// rotatable bonds, and aromatic rings.  The parameterisation follows the
// published drug-like optima; the geometric mean keeps any single bad
// property dominant, which is the property QED is valued for.
func (m *Mol) QED() float64 {
	desirabilities := []float64{
		qedDesirability(m.MolecularWeight(), 300, 150),
		qedDesirability(m.LogP(), 2.5, 2.0),
		qedDesirability(float64(m.HBondDonors()), 1.5, 2.0),
		qedDesirability(float64(m.HBondAcceptors()), 3.0, 2.5),
		qedDesirability(m.TPSA(), 80, 60),
		qedDesirability(float64(m.RotatableBonds()), 4, 4),
		qedDesirability(float64(m.AromaticRingCount()), 1.5, 1.5),
	}
	sum := 0.0
	for _, d := range desirabilities {
		// Floor avoids log(0) for far-out properties.
		sum += math.Log(math.Max(d, 1e-9))
	}
	qed := math.Exp(sum / float64(len(desirabilities)))
	return math.Min(math.Max(qed, 0), 1)
}
