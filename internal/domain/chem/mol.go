// Package chem is the in-process cheminformatics toolkit used by the
// pipeline: a SMILES reader, Morgan-style canonicalisation, SSSR ring
// perception, and the derived-descriptor calculators.  It covers the subset
// of chemistry the QM9 molecules need (H, C, N, O, F and the organic-subset
// grammar); a production system reaching beyond that would bind a full
// toolkit such as RDKit instead.
package chem

import (
	"strings"
	"unicode"

	"github.com/chemforge/molpipe/pkg/errors"
)

// Atom is one node of the molecular graph.
type Atom struct {
	Element  string
	Aromatic bool
	Charge   int
	// HCount is the explicit hydrogen count from a bracket atom, or -1 when
	// hydrogens are implicit.
	HCount  int
	Isotope int
}

// Bond is one edge of the molecular graph.  Order is 1, 2 or 3; an aromatic
// bond carries Order 1 with Aromatic set, and is never additionally counted
// as a single, double, or triple bond.
type Bond struct {
	From     int
	To       int
	Order    int
	Aromatic bool
}

// Mol is a parsed molecular graph.
type Mol struct {
	Atoms []Atom
	Bonds []Bond

	adj map[int][]int // atom index -> neighbouring atom indices
}

// defaultValence lists the lowest normal valence per organic-subset element,
// used for implicit hydrogen computation.
var defaultValence = map[string]int{
	"B": 3, "C": 4, "N": 3, "O": 2, "P": 3, "S": 2,
	"F": 1, "Cl": 1, "Br": 1, "I": 1,
}

// atomicMass lists standard atomic weights for the elements QM9 and the
// organic subset cover.
var atomicMass = map[string]float64{
	"H": 1.008, "B": 10.81, "C": 12.011, "N": 14.007, "O": 15.999,
	"F": 18.998, "P": 30.974, "S": 32.06, "Cl": 35.45, "Br": 79.904, "I": 126.904,
}

// organicSubset lists the elements that may appear without brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols lists the lowercase aromatic forms allowed outside
// brackets.
var aromaticSymbols = map[byte]string{
	'b': "B", 'c': "C", 'n': "N", 'o': "O", 's': "S", 'p': "P",
}

// Neighbors returns the atom indices bonded to atom i.
func (m *Mol) Neighbors(i int) []int {
	if m.adj == nil {
		m.buildAdjacency()
	}
	return m.adj[i]
}

// BondBetween returns the bond connecting atoms a and b, or nil.
func (m *Mol) BondBetween(a, b int) *Bond {
	for i := range m.Bonds {
		bd := &m.Bonds[i]
		if (bd.From == a && bd.To == b) || (bd.From == b && bd.To == a) {
			return bd
		}
	}
	return nil
}

func (m *Mol) buildAdjacency() {
	m.adj = make(map[int][]int, len(m.Atoms))
	for _, b := range m.Bonds {
		m.adj[b.From] = append(m.adj[b.From], b.To)
		m.adj[b.To] = append(m.adj[b.To], b.From)
	}
}

// bondOrderSum returns the total bond order at atom i, counting an aromatic
// bond as 1.5 so that a benzene carbon sums to 3 and receives one implicit
// hydrogen.
func (m *Mol) bondOrderSum(i int) float64 {
	var sum float64
	for _, b := range m.Bonds {
		if b.From != i && b.To != i {
			continue
		}
		if b.Aromatic {
			sum += 1.5
		} else {
			sum += float64(b.Order)
		}
	}
	return sum
}

// ImplicitHydrogens returns the hydrogen count of atom i: the explicit
// bracket count when given, otherwise the default valence minus the bond
// order sum, adjusted by formal charge, floored at zero.
func (m *Mol) ImplicitHydrogens(i int) int {
	a := m.Atoms[i]
	if a.HCount >= 0 {
		return a.HCount
	}
	val, ok := defaultValence[a.Element]
	if !ok {
		return 0
	}
	h := val + a.Charge - int(m.bondOrderSum(i)+0.5)
	if h < 0 {
		return 0
	}
	return h
}

// MolecularWeight returns the molecular weight including implicit hydrogens.
func (m *Mol) MolecularWeight() float64 {
	var mw float64
	for i, a := range m.Atoms {
		mw += atomicMass[a.Element]
		mw += float64(m.ImplicitHydrogens(i)) * atomicMass["H"]
	}
	return mw
}

// openRing tracks a pending ring-closure digit.
type openRing struct {
	atom  int
	order int // 0 = unspecified
}

// ParseSMILES parses a SMILES string into a molecular graph.  It accepts
// the grammar the pipeline tokenizer covers: organic-subset atoms, aromatic
// lowercase forms, bracket atoms, branches, bond symbols, dot separators,
// and one- or two-digit ring closures.  Stereo bond markers (/ and \) are
// accepted and treated as single bonds; atom-level stereo descriptors inside
// brackets are parsed and dropped.
//
// Failure yields an ErrCodeStructureUnparseable error.
func ParseSMILES(s string) (*Mol, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.UnparseableStructure("empty SMILES")
	}

	m := &Mol{}
	var (
		prev      = -1  // previous atom index, -1 at chain start
		stack     []int // branch return points
		pendOrder = 0   // bond symbol waiting for the next atom, 0 = default
		pendDot   = false
		rings     = map[int]openRing{}
	)

	addAtom := func(a Atom) {
		m.Atoms = append(m.Atoms, a)
		idx := len(m.Atoms) - 1
		if prev >= 0 && !pendDot {
			m.Bonds = append(m.Bonds, makeBond(prev, idx, pendOrder, m.Atoms[prev], a))
		}
		pendOrder = 0
		pendDot = false
		prev = idx
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, errors.UnparseableStructure("unclosed bracket atom").WithDetail(s)
			}
			a, err := parseBracketAtom(s[i+1 : i+end])
			if err != nil {
				return nil, err.WithDetail(s)
			}
			addAtom(a)
			i += end + 1

		case c == 'C' && i+1 < len(s) && s[i+1] == 'l':
			addAtom(Atom{Element: "Cl", HCount: -1})
			i += 2
		case c == 'B' && i+1 < len(s) && s[i+1] == 'r':
			addAtom(Atom{Element: "Br", HCount: -1})
			i += 2
		case c >= 'A' && c <= 'Z':
			el := string(c)
			if !organicSubset[el] {
				return nil, errors.UnparseableStructure("element outside organic subset must be bracketed").
					WithDetail(string(c))
			}
			addAtom(Atom{Element: el, HCount: -1})
			i++
		case aromaticSymbols[c] != "":
			addAtom(Atom{Element: aromaticSymbols[c], Aromatic: true, HCount: -1})
			i++

		case c == '-':
			pendOrder = 1
			i++
		case c == '=':
			pendOrder = 2
			i++
		case c == '#':
			pendOrder = 3
			i++
		case c == ':':
			pendOrder = 4 // explicit aromatic bond
			i++
		case c == '/' || c == '\\':
			// Stereo bond orientation; the graph keeps a plain single bond.
			pendOrder = 1
			i++

		case c == '(':
			if prev < 0 {
				return nil, errors.UnparseableStructure("branch before any atom").WithDetail(s)
			}
			stack = append(stack, prev)
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, errors.UnparseableStructure("unmatched closing parenthesis").WithDetail(s)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++

		case c == '.':
			pendDot = true
			i++

		case c >= '0' && c <= '9', c == '%':
			num := 0
			if c == '%' {
				if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
					return nil, errors.UnparseableStructure("percent ring closure needs two digits").WithDetail(s)
				}
				num = int(s[i+1]-'0')*10 + int(s[i+2]-'0')
				i += 3
			} else {
				num = int(c - '0')
				i++
			}
			if prev < 0 {
				return nil, errors.UnparseableStructure("ring closure before any atom").WithDetail(s)
			}
			if open, ok := rings[num]; ok {
				order := pendOrder
				if order == 0 {
					order = open.order
				}
				if open.atom == prev {
					return nil, errors.UnparseableStructure("ring closure bonds atom to itself").WithDetail(s)
				}
				m.Bonds = append(m.Bonds, makeBond(open.atom, prev, order, m.Atoms[open.atom], m.Atoms[prev]))
				delete(rings, num)
				pendOrder = 0
			} else {
				rings[num] = openRing{atom: prev, order: pendOrder}
				pendOrder = 0
			}

		case unicode.IsSpace(rune(c)):
			// A SMILES field never contains interior whitespace.
			return nil, errors.UnparseableStructure("unexpected whitespace").WithDetail(s)
		default:
			return nil, errors.UnparseableStructure("unexpected character").
				WithDetail(string(c) + " in " + s)
		}
	}

	if len(stack) != 0 {
		return nil, errors.UnparseableStructure("unclosed branch").WithDetail(s)
	}
	if len(rings) != 0 {
		return nil, errors.UnparseableStructure("unclosed ring bond").WithDetail(s)
	}
	if pendOrder != 0 || pendDot {
		return nil, errors.UnparseableStructure("trailing bond symbol").WithDetail(s)
	}
	if len(m.Atoms) == 0 {
		return nil, errors.UnparseableStructure("no atoms").WithDetail(s)
	}

	m.buildAdjacency()
	return m, nil
}

// makeBond resolves the effective bond between two atoms: an explicit order
// wins; an unspecified bond between two aromatic atoms is aromatic;
// everything else is single.
func makeBond(from, to, order int, a, b Atom) Bond {
	switch {
	case order == 4:
		return Bond{From: from, To: to, Order: 1, Aromatic: true}
	case order > 0:
		return Bond{From: from, To: to, Order: order}
	case a.Aromatic && b.Aromatic:
		return Bond{From: from, To: to, Order: 1, Aromatic: true}
	default:
		return Bond{From: from, To: to, Order: 1}
	}
}

// parseBracketAtom parses the body of a bracket atom (without the square
// brackets): [isotope]symbol[chiral][H<count>][charge][:class].
func parseBracketAtom(body string) (Atom, *errors.AppError) {
	if body == "" {
		return Atom{}, errors.UnparseableStructure("empty bracket atom")
	}
	a := Atom{HCount: 0} // bracket atoms default to zero hydrogens

	i := 0
	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}
	if i >= len(body) {
		return Atom{}, errors.UnparseableStructure("bracket atom has no symbol").WithDetail(body)
	}

	// Element symbol: uppercase (+ optional lowercase) or an aromatic
	// lowercase form.
	c := body[i]
	switch {
	case c >= 'A' && c <= 'Z':
		a.Element = string(c)
		i++
		if i < len(body) && body[i] >= 'a' && body[i] <= 'z' && body[i] != '@' {
			candidate := a.Element + string(body[i])
			if _, ok := atomicMass[candidate]; ok {
				a.Element = candidate
				i++
			}
		}
	case aromaticSymbols[c] != "":
		a.Element = aromaticSymbols[c]
		a.Aromatic = true
		i++
	default:
		return Atom{}, errors.UnparseableStructure("invalid bracket atom symbol").WithDetail(body)
	}

	for i < len(body) {
		switch body[i] {
		case '@':
			// Chirality descriptor; accepted and dropped.
			i++
			if i < len(body) && body[i] == '@' {
				i++
			}
		case 'H':
			i++
			a.HCount = 1
			if i < len(body) && isDigit(body[i]) {
				a.HCount = int(body[i] - '0')
				i++
			}
		case '+':
			i++
			a.Charge = 1
			if i < len(body) && isDigit(body[i]) {
				a.Charge = int(body[i] - '0')
				i++
			} else {
				for i < len(body) && body[i] == '+' {
					a.Charge++
					i++
				}
			}
		case '-':
			i++
			a.Charge = -1
			if i < len(body) && isDigit(body[i]) {
				a.Charge = -int(body[i] - '0')
				i++
			} else {
				for i < len(body) && body[i] == '-' {
					a.Charge--
					i++
				}
			}
		case ':':
			// Atom class; skip the digits.
			i++
			for i < len(body) && isDigit(body[i]) {
				i++
			}
		default:
			return Atom{}, errors.UnparseableStructure("invalid bracket atom body").WithDetail(body)
		}
	}

	return a, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
