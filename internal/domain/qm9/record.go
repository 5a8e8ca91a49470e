// Package qm9 provides the domain model and reader for QM9-style molecular
// structure files: one fixed-layout text record per molecule, carrying the
// optimised geometry, Mulliken charges, harmonic frequencies, identifiers,
// and fifteen scalar quantum-chemistry properties.
package qm9

import (
	"github.com/chemforge/molpipe/pkg/errors"
)

// PropertyNames lists the fifteen scalar properties of a record in the order
// they appear on the property line (after the two leading tag/index tokens):
// rotational constants A, B, C (GHz), dipole moment mu (Debye), isotropic
// polarizability alpha (Bohr^3), frontier orbital energies homo/lumo and gap
// (Hartree), electronic spatial extent r2 (Bohr^2), zero-point vibrational
// energy zpve (Hartree), internal energies u0/u, enthalpy h, free energy g
// (Hartree), and heat capacity cv (cal/mol K).
var PropertyNames = []string{
	"A", "B", "C", "mu", "alpha", "homo", "lumo", "gap",
	"r2", "zpve", "u0", "u", "h", "g", "cv",
}

// NumProperties is the fixed number of scalar properties per record; it
// always equals len(PropertyNames).
const NumProperties = 15

// Record is one parsed structure file.  It is immutable once constructed:
// the reader builds it, the pipeline appends it to the output table, and
// nothing mutates it afterwards.
type Record struct {
	// Name is the record identifier, taken from the source file name
	// without extension (e.g. "dsgdb9nsd_000042").
	Name string

	// AtomCount is the declared number of atoms, N.
	AtomCount int

	// Symbols holds the element symbol of each atom, length N.
	Symbols []string

	// Positions holds the Cartesian coordinates of each atom in Angstrom,
	// length N.
	Positions [][3]float64

	// Charges holds the Mulliken partial charge of each atom in e, length N.
	Charges []float64

	// Frequencies holds the harmonic vibrational frequencies in cm^-1.
	// Length varies with molecule size (3N-6, or 3N-5 for linear molecules).
	Frequencies []float64

	// SMILES is the GDB-17 SMILES string from the source file.
	SMILES string

	// RelaxedSMILES is the SMILES string corresponding to the relaxed
	// geometry; canonicalisation input.
	RelaxedSMILES string

	// CanonicalSMILES is the toolkit-canonicalised form of RelaxedSMILES.
	// Empty until the augmentation step fills it in a derived copy.
	CanonicalSMILES string

	// InChI is the InChI identifier from the source file.
	InChI string

	// Properties maps the fifteen PropertyNames to their values.
	Properties map[string]float64

	// Descriptors maps derived cheminformatics descriptor names to values.
	// Populated by the augmentation step; nil on a freshly parsed record.
	Descriptors map[string]float64
}

// Validate checks the structural invariant that every per-atom sequence has
// exactly AtomCount entries and that all fifteen scalar properties are
// present.
func (r *Record) Validate() error {
	if r.AtomCount <= 0 {
		return errors.New(errors.ErrCodeRecordInvariant, "atom count must be positive")
	}
	if len(r.Symbols) != r.AtomCount || len(r.Positions) != r.AtomCount || len(r.Charges) != r.AtomCount {
		return errors.Newf(errors.ErrCodeRecordInvariant,
			"per-atom lengths symbols=%d positions=%d charges=%d do not match atom count %d",
			len(r.Symbols), len(r.Positions), len(r.Charges), r.AtomCount)
	}
	if len(r.Properties) != NumProperties {
		return errors.Newf(errors.ErrCodeRecordInvariant,
			"expected %d scalar properties, got %d", NumProperties, len(r.Properties))
	}
	return nil
}

// WithAugmentation returns a copy of the record carrying the canonical
// SMILES and derived descriptors.  The receiver is left untouched, keeping
// parsed records immutable.
func (r *Record) WithAugmentation(canonical string, descriptors map[string]float64) *Record {
	clone := *r
	clone.CanonicalSMILES = canonical
	clone.Descriptors = descriptors
	return &clone
}
