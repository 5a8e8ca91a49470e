package chem

// DescriptorNames lists the descriptor keys the toolkit always emits, in the
// order the exported table carries them.  Ring-size buckets and the optional
// np_score column come on top of these.
var DescriptorNames = []string{
	"logp",
	"qed",
	"sa_score",
	"mol_weight",
	"tpsa",
	"hbd",
	"hba",
	"rotatable_bonds",
	"ring_count",
	"single_bond",
	"double_bond",
	"triple_bond",
	"aromatic_bond",
}

// Toolkit computes descriptors over molecular graphs.  A Toolkit is
// immutable after construction and safe for concurrent use; the optional
// natural-product model is its only state.
type Toolkit struct {
	maxRingSize int
	npModel     *NPModel
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithMaxRingSize sets the largest ring size bucketed individually; rings
// above it are still counted under their own R<n> key.
func WithMaxRingSize(n int) Option {
	return func(t *Toolkit) {
		if n >= 3 {
			t.maxRingSize = n
		}
	}
}

// WithNPModel enables natural-product likeness scoring.
func WithNPModel(model *NPModel) Option {
	return func(t *Toolkit) {
		t.npModel = model
	}
}

// NewToolkit builds a toolkit with the default ring-size ceiling of 8.
func NewToolkit(opts ...Option) *Toolkit {
	t := &Toolkit{maxRingSize: 8}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HasNPModel reports whether np_score will be emitted.
func (t *Toolkit) HasNPModel() bool {
	return t.npModel != nil
}

// Canonicalize parses a SMILES string and returns its canonical form.
func (t *Toolkit) Canonicalize(smiles string) (string, error) {
	return Canonicalize(smiles)
}

// Descriptors parses a SMILES string and computes the full descriptor map:
// the fixed descriptor set, R3..Rmax ring-size buckets (larger rings under
// their own key), and np_score when a model is loaded.
func (t *Toolkit) Descriptors(smiles string) (map[string]float64, error) {
	m, err := ParseSMILES(smiles)
	if err != nil {
		return nil, err
	}

	out := map[string]float64{
		"logp":            m.LogP(),
		"qed":             m.QED(),
		"sa_score":        m.SAScore(),
		"mol_weight":      m.MolecularWeight(),
		"tpsa":            m.TPSA(),
		"hbd":             float64(m.HBondDonors()),
		"hba":             float64(m.HBondAcceptors()),
		"rotatable_bonds": float64(m.RotatableBonds()),
	}

	ringCount, buckets := m.RingStats(t.maxRingSize)
	out["ring_count"] = float64(ringCount)
	for key, n := range buckets {
		out[key] = float64(n)
	}

	single, double, triple, aromatic := m.BondStats()
	out["single_bond"] = float64(single)
	out["double_bond"] = float64(double)
	out["triple_bond"] = float64(triple)
	out["aromatic_bond"] = float64(aromatic)

	if t.npModel != nil {
		out["np_score"] = t.npModel.Score(m)
	}
	return out, nil
}
