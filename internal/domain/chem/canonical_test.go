package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEquivalentSpellings(t *testing.T) {
	cases := []struct {
		name      string
		spellings []string
	}{
		{"ethanol", []string{"CCO", "OCC", "C(O)C"}},
		{"isopropanol", []string{"CC(C)O", "OC(C)C", "CC(O)C"}},
		{"acetic acid", []string{"CC(=O)O", "OC(C)=O", "C(C)(=O)O"}},
		{"benzene ring numbering", []string{"c1ccccc1", "c2ccccc2", "c%10ccccc%10"}},
		{"propane branch order", []string{"CCC", "C(C)C"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first, err := Canonicalize(tc.spellings[0])
			require.NoError(t, err)
			for _, alt := range tc.spellings[1:] {
				got, err := Canonicalize(alt)
				require.NoError(t, err)
				assert.Equal(t, first, got, "spelling %q", alt)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, smiles := range []string{
		"CCO",
		"c1ccccc1",
		"CC(=O)Nc1ccccc1",
		"C1CC1",
		"CC(C)(C)O",
		"[NH4+].[Cl-]",
	} {
		once, err := Canonicalize(smiles)
		require.NoError(t, err, smiles)
		twice, err := Canonicalize(once)
		require.NoError(t, err, once)
		assert.Equal(t, once, twice, smiles)
	}
}

func TestCanonicalOutputPreservesGraph(t *testing.T) {
	for _, smiles := range []string{"CCO", "c1ccccc1", "CC(=O)O", "C1CCCCC1"} {
		orig := mustParse(t, smiles)
		canon, err := Canonicalize(smiles)
		require.NoError(t, err, smiles)
		round := mustParse(t, canon)

		assert.Len(t, round.Atoms, len(orig.Atoms), smiles)
		assert.Len(t, round.Bonds, len(orig.Bonds), smiles)
		assert.InDelta(t, orig.MolecularWeight(), round.MolecularWeight(), 1e-9, smiles)
	}
}

func TestCanonicalizeRejectsGarbage(t *testing.T) {
	_, err := Canonicalize("not a structure")
	require.Error(t, err)
}
