package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/pkg/errors"
)

func TestParseSMILES(t *testing.T) {
	t.Run("ethanol", func(t *testing.T) {
		m, err := ParseSMILES("CCO")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 3)
		require.Len(t, m.Bonds, 2)
		assert.Equal(t, "C", m.Atoms[0].Element)
		assert.Equal(t, "O", m.Atoms[2].Element)
		assert.Equal(t, 3, m.ImplicitHydrogens(0))
		assert.Equal(t, 2, m.ImplicitHydrogens(1))
		assert.Equal(t, 1, m.ImplicitHydrogens(2))
		assert.InDelta(t, 46.07, m.MolecularWeight(), 0.05)
	})

	t.Run("benzene is fully aromatic", func(t *testing.T) {
		m, err := ParseSMILES("c1ccccc1")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 6)
		require.Len(t, m.Bonds, 6)
		for _, a := range m.Atoms {
			assert.True(t, a.Aromatic)
		}
		for _, b := range m.Bonds {
			assert.True(t, b.Aromatic)
		}
	})

	t.Run("branches and orders", func(t *testing.T) {
		m, err := ParseSMILES("CC(=O)O")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 4)
		require.Len(t, m.Bonds, 3)
		carbonyl := m.BondBetween(1, 2)
		require.NotNil(t, carbonyl)
		assert.Equal(t, 2, carbonyl.Order)
	})

	t.Run("two-letter halogen", func(t *testing.T) {
		m, err := ParseSMILES("ClCCBr")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 4)
		assert.Equal(t, "Cl", m.Atoms[0].Element)
		assert.Equal(t, "Br", m.Atoms[3].Element)
	})

	t.Run("bracket atom", func(t *testing.T) {
		m, err := ParseSMILES("[NH4+]")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 1)
		assert.Equal(t, "N", m.Atoms[0].Element)
		assert.Equal(t, 4, m.Atoms[0].HCount)
		assert.Equal(t, 1, m.Atoms[0].Charge)
	})

	t.Run("percent ring closure", func(t *testing.T) {
		m, err := ParseSMILES("C%10CCCCC%10")
		require.NoError(t, err)
		require.Len(t, m.Atoms, 6)
		require.Len(t, m.Bonds, 6)
	})
}

func TestParseSMILESErrors(t *testing.T) {
	cases := []struct {
		name   string
		smiles string
	}{
		{"empty", ""},
		{"unknown element", "Xx"},
		{"unclosed branch", "C(C"},
		{"unbalanced close", "CC)"},
		{"unclosed ring", "C1CC"},
		{"unclosed bracket", "[CH3"},
		{"dangling bond", "CC="},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSMILES(tc.smiles)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeStructureUnparseable))
		})
	}
}
