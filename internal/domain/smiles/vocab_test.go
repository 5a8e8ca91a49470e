package smiles

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/pkg/errors"
)

func TestVocabularyBuild(t *testing.T) {
	builder := NewVocabularyBuilder()
	require.NoError(t, builder.Add("CCO"))
	require.NoError(t, builder.Add("c1ccccc1"))

	vocab, err := builder.Build()
	require.NoError(t, err)

	// Sorted token set: 1 C O c.
	assert.Equal(t, 4, vocab.Size())
	for i, tok := range []string{"1", "C", "O", "c"} {
		got, ok := vocab.Index(tok)
		require.True(t, ok, tok)
		assert.Equal(t, i, got, tok)
	}
}

func TestVocabularyOrderIndependent(t *testing.T) {
	a := NewVocabularyBuilder()
	require.NoError(t, a.Add("CCO"))
	require.NoError(t, a.Add("c1ccccc1"))
	b := NewVocabularyBuilder()
	require.NoError(t, b.Add("c1ccccc1"))
	require.NoError(t, b.Add("CCO"))

	va, err := a.Build()
	require.NoError(t, err)
	vb, err := b.Build()
	require.NoError(t, err)

	ja, err := json.Marshal(va)
	require.NoError(t, err)
	jb, err := json.Marshal(vb)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestVocabularyEncode(t *testing.T) {
	builder := NewVocabularyBuilder()
	require.NoError(t, builder.Add("CCO"))
	vocab, err := builder.Build()
	require.NoError(t, err)

	// Sorted set: C O.
	seq, err := vocab.Encode("OCC")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0}, seq)

	_, err = vocab.Encode("CCN")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenization))
}

func TestVocabularyEmptyBuild(t *testing.T) {
	_, err := NewVocabularyBuilder().Build()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVocabEmpty))
}

func TestVocabularyRoundTripFile(t *testing.T) {
	builder := NewVocabularyBuilder()
	require.NoError(t, builder.Add("CC(=O)O"))
	vocab, err := builder.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "vocab.json")
	require.NoError(t, vocab.WriteFile(path))

	loaded, err := ReadVocabularyFile(path)
	require.NoError(t, err)
	assert.Equal(t, vocab.Size(), loaded.Size())
	for _, tok := range []string{"C", "(", ")", "=", "O"} {
		want, _ := vocab.Index(tok)
		got, ok := loaded.Index(tok)
		require.True(t, ok, tok)
		assert.Equal(t, want, got, tok)
	}

	_, err = ReadVocabularyFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestVocabularyBuildRejectsBadCorpusEntry(t *testing.T) {
	builder := NewVocabularyBuilder()
	err := builder.Add("CXC")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenization))
}
