package smiles

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/chemforge/molpipe/pkg/errors"
)

// Vocabulary maps grammar tokens to stable integer indices.  Indices are
// assigned over the sorted token set, so two corpora containing the same
// tokens produce identical vocabularies regardless of input order.
type Vocabulary struct {
	indices map[string]int
}

// NewVocabularyBuilder accumulates tokens from a corpus.
type VocabularyBuilder struct {
	seen map[string]struct{}
}

func NewVocabularyBuilder() *VocabularyBuilder {
	return &VocabularyBuilder{seen: make(map[string]struct{})}
}

// Add tokenises one SMILES string and records its tokens.  A string the
// grammar cannot cover fails the whole build: a vocabulary with holes would
// silently corrupt downstream training.
func (b *VocabularyBuilder) Add(smiles string) error {
	tokens, err := Tokenize(smiles)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		b.seen[tok] = struct{}{}
	}
	return nil
}

// Build assigns indices over the sorted token set.
func (b *VocabularyBuilder) Build() (*Vocabulary, error) {
	if len(b.seen) == 0 {
		return nil, errors.New(errors.ErrCodeVocabEmpty, "no tokens collected")
	}
	tokens := make([]string, 0, len(b.seen))
	for tok := range b.seen {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	indices := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		indices[tok] = i
	}
	return &Vocabulary{indices: indices}, nil
}

// Size returns the number of distinct tokens.
func (v *Vocabulary) Size() int {
	return len(v.indices)
}

// Index returns the index of a token.
func (v *Vocabulary) Index(token string) (int, bool) {
	i, ok := v.indices[token]
	return i, ok
}

// Encode maps a SMILES string to its index sequence.
func (v *Vocabulary) Encode(smiles string) ([]int, error) {
	tokens, err := Tokenize(smiles)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		idx, ok := v.indices[tok]
		if !ok {
			return nil, errors.Tokenization("token outside vocabulary").WithDetail(tok)
		}
		out[i] = idx
	}
	return out, nil
}

// MarshalJSON renders the vocabulary as a flat object sorted by token.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(v.indices, "", "  ")
}

// UnmarshalJSON restores a vocabulary written by MarshalJSON.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &v.indices)
}

// WriteFile writes the vocabulary JSON to path.
func (v *Vocabulary) WriteFile(path string) error {
	data, err := json.MarshalIndent(v.indices, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "encode vocabulary")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "write vocabulary")
	}
	return nil
}

// ReadVocabularyFile loads a vocabulary JSON file.
func ReadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "read vocabulary")
	}
	v := &Vocabulary{}
	if err := json.Unmarshal(data, &v.indices); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTokenization, "decode vocabulary")
	}
	return v, nil
}
