// Package smiles tokenises SMILES strings into model vocabulary tokens and
// builds the token-to-index vocabulary shipped with a dataset.
package smiles

import (
	"regexp"
	"strings"

	"github.com/chemforge/molpipe/pkg/errors"
)

// tokenPattern covers the SMILES grammar the pipeline emits: bracket atoms
// as a single token, two-letter halogens, organic-subset atoms and their
// aromatic forms, bond and stereo symbols, branch parentheses, charges,
// single-digit ring closures, and two-digit %nn closures.  Order matters:
// longer alternatives must come first so Cl wins over C and %12 over 1.
const tokenPattern = `(\[[^\]]+\]|Br|Cl|N|O|S|P|F|I|B|C|b|c|n|o|s|p|\(|\)|\.|=|#|-|\+|\\|\/|:|~|@|\?|>|\*|\$|%[0-9]{2}|[0-9])`

var tokenRe = regexp.MustCompile(tokenPattern)

// Tokenize splits a SMILES string into grammar tokens.  The concatenation
// of the returned tokens always equals the input; any character the grammar
// does not cover makes the whole string unrepresentable and yields an
// ErrCodeTokenization error.
func Tokenize(s string) ([]string, error) {
	if s == "" {
		return nil, errors.Tokenization("empty SMILES")
	}
	tokens := tokenRe.FindAllString(s, -1)
	if joined := strings.Join(tokens, ""); joined != s {
		return nil, errors.Tokenization("token stream does not reconstruct input").
			WithDetail("input=" + s + " reconstructed=" + joined)
	}
	return tokens, nil
}
