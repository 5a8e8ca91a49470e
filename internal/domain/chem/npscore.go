package chem

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/chemforge/molpipe/pkg/errors"
)

// NPModel holds a fragment-contribution table for natural-product likeness
// scoring.  The model file is a flat JSON object mapping atom-environment
// keys to score contributions; it is loaded once and shared read-only across
// workers.
type NPModel struct {
	contributions map[string]float64
}

// LoadNPModel reads a fragment-contribution table from a JSON file.
func LoadNPModel(path string) (*NPModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScoreModelMissing, "read natural-product model")
	}
	contributions := make(map[string]float64)
	if err := json.Unmarshal(data, &contributions); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScoreModelInvalid, "decode natural-product model")
	}
	if len(contributions) == 0 {
		return nil, errors.New(errors.ErrCodeScoreModelInvalid, "natural-product model is empty").
			WithDetail("path=" + path)
	}
	return &NPModel{contributions: contributions}, nil
}

// Score computes the natural-product likeness of a molecule as the mean
// fragment contribution over its atom environments.  Environments absent
// from the model contribute zero, matching the published treatment of
// unseen fragments.
func (model *NPModel) Score(m *Mol) float64 {
	if len(m.Atoms) == 0 {
		return 0
	}
	var sum float64
	for i := range m.Atoms {
		sum += model.contributions[m.atomEnvironment(i)]
	}
	return sum / float64(len(m.Atoms))
}

// atomEnvironment renders a radius-one environment key for an atom: the
// atom class followed by the sorted classes of its neighbours.
func (m *Mol) atomEnvironment(i int) string {
	key := atomClass(m.Atoms[i])
	classes := make([]string, 0, len(m.Neighbors(i)))
	for _, n := range m.Neighbors(i) {
		classes = append(classes, atomClass(m.Atoms[n]))
	}
	sort.Strings(classes)
	for _, c := range classes {
		key += "(" + c + ")"
	}
	return key
}

func atomClass(a Atom) string {
	if a.Aromatic {
		switch a.Element {
		case "C":
			return "c"
		case "N":
			return "n"
		case "O":
			return "o"
		case "S":
			return "s"
		}
	}
	return a.Element
}
