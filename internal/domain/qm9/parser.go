package qm9

import (
	"bufio"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chemforge/molpipe/pkg/errors"
)

// Structure-file layout, by zero-based line index for a molecule with N
// atoms:
//
//	0        atom count N
//	1        tag, index, then the fifteen scalar properties
//	2..N+1   element symbol, x, y, z, Mulliken charge
//	N+2      harmonic vibrational frequencies
//	N+3      SMILES (GDB-17), SMILES (relaxed geometry)
//	N+4      InChI (GDB-17), InChI (relaxed geometry)
//
// Numeric fields occasionally use Mathematica exponent notation
// ("1.23*^-4"); ParseFloat handles both forms.

// propertySkipTokens is the number of leading tokens on the property line
// (the "gdb" tag and the molecule index) before the scalar properties start.
const propertySkipTokens = 2

// ParseFloat parses a numeric field tolerantly.  It first attempts standard
// float syntax, then falls back to splitting on the "*^" marker and
// computing base * 10^exponent.
func ParseFloat(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	base, exp, found := strings.Cut(s, "*^")
	if !found {
		return 0, errors.Newf(errors.ErrCodeRecordFloat, "unparseable float %q", s)
	}
	b, err := strconv.ParseFloat(base, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeRecordFloat, "unparseable float base %q", s)
	}
	e, err := strconv.ParseFloat(exp, 64)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeRecordFloat, "unparseable float exponent %q", s)
	}
	return b * math.Pow(10, e), nil
}

// ParseFile reads and parses the structure file at path.  The record name is
// derived from the file name without extension.
func ParseFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "open structure file")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rec, err := Parse(f, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "parse "+filepath.Base(path))
	}
	return rec, nil
}

// Parse reads one structure record from r.  It fails with an
// ErrCodeRecordMalformed error whenever the line or field layout deviates
// from the fixed format.
func Parse(r io.Reader, name string) (*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRecordMalformed, "reading record")
	}

	// Trailing blank lines are tolerated; anything else is positional.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 3 {
		return nil, errors.MalformedRecord("record too short").
			WithDetail("lines=" + strconv.Itoa(len(lines)))
	}

	atomCount, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || atomCount <= 0 {
		return nil, errors.MalformedRecord("first line is not a positive atom count").
			WithDetail("line=" + lines[0])
	}

	// N atom lines plus count, properties, frequencies, SMILES, and InChI.
	want := atomCount + 5
	if len(lines) != want {
		return nil, errors.Newf(errors.ErrCodeRecordMalformed,
			"expected %d lines for %d atoms, got %d", want, atomCount, len(lines))
	}

	props, err := parseProperties(lines[1])
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, atomCount)
	positions := make([][3]float64, 0, atomCount)
	charges := make([]float64, 0, atomCount)
	for i := 0; i < atomCount; i++ {
		line := lines[2+i]
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, errors.Newf(errors.ErrCodeRecordMalformed,
				"atom line %d has %d fields, expected 5", 2+i, len(fields))
		}
		var pos [3]float64
		for j := 0; j < 3; j++ {
			v, err := ParseFloat(fields[1+j])
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeRecordMalformed, "atom coordinate")
			}
			pos[j] = v
		}
		charge, err := ParseFloat(fields[4])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRecordMalformed, "atom charge")
		}
		symbols = append(symbols, fields[0])
		positions = append(positions, pos)
		charges = append(charges, charge)
	}

	freqs, err := parseFrequencies(lines[atomCount+2])
	if err != nil {
		return nil, err
	}

	smilesFields := strings.Fields(lines[atomCount+3])
	if len(smilesFields) == 0 {
		return nil, errors.MalformedRecord("SMILES line is empty")
	}
	smiles := smilesFields[0]
	relaxed := smiles
	if len(smilesFields) > 1 {
		relaxed = smilesFields[1]
	}

	inchiFields := strings.Fields(lines[atomCount+4])
	if len(inchiFields) == 0 {
		return nil, errors.MalformedRecord("InChI line is empty")
	}

	rec := &Record{
		Name:          name,
		AtomCount:     atomCount,
		Symbols:       symbols,
		Positions:     positions,
		Charges:       charges,
		Frequencies:   freqs,
		SMILES:        smiles,
		RelaxedSMILES: relaxed,
		InChI:         inchiFields[0],
		Properties:    props,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseProperties(line string) (map[string]float64, error) {
	fields := strings.Fields(line)
	if len(fields) != propertySkipTokens+NumProperties {
		return nil, errors.Newf(errors.ErrCodeRecordMalformed,
			"property line has %d fields, expected %d", len(fields), propertySkipTokens+NumProperties)
	}
	props := make(map[string]float64, NumProperties)
	for i, name := range PropertyNames {
		v, err := ParseFloat(fields[propertySkipTokens+i])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRecordMalformed, "scalar property "+name)
		}
		props[name] = v
	}
	return props, nil
}

func parseFrequencies(line string) ([]float64, error) {
	fields := strings.Fields(line)
	freqs := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := ParseFloat(f)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeRecordMalformed, "vibrational frequency")
		}
		freqs = append(freqs, v)
	}
	return freqs, nil
}
