package chem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParsePOSCAR reads a VASP5-style POSCAR/CONTCAR geometry block: a comment
// line, a uniform scale factor, three lattice vectors, a species-symbol
// line, a per-species count line, a "Direct"/"Cartesian" selector, then one
// coordinate line per atom. The VASP4 variant without the species-symbol
// line is also accepted.
func ParsePOSCAR(text string) (*Geometry, error) {
	lines := strings.Split(text, "\n")
	// Drop trailing blank lines so a well-formed file doesn't fail the
	// minimum-line-count check below.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 8 {
		return nil, fmt.Errorf("chem: POSCAR text too short (%d lines)", len(lines))
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("chem: POSCAR scale factor: %w", err)
	}

	var lattice [3][3]float64
	for i := 0; i < 3; i++ {
		row, err := parseFloats(lines[2+i], 3)
		if err != nil {
			return nil, fmt.Errorf("chem: POSCAR lattice vector %d: %w", i, err)
		}
		for j := 0; j < 3; j++ {
			lattice[i][j] = row[j] * scale
		}
	}

	symbolsLine := strings.Fields(lines[5])
	countsLine := strings.Fields(lines[6])
	symbols := symbolsLine
	counts := countsLine
	row := 7
	if isAllInts(symbolsLine) {
		// VASP4 format: no species-symbol line, counts come first.
		symbols = nil
		counts = symbolsLine
		row = 6
	}

	counted, err := parseInts(counts)
	if err != nil {
		return nil, fmt.Errorf("chem: POSCAR species counts: %w", err)
	}
	if len(symbols) > 0 && len(symbols) != len(counted) {
		return nil, fmt.Errorf("chem: POSCAR has %d species symbols but %d counts", len(symbols), len(counted))
	}

	selector := strings.ToLower(strings.TrimSpace(lines[row]))
	direct := strings.HasPrefix(selector, "d")
	row++

	var atoms []Atom
	species := 0
	for _, n := range counted {
		symbol := PlaceholderSymbol
		if species < len(symbols) {
			symbol = symbols[species]
		}
		for k := 0; k < n; k++ {
			if row >= len(lines) {
				return nil, fmt.Errorf("chem: POSCAR ran out of coordinate lines")
			}
			coords, err := parseFloats(lines[row], 3)
			if err != nil {
				return nil, fmt.Errorf("chem: POSCAR coordinate line %d: %w", row, err)
			}
			row++
			pos := coords
			if direct {
				pos = fracToCartesian(lattice, coords)
			} else {
				pos[0] *= scale
				pos[1] *= scale
				pos[2] *= scale
			}
			atoms = append(atoms, Atom{Symbol: symbol, Position: pos})
		}
		species++
	}

	return &Geometry{Atoms: atoms, Lattice: &lattice}, nil
}

func fracToCartesian(lattice [3][3]float64, frac [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += frac[j] * lattice[j][i]
		}
	}
	return out
}

func parseFloats(line string, n int) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(line)
	if len(fields) < n {
		return out, fmt.Errorf("expected %d fields, got %d", n, len(fields))
	}
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func isAllInts(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

// ReadPOSCAR is a convenience wrapper reading a POSCAR-format geometry from
// r in full before parsing.
func ReadPOSCAR(r *bufio.Reader) (*Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParsePOSCAR(string(data))
}
