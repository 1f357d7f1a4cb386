// Package chem is the chemistry adapter layer: geometry rendering (mol to
// text), engine-output parsing (text to energy and forces), and
// engine-specific config rewriting. None of it is part of the core
// (session/codec/transport); it is the concrete implementation the core's
// capability interfaces are bound to.
package chem

import (
	"fmt"
	"strings"
)

// Atom is one atom in a Geometry: an element symbol and a Cartesian
// position in Ångström. The i-PI wire format carries no species
// information; atoms decoded from that wire carry PlaceholderSymbol until
// an adapter resolves the real element.
type Atom struct {
	Symbol   string
	Position [3]float64
}

// PlaceholderSymbol annotates an atom whose element could not be recovered
// from the wire protocol.
const PlaceholderSymbol = "X"

// Geometry is a molecule: N atoms with Cartesian positions and an
// optional 3x3 lattice. A zero-norm lattice means non-periodic.
type Geometry struct {
	Atoms   []Atom
	Lattice *[3][3]float64 // row-major; nil means non-periodic
}

// NAtoms returns the number of atoms.
func (g *Geometry) NAtoms() int { return len(g.Atoms) }

// Periodic reports whether g carries a non-zero lattice.
func (g *Geometry) Periodic() bool {
	if g.Lattice == nil {
		return false
	}
	var sum float64
	for _, row := range g.Lattice {
		for _, v := range row {
			if v < 0 {
				v = -v
			}
			sum += v
		}
	}
	return sum >= 1e-6
}

// ScaledPositions converts every atom's Cartesian position into fractional
// (scaled) coordinates against g.Lattice. It fails on a non-periodic
// geometry: there is no cell to scale against.
func (g *Geometry) ScaledPositions() ([][3]float64, error) {
	if !g.Periodic() {
		return nil, fmt.Errorf("chem: scaled positions require a periodic lattice")
	}
	inv, err := invert3x3(*g.Lattice)
	if err != nil {
		return nil, fmt.Errorf("chem: invert lattice: %w", err)
	}
	out := make([][3]float64, len(g.Atoms))
	for i, a := range g.Atoms {
		out[i] = mulVec3(inv, a.Position)
	}
	return out, nil
}

// FormatScaledPositions renders g's scaled positions one atom per line,
// %19.16f fixed-point, space-separated. The engine's interactive stdin
// reader expects exactly this column width.
func (g *Geometry) FormatScaledPositions() (string, error) {
	coords, err := g.ScaledPositions()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, c := range coords {
		fmt.Fprintf(&sb, "%19.16f %19.16f %19.16f\n", c[0], c[1], c[2])
	}
	return sb.String(), nil
}

func invert3x3(m [3][3]float64) ([3][3]float64, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det == 0 {
		return [3][3]float64{}, fmt.Errorf("singular lattice matrix")
	}
	invDet := 1.0 / det
	var out [3][3]float64
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return out, nil
}

// mulVec3 applies m^T * v: v is a row vector of Cartesian coordinates,
// m's rows are lattice vectors, so scaled[i] = sum_j v[j] * inv[j][i].
func mulVec3(inv [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += v[j] * inv[j][i]
		}
	}
	return out
}
