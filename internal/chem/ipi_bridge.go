package chem

import "github.com/ybyygu/vasp-tools/internal/ipi"

// GeometryFromPosData converts a decoded i-PI POSDATA message into a
// Geometry. The wire's cell is row-major; the internal representation is
// column-major, so the 3x3 is transposed on the way in. A near-zero cell
// (ipi.NonPeriodic) leaves Lattice nil. Atoms carry PlaceholderSymbol
// since the i-PI wire carries no element information.
func GeometryFromPosData(m ipi.Message) *Geometry {
	natoms := int(m.NAtoms)
	atoms := make([]Atom, natoms)
	for i := 0; i < natoms; i++ {
		atoms[i] = Atom{
			Symbol:   PlaceholderSymbol,
			Position: [3]float64{m.Coords[3*i], m.Coords[3*i+1], m.Coords[3*i+2]},
		}
	}

	g := &Geometry{Atoms: atoms}
	if !ipi.NonPeriodic(m.Cell) {
		var lattice [3][3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				lattice[j][i] = m.Cell[3*i+j]
			}
		}
		g.Lattice = &lattice
	}
	return g
}

// ResultToForceReady packages a computed Result as an i-PI FORCEREADY
// message. The virial and extra payload are left zero-valued: nothing in
// Result models a stress tensor or engine-specific trailer.
func ResultToForceReady(r Result) ipi.Message {
	natoms := len(r.Forces)
	forces := make([]float64, 3*natoms)
	for i, f := range r.Forces {
		forces[3*i], forces[3*i+1], forces[3*i+2] = f[0], f[1], f[2]
	}
	return ipi.Message{
		Kind:   ipi.KindForceReady,
		Energy: r.Energy,
		NAtoms: uint32(natoms),
		Forces: forces,
	}
}
