package chem

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// templateData is the view text/template executes against: flattened
// fields a hand-written engine input template can reference directly
// (e.g. {{range .Atoms}}{{.Symbol}} {{.X}} {{.Y}} {{.Z}}{{end}}).
type templateData struct {
	NAtoms  int
	Atoms   []templateAtom
	Lattice [3][3]float64
}

type templateAtom struct {
	Symbol  string
	X, Y, Z float64
}

func toTemplateData(g *Geometry) templateData {
	td := templateData{NAtoms: len(g.Atoms)}
	if g.Lattice != nil {
		td.Lattice = *g.Lattice
	}
	td.Atoms = make([]templateAtom, len(g.Atoms))
	for i, a := range g.Atoms {
		td.Atoms[i] = templateAtom{Symbol: a.Symbol, X: a.Position[0], Y: a.Position[1], Z: a.Position[2]}
	}
	return td
}

// RenderInput renders a geometry input file for the engine using the
// text/template file at tplPath.
func RenderInput(tplPath string, g *Geometry) (string, error) {
	raw, err := os.ReadFile(tplPath)
	if err != nil {
		return "", fmt.Errorf("chem: read template %s: %w", tplPath, err)
	}
	tpl, err := template.New("input").Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("chem: parse template %s: %w", tplPath, err)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, toTemplateData(g)); err != nil {
		return "", fmt.Errorf("chem: render template %s: %w", tplPath, err)
	}
	return sb.String(), nil
}

// RenderInputBunch renders and concatenates a template for each geometry
// in mols, for batch (non-interactive) submission.
func RenderInputBunch(tplPath string, mols []*Geometry) (string, error) {
	var sb strings.Builder
	for _, mol := range mols {
		part, err := RenderInput(tplPath, mol)
		if err != nil {
			return "", err
		}
		sb.WriteString(part)
	}
	return sb.String(), nil
}
