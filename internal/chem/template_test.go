package chem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderInput(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "input.tpl")
	tpl := "NAtoms: {{.NAtoms}}\n{{range .Atoms}}{{.Symbol}} {{printf \"%.3f\" .X}} {{printf \"%.3f\" .Y}} {{printf \"%.3f\" .Z}}\n{{end}}"
	if err := os.WriteFile(tplPath, []byte(tpl), 0o644); err != nil {
		t.Fatal(err)
	}

	g := &Geometry{Atoms: []Atom{
		{Symbol: "H", Position: [3]float64{1, 2, 3}},
		{Symbol: "O", Position: [3]float64{0, 0, 0}},
	}}

	out, err := RenderInput(tplPath, g)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "NAtoms: 2") {
		t.Fatalf("expected atom count header, got %q", out)
	}
	if !strings.Contains(out, "H 1.000 2.000 3.000") {
		t.Fatalf("expected rendered H row, got %q", out)
	}
	if !strings.Contains(out, "O 0.000 0.000 0.000") {
		t.Fatalf("expected rendered O row, got %q", out)
	}
}

func TestRenderInputBunch(t *testing.T) {
	dir := t.TempDir()
	tplPath := filepath.Join(dir, "input.tpl")
	if err := os.WriteFile(tplPath, []byte("N={{.NAtoms}};"), 0o644); err != nil {
		t.Fatal(err)
	}

	mols := []*Geometry{
		{Atoms: []Atom{{Symbol: "H"}}},
		{Atoms: []Atom{{Symbol: "H"}, {Symbol: "H"}}},
	}
	out, err := RenderInputBunch(tplPath, mols)
	if err != nil {
		t.Fatal(err)
	}
	if out != "N=1;N=2;" {
		t.Fatalf("RenderInputBunch = %q, want N=1;N=2;", out)
	}
}

func TestRenderInputMissingTemplate(t *testing.T) {
	if _, err := RenderInput("/nonexistent/path.tpl", &Geometry{}); err == nil {
		t.Fatal("want error for missing template file")
	}
}
