package facade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ybyygu/vasp-tools/internal/chem"
	"github.com/ybyygu/vasp-tools/internal/config"
)

// fakeEngine is a stand-in interactive engine: it prints one result block
// ending in the sentinel line immediately on start, then one more block per
// line of stdin it receives, mirroring an interactive quantum-chemistry
// engine's behavior closely enough to exercise the first-call/
// subsequent-call branching in Compute.
const fakeEngineScript = `#!/bin/sh
print_result() {
  echo "FORCES:"
  echo "   0.0100000   0.0200000   0.0300000"
  echo "   1 F= -10.0000000E+00 E0= -20.0000000E+00  d E =0.0  mag=0.0"
  echo "POSITIONS: read"
}
print_result
while read -r line; do
  print_result
done
`

func setupFacade(t *testing.T) *Facade {
	t.Helper()
	dir := t.TempDir()

	runPath := filepath.Join(dir, "submit.sh")
	if err := os.WriteFile(runPath, []byte(fakeEngineScript), 0o755); err != nil {
		t.Fatal(err)
	}
	tplPath := filepath.Join(dir, "input.tpl")
	if err := os.WriteFile(tplPath, []byte("NAtoms: {{.NAtoms}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		RunFile:  runPath,
		TplFile:  tplPath,
		ScrDir:   filepath.Join(dir, "scratch"),
		Sentinel: "POSITIONS: read",
	}
	return New(cfg)
}

func oneAtomGeometry() *chem.Geometry {
	lattice := [3][3]float64{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}}
	return &chem.Geometry{
		Atoms:   []chem.Atom{{Symbol: "H", Position: [3]float64{1, 1, 1}}},
		Lattice: &lattice,
	}
}

func TestFacadeFirstCallSpawnsAndComputes(t *testing.T) {
	f := setupFacade(t)
	defer f.Close()

	result, err := f.Compute(context.Background(), oneAtomGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if result.Energy != -20.0 {
		t.Fatalf("energy = %v, want -20.0", result.Energy)
	}
	if len(result.Forces) != 1 {
		t.Fatalf("forces len = %d, want 1", len(result.Forces))
	}
}

func TestFacadeSubsequentCallReusesSession(t *testing.T) {
	f := setupFacade(t)
	defer f.Close()

	mol := oneAtomGeometry()
	if _, err := f.Compute(context.Background(), mol); err != nil {
		t.Fatal(err)
	}
	result, err := f.Compute(context.Background(), mol)
	if err != nil {
		t.Fatal(err)
	}
	if result.Energy != -20.0 {
		t.Fatalf("energy = %v, want -20.0", result.Energy)
	}
}

func TestFacadeCloseRemovesScratchDir(t *testing.T) {
	f := setupFacade(t)
	if _, err := f.Compute(context.Background(), oneAtomGeometry()); err != nil {
		t.Fatal(err)
	}
	scratchDir := f.scratch.Dir()
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(scratchDir); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir removed, stat err = %v", err)
	}
}

// fakeBatchScript is a stand-in non-interactive engine: one result block
// per input line it receives, then exit.
const fakeBatchScript = `#!/bin/sh
while read -r line; do
  echo "FORCES:"
  echo "   0.0100000   0.0200000   0.0300000"
  echo "   1 F= -10.0000000E+00 E0= -20.0000000E+00  d E =0.0  mag=0.0"
done
`

func TestFacadeComputeBunch(t *testing.T) {
	dir := t.TempDir()

	runPath := filepath.Join(dir, "submit.sh")
	if err := os.WriteFile(runPath, []byte(fakeBatchScript), 0o755); err != nil {
		t.Fatal(err)
	}
	tplPath := filepath.Join(dir, "input.tpl")
	if err := os.WriteFile(tplPath, []byte("{{.NAtoms}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		RunFile: runPath,
		TplFile: tplPath,
		ScrDir:  filepath.Join(dir, "scratch"),
	}
	f := New(cfg)
	defer f.Close()

	mols := []*chem.Geometry{oneAtomGeometry(), oneAtomGeometry(), oneAtomGeometry()}
	results, err := f.ComputeBunch(context.Background(), mols)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(mols) {
		t.Fatalf("got %d results, want %d", len(results), len(mols))
	}
	for i, r := range results {
		if r.Energy != -20.0 {
			t.Fatalf("results[%d].Energy = %v, want -20.0", i, r.Energy)
		}
		if len(r.Forces) != 1 {
			t.Fatalf("results[%d] forces len = %d, want 1", i, len(r.Forces))
		}
	}
}

func TestFacadeCloseBeforeAnyComputeIsNoop(t *testing.T) {
	f := setupFacade(t)
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
