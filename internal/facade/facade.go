// Package facade implements the request-response loop a chemistry driver
// calls with one geometry at a time, hiding whether this is the first call
// (spawn + full geometry) or a subsequent one (scaled coordinates only).
package facade

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ybyygu/vasp-tools/internal/chem"
	"github.com/ybyygu/vasp-tools/internal/config"
	"github.com/ybyygu/vasp-tools/internal/engine"
	"github.com/ybyygu/vasp-tools/internal/logger"
)

// Facade owns one Session across many Compute calls, staging a fresh
// scratch directory with the run script and initial geometry before the
// first spawn.
type Facade struct {
	cfg     *config.Config
	scratch *engine.Scratch
	session *engine.Session

	ncalls int
}

// New builds a Facade from cfg. Nothing is spawned until the first Compute
// call.
func New(cfg *config.Config) *Facade {
	return &Facade{cfg: cfg}
}

// Compute evaluates energy and forces for mol. The first call renders the
// full geometry into the scratch directory and spawns the engine there;
// later calls feed only scaled coordinates into the already-running
// Session. Between calls the engine is paused to avoid wasting CPU.
func (f *Facade) Compute(ctx context.Context, mol *chem.Geometry) (chem.Result, error) {
	var input []byte
	if f.ncalls == 0 {
		if err := f.firstCall(ctx, mol); err != nil {
			return chem.Result{}, err
		}
	} else {
		if err := f.session.Resume(); err != nil {
			return chem.Result{}, fmt.Errorf("facade: resume engine: %w", err)
		}
		scaled, err := mol.FormatScaledPositions()
		if err != nil {
			return chem.Result{}, fmt.Errorf("facade: format scaled positions: %w", err)
		}
		input = []byte(scaled)
	}

	out, err := f.session.Interact(ctx, input, f.cfg.Sentinel)
	if err != nil {
		return chem.Result{}, fmt.Errorf("facade: interact: %w", err)
	}
	result, err := chem.ParseEnergyForces(out)
	if err != nil {
		return chem.Result{}, err
	}
	f.ncalls++
	if err := f.session.Pause(); err != nil {
		logger.Warn("facade: pause between calls failed", "error", err)
	}
	return result, nil
}

func (f *Facade) firstCall(ctx context.Context, mol *chem.Geometry) error {
	scratch, err := engine.NewScratch(f.cfg.ScrDir, f.cfg.RunFile)
	if err != nil {
		return fmt.Errorf("facade: prepare scratch: %w", err)
	}
	f.scratch = scratch

	text, err := chem.RenderInput(f.cfg.TplFile, mol)
	if err != nil {
		return fmt.Errorf("facade: render input: %w", err)
	}
	// The engine reads its initial geometry from a POSCAR file in its
	// working directory, not from stdin (the empty-input first Interact).
	if err := os.WriteFile(filepath.Join(scratch.Dir(), "POSCAR"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("facade: write initial geometry: %w", err)
	}

	jobDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("facade: job dir: %w", err)
	}
	f.session = engine.New(scratch.RunScript())
	f.session.SetDir(scratch.Dir())
	f.session.AppendEnv(
		"BBM_TPL_DIR="+filepath.Dir(f.cfg.TplFile),
		"BBM_JOB_DIR="+jobDir,
	)
	if err := f.session.Spawn(); err != nil {
		return fmt.Errorf("facade: spawn engine: %w", err)
	}
	return nil
}

// ComputeBunch evaluates every geometry in mols in one non-interactive
// engine run: the rendered inputs are concatenated into a single
// submission fed to the run script's stdin, and one Result is parsed per
// geometry from its output, in submission order. It never touches the
// interactive Session; each call stages and removes its own scratch
// directory.
func (f *Facade) ComputeBunch(ctx context.Context, mols []*chem.Geometry) ([]chem.Result, error) {
	scratch, err := engine.NewScratch(f.cfg.ScrDir, f.cfg.RunFile)
	if err != nil {
		return nil, fmt.Errorf("facade: prepare scratch: %w", err)
	}
	defer scratch.Close()

	text, err := chem.RenderInputBunch(f.cfg.TplFile, mols)
	if err != nil {
		return nil, fmt.Errorf("facade: render bunch input: %w", err)
	}
	jobDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("facade: job dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, scratch.RunScript())
	cmd.Dir = scratch.Dir()
	cmd.Env = append(os.Environ(),
		"BBM_TPL_DIR="+filepath.Dir(f.cfg.TplFile),
		"BBM_JOB_DIR="+jobDir,
	)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("facade: run %s: %w", scratch.RunScript(), err)
	}

	results, err := chem.ParseEnergyForcesAll(string(out))
	if err != nil {
		return nil, err
	}
	if len(results) != len(mols) {
		return nil, fmt.Errorf("facade: engine returned %d results for %d geometries", len(results), len(mols))
	}
	return results, nil
}

// Close terminates the Session and removes the scratch directory, unless
// the Session was poisoned (in which case the scratch directory is kept
// for inspection).
func (f *Facade) Close() error {
	if f.session == nil {
		return nil
	}
	poisoned, _ := f.session.Poisoned()
	if err := f.session.Terminate(); err != nil {
		logger.Warn("facade: terminate on close failed", "error", err)
	}
	if f.scratch == nil {
		return nil
	}
	if poisoned {
		f.scratch.Keep()
		return nil
	}
	return f.scratch.Close()
}
