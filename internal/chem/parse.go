package chem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Result is the single-point energy/forces pair the core's Protocol
// interface hands back to its caller once it has a response text.
type Result struct {
	Energy float64      // eV
	Forces [][3]float64 // eV/Angstrom
}

// energyLine matches a VASP interactive-mode iteration summary line, e.g.
//
//	1 F= -.84780990E+02 E0= -.84775142E+02  d E =-.847810E+02  mag=     3.2666
//
// Only E0 (the extrapolated-to-sigma-zero energy) is kept.
var energyLine = regexp.MustCompile(`\bF=\s*(-?[\d.]+(?:[eE][+-]?\d+)?)\s+E0=\s*(-?[\d.]+(?:[eE][+-]?\d+)?)`)

// forcesHeader marks the start of a force block; each subsequent
// whitespace-separated line holds one atom's (x, y, z) force in eV/Å
// until a line fails to parse as three floats.
var forcesHeader = regexp.MustCompile(`^FORCES:\s*$`)

// ParseEnergyForces extracts the energy and forces from one captured
// response block of VASP interactive-mode stdout: it scans for the
// "FORCES:" header, reads one xyz row per atom, then the energy summary
// line that follows.
func ParseEnergyForces(text string) (Result, error) {
	lines := strings.Split(text, "\n")

	var forces [][3]float64
	i := 0
	for i < len(lines) && !forcesHeader.MatchString(lines[i]) {
		i++
	}
	if i >= len(lines) {
		return Result{}, fmt.Errorf("chem: no FORCES: block found in engine output")
	}
	i++ // skip the "FORCES:" line itself
	for ; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) < 3 {
			break
		}
		var xyz [3]float64
		ok := true
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				ok = false
				break
			}
			xyz[j] = v
		}
		if !ok {
			break
		}
		forces = append(forces, xyz)
	}
	if len(forces) == 0 {
		return Result{}, fmt.Errorf("chem: FORCES: block had no parseable rows")
	}

	for ; i < len(lines); i++ {
		m := energyLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		e0, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Result{}, fmt.Errorf("chem: parse E0 energy %q: %w", m[2], err)
		}
		return Result{Energy: e0, Forces: forces}, nil
	}
	return Result{}, fmt.Errorf("chem: no energy summary line found after FORCES: block")
}

// ParseEnergyForcesAll extracts one Result per "FORCES:" block from the
// output of a batch (bunch) submission, where the engine evaluates several
// geometries in one run and prints one response block per geometry, in
// submission order.
func ParseEnergyForcesAll(text string) ([]Result, error) {
	lines := strings.Split(text, "\n")
	var starts []int
	for i, line := range lines {
		if forcesHeader.MatchString(line) {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("chem: no FORCES: block found in engine output")
	}

	results := make([]Result, 0, len(starts))
	for k, start := range starts {
		end := len(lines)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		r, err := ParseEnergyForces(strings.Join(lines[start:end], "\n"))
		if err != nil {
			return nil, fmt.Errorf("chem: block %d: %w", k, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// FormatResult renders r as the text block the client subcommand writes to
// standard output: one energy line followed by one "x y z" line per atom's
// force.
func FormatResult(r Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "energy: %.8f eV\n", r.Energy)
	sb.WriteString("forces:\n")
	for _, f := range r.Forces {
		fmt.Fprintf(&sb, "%19.10f %19.10f %19.10f\n", f[0], f[1], f[2])
	}
	return sb.String()
}
