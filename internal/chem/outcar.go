package chem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OptIter summarizes one geometry-optimization iteration parsed out of a
// completed engine log.
type OptIter struct {
	Step   int
	Energy float64
	HasE   bool
	NSCF   int
	Mag    float64
	HasMag bool
}

// sparkBlocks are the eight Unicode block-element levels used to render a
// one-line sparkline of the energy series.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SummarizeOutcar scans an engine log for per-iteration energy summary
// lines. Per-atom force/fmax extraction is not attempted: it needs the
// companion POSCAR/CONTCAR's freezing-coords mask, which this repository
// does not model.
func SummarizeOutcar(r io.Reader) ([]OptIter, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)

	var iters []OptIter
	var cur OptIter
	step := 0
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "free  energy   TOTEN  ="):
			fields := strings.Fields(line)
			if len(fields) != 6 {
				continue
			}
			e, err := strconv.ParseFloat(fields[4], 64)
			if err == nil {
				cur.Energy = e
				cur.HasE = true
			}
		case strings.Contains(line, "-- Iteration"):
			cur.NSCF++
		case strings.HasPrefix(line, " number of electron"):
			fields := strings.Fields(line)
			if len(fields) > 5 {
				if m, err := strconv.ParseFloat(fields[5], 64); err == nil {
					cur.Mag = m
					cur.HasMag = true
				}
			}
		case strings.Contains(line, "FREE ENERGIE OF THE ION-ELECTRON SYSTEM"):
			if cur.HasE {
				cur.Step = step
				iters = append(iters, cur)
				step++
			}
			cur = OptIter{}
		}
	}
	if cur.HasE {
		cur.Step = step
		iters = append(iters, cur)
	}
	if err := scanner.Err(); err != nil {
		return iters, fmt.Errorf("chem: scan engine log: %w", err)
	}
	return iters, nil
}

// SummarizeOutcarFile opens path and calls SummarizeOutcar on it.
func SummarizeOutcarFile(path string) ([]OptIter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chem: open %s: %w", path, err)
	}
	defer f.Close()
	return SummarizeOutcar(f)
}

// Sparkline renders energies as a one-line Unicode sparkline, mapping the
// min/max of the series onto the eight block-element levels.
func Sparkline(iters []OptIter) string {
	if len(iters) == 0 {
		return ""
	}
	min, max := iters[0].Energy, iters[0].Energy
	for _, it := range iters {
		if it.Energy < min {
			min = it.Energy
		}
		if it.Energy > max {
			max = it.Energy
		}
	}
	span := max - min
	var sb strings.Builder
	for _, it := range iters {
		if span == 0 {
			sb.WriteRune(sparkBlocks[0])
			continue
		}
		level := int((it.Energy - min) / span * float64(len(sparkBlocks)-1))
		sb.WriteRune(sparkBlocks[level])
	}
	return sb.String()
}

// FormatSummary renders a per-iteration text table plus a trailing
// sparkline.
func FormatSummary(iters []OptIter) string {
	var sb strings.Builder
	for _, it := range iters {
		energy := "--"
		if it.HasE {
			energy = fmt.Sprintf("%.6f", it.Energy)
		}
		mag := "--"
		if it.HasMag {
			mag = fmt.Sprintf("%.2f", it.Mag)
		}
		fmt.Fprintf(&sb, "%-6d Energy: %-14s SCF: %-4d Mag: %-6s\n", it.Step, energy, it.NSCF, mag)
	}
	sb.WriteString(Sparkline(iters))
	sb.WriteByte('\n')
	return sb.String()
}
