package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ybyygu/vasp-tools/internal/logger"
)

// Scratch is a per-run scratch directory created under a configurable
// root: the run script is copied in and made executable so the engine's
// working directory never aliases the adapter's template directory.
type Scratch struct {
	dir       string
	runScript string
	kept      bool
}

// NewScratch creates a fresh scratch directory under root (created if
// missing) and copies runFile into it as "run", mode 0755. If root is
// empty, os.MkdirTemp's default temp root is used.
func NewScratch(root, runFile string) (*Scratch, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("scratch: create root %s: %w", root, err)
		}
	}
	dir, err := os.MkdirTemp(root, "bbm-")
	if err != nil {
		return nil, fmt.Errorf("scratch: create temp dir: %w", err)
	}

	dest := filepath.Join(dir, "run")
	if err := copyExecutable(runFile, dest); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("scratch: stage run script: %w", err)
	}

	logger.Info("engine: scratch directory prepared", "dir", dir)
	return &Scratch{dir: dir, runScript: dest}, nil
}

// Dir returns the scratch directory's path.
func (s *Scratch) Dir() string { return s.dir }

// RunScript returns the path to the staged, executable run script.
func (s *Scratch) RunScript() string { return s.runScript }

// Keep marks the scratch directory for preservation: Close becomes a
// no-op and the path is logged so a failed run can be inspected.
func (s *Scratch) Keep() {
	s.kept = true
	logger.Warn("engine: preserving scratch directory for inspection", "dir", s.dir)
}

// Close removes the scratch directory unless Keep was called.
func (s *Scratch) Close() error {
	if s.kept {
		return nil
	}
	return os.RemoveAll(s.dir)
}

func copyExecutable(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	return os.WriteFile(dst, data, 0o755)
}
