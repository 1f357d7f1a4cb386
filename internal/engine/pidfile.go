package engine

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Pidfile is an advisory-locked file holding the supervisor's PID. Only
// one process can hold the lock at a time; a second supervisor refusing to
// start while the lock is held is the mutual-exclusion guarantee.
type Pidfile struct {
	f *os.File
}

// ErrLocked is returned by OpenPidfile when another process already holds
// the lock.
var ErrLocked = fmt.Errorf("engine: pidfile already locked by another process")

// OpenPidfile creates (or opens) path, takes an exclusive non-blocking
// flock on it, and writes the current PID. The lock is released and the
// file removed when Close is called.
func OpenPidfile(path string) (*Pidfile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("engine: open pidfile %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("engine: flock pidfile %s: %w", path, err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d\n", os.Getpid())), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("engine: write pidfile %s: %w", path, err)
	}

	return &Pidfile{f: f}, nil
}

// Close releases the lock, closes, and removes the pidfile.
func (p *Pidfile) Close() error {
	path := p.f.Name()
	unix.Flock(int(p.f.Fd()), unix.LOCK_UN)
	if err := p.f.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
