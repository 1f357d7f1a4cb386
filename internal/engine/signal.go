package engine

import (
	"syscall"

	"github.com/ybyygu/vasp-tools/internal/logger"
)

// signalGroup delivers sig to the whole process group identified by pgid
// (syscall.Kill with a negated pid targets the group). Delivery to a
// nonexistent group is non-fatal: the engine may already be gone.
func signalGroup(pgid int, sig syscall.Signal) error {
	if pgid <= 0 {
		return nil
	}
	err := syscall.Kill(-pgid, sig)
	if err != nil && err != syscall.ESRCH {
		logger.Warn("engine: signal delivery failed", "pgid", pgid, "signal", sig, "error", err)
		return err
	}
	return nil
}
