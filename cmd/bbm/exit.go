package main

import "errors"

// errPoisoned and errInterrupted let RunE report the server subcommand's
// distinct non-zero exit codes (1 for a poisoned engine, 130 for an
// interrupt) without every call site duplicating os.Exit logic.
var (
	errPoisoned    = errors.New("bbm: engine session poisoned")
	errInterrupted = errors.New("bbm: interrupted")
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		return 130
	case errors.Is(err, errPoisoned):
		return 1
	default:
		return 1
	}
}
