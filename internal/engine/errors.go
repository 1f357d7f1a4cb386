package engine

import "errors"

var (
	// ErrPoisoned is returned by Interact once a Session has failed
	// mid-stream; the only further permitted operation is Terminate.
	ErrPoisoned = errors.New("engine: session is poisoned")

	// ErrNotRunning is returned by Interact when the Session has not been
	// spawned yet, or has already terminated.
	ErrNotRunning = errors.New("engine: session is not running")

	// ErrEmptyOutput is returned when Interact's read side returns no
	// bytes at all.
	ErrEmptyOutput = errors.New("engine: empty output from engine")

	// ErrAlreadySpawned guards against spawning a Session twice.
	ErrAlreadySpawned = errors.New("engine: session already spawned")
)
