package bridge

import "errors"

// Domain errors for the bridge package.
var (
	// ErrBootstrapFailed is returned by Run when the initial device
	// enumeration cannot be fetched or decoded. The process treats it as
	// fatal and exits with a distinct status.
	ErrBootstrapFailed = errors.New("bridge: device enumeration failed")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("bridge: already running")

	// ErrStopped is returned when work is submitted after the event loop exited.
	ErrStopped = errors.New("bridge: stopped")

	// ErrMissingCursor is returned when a refreshStates reply has no "last" field.
	ErrMissingCursor = errors.New("bridge: poll response missing cursor")
)
