package engine

import "errors"

var (
	// ErrAlreadyRun is returned by Run on an engine that has left NotStarted.
	ErrAlreadyRun = errors.New("engine: simulation already run")

	// ErrNotRun is returned when results are requested before metrics exist.
	ErrNotRun = errors.New("engine: simulation has not completed")

	// ErrNoRuns is returned by an ensemble asked for fewer than one run.
	ErrNoRuns = errors.New("engine: ensemble needs at least one run")
)
