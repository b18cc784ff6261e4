package sampler

import "errors"

var (
	// ErrNotFound is returned by a Source when the process does not exist.
	ErrNotFound = errors.New("sampler: no such process")

	// ErrBadInterval indicates a non-positive scheduling interval.
	ErrBadInterval = errors.New("sampler: interval must be > 0")

	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("sampler: scheduler already started")
)
