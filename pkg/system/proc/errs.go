package proc

import "errors"

var (
	// ErrNoStat is returned for a stat line without a "(comm) " section.
	ErrNoStat = errors.New("proc: malformed or empty stat")

	// ErrNoChildren means no thread of the process has a child.
	ErrNoChildren = errors.New("proc: no children")

	// ErrShortStat is returned when the line ends before stime.
	ErrShortStat = errors.New("proc: short stat")
)
