package registry

import "errors"

// ErrFull is returned by Insert when a bounded registry has no room left.
// It is the resource error of a single request; the registry is unchanged.
var ErrFull = errors.New("registry: full")
