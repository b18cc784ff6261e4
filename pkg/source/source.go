// Package source provides the CPU-time lookups the sampler consumes.
//
// Every implementation reports user-mode CPU time in clock ticks and maps a
// missing process to sampler.ErrNotFound.
package source

import (
	"errors"
	"fmt"

	"github.com/ja7ad/pidwatch/pkg/sampler"
)

// Kind names a Source implementation.
type Kind string

const (
	// Auto picks the preferred implementation for the platform.
	Auto Kind = "auto"
	// Proc parses /proc/<pid>/stat directly (Linux).
	Proc Kind = "proc"
	// Procfs uses github.com/prometheus/procfs (Linux).
	Procfs Kind = "procfs"
	// Gopsutil uses github.com/shirou/gopsutil (any platform it supports).
	Gopsutil Kind = "gopsutil"
)

var (
	// ErrUnknownKind is returned by New for an unrecognized kind.
	ErrUnknownKind = errors.New("source: unknown kind")

	// ErrUnsupported is returned by New when a kind cannot run on this platform.
	ErrUnsupported = errors.New("source: unsupported on this platform")
)

// Kinds lists the accepted kinds.
func Kinds() []Kind { return []Kind{Auto, Proc, Procfs, Gopsutil} }

// New returns the Source for kind. An empty kind is Auto.
func New(kind Kind) (sampler.Source, error) {
	switch kind {
	case Auto, "":
		return New(defaultKind)
	case Proc:
		return newProc()
	case Procfs:
		return newProcfs()
	case Gopsutil:
		return newGopsutil(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// classify turns a lookup error into sampler.ErrNotFound when the process is
// gone, so a lookup racing with exit is still reported as an exit.
func classify(pid int, err error, alive func(int) bool) error {
	if errors.Is(err, sampler.ErrNotFound) {
		return err
	}
	if !alive(pid) {
		return fmt.Errorf("pid %d: %w", pid, sampler.ErrNotFound)
	}
	return fmt.Errorf("pid %d: %w", pid, err)
}
