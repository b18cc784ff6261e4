//go:build !linux

package source

import (
	"fmt"

	"github.com/ja7ad/pidwatch/pkg/sampler"
)

const defaultKind = Gopsutil

// gopsutil reports seconds; 100Hz is the tick rate assumed off Linux.
func clockTicks() int { return 100 }

func newProc() (sampler.Source, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, Proc)
}

func newProcfs() (sampler.Source, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, Procfs)
}
