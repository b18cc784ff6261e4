package source

import (
	"fmt"
	"math"

	"github.com/ja7ad/pidwatch/pkg/sampler"
	"github.com/ja7ad/pidwatch/pkg/types"
	"github.com/shirou/gopsutil/v4/process"
)

type gopsutilSource struct {
	hz int
}

func newGopsutil() sampler.Source {
	return gopsutilSource{hz: clockTicks()}
}

func gopsutilAlive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// LookupCPUTime reads the user CPU time through gopsutil, which reports
// seconds; the value is converted back to ticks.
func (g gopsutilSource) LookupCPUTime(pid int) (types.CPUTime, error) {
	if pid <= 0 || pid > math.MaxInt32 {
		return 0, fmt.Errorf("pid %d: %w", pid, sampler.ErrNotFound)
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, classify(pid, err, gopsutilAlive)
	}
	t, err := p.Times()
	if err != nil {
		return 0, classify(pid, err, gopsutilAlive)
	}
	return types.FromSeconds(t.User, g.hz), nil
}
