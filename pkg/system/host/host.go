// Package host gathers the one-line host description logged at startup.
package host

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/ja7ad/pidwatch/pkg/types"
)

// Summary describes the machine the agent samples on.
type Summary struct {
	Hostname string
	Kernel   string
	Platform string
	CPUs     int
	MemTotal uint64
	Cgroup   string
	// ClockTicks is the CPU time unit of the status table.
	ClockTicks int
}

// Collect returns what it could gather. Missing facts are left zero and the
// first error is returned alongside.
func Collect(ctx context.Context, hz int) (Summary, error) {
	s := Summary{CPUs: runtime.NumCPU(), ClockTicks: hz}
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = hi.Hostname
		s.Kernel = hi.KernelVersion
		s.Platform = fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion)
	} else {
		keep(fmt.Errorf("host: info: %w", err))
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		s.CPUs = n
	} else {
		keep(err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemTotal = vm.Total
	} else {
		keep(fmt.Errorf("host: memory: %w", err))
	}

	cg, err := cgroupMode()
	s.Cgroup = cg
	keep(err)

	return s, first
}

// LogAttrs returns the summary as slog key/value pairs.
func (s Summary) LogAttrs() []any {
	return []any{
		"host", s.Hostname,
		"kernel", s.Kernel,
		"platform", s.Platform,
		"cpus", s.CPUs,
		"mem", humanBytes(s.MemTotal),
		"cgroup", s.Cgroup,
		"clock_ticks", s.ClockTicks,
		"tick", types.CPUTime(1).Duration(s.ClockTicks).String(),
	}
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
