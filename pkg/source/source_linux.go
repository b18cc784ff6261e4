//go:build linux

package source

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ja7ad/pidwatch/pkg/sampler"
	"github.com/ja7ad/pidwatch/pkg/system/proc"
	"github.com/ja7ad/pidwatch/pkg/types"
	"github.com/prometheus/procfs"
)

const defaultKind = Proc

func clockTicks() int { return proc.ClockTicks() }

type procSource struct{}

func newProc() (sampler.Source, error) { return procSource{}, nil }

// LookupCPUTime returns utime from /proc/<pid>/stat.
func (procSource) LookupCPUTime(pid int) (types.CPUTime, error) {
	st, err := proc.ReadProcStat(pid)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("pid %d: %w", pid, sampler.ErrNotFound)
		}
		return 0, classify(pid, err, proc.Exists)
	}
	return types.CPUTime(st.UTime), nil
}

type procfsSource struct {
	fs procfs.FS
}

func newProcfs() (sampler.Source, error) {
	pfs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("source: procfs: %w", err)
	}
	return procfsSource{fs: pfs}, nil
}

// LookupCPUTime returns utime as parsed by prometheus/procfs.
func (s procfsSource) LookupCPUTime(pid int) (types.CPUTime, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("pid %d: %w", pid, sampler.ErrNotFound)
	}
	p, err := s.fs.Proc(pid)
	if err != nil {
		return 0, classify(pid, err, proc.Exists)
	}
	st, err := p.Stat()
	if err != nil {
		return 0, classify(pid, err, proc.Exists)
	}
	return types.CPUTime(st.UTime), nil
}
