// Package sampler refreshes the CPU time of every tracked process and drops
// the ones that have exited.
//
// A Sampler performs one pass over a registry; a Scheduler runs passes on a
// fixed interval until it is stopped.
package sampler

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ja7ad/pidwatch/pkg/registry"
	"github.com/ja7ad/pidwatch/pkg/types"
)

// Source yields the accumulated CPU time of a process. It returns an error
// wrapping ErrNotFound when the process does not exist.
type Source interface {
	LookupCPUTime(pid int) (types.CPUTime, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(pid int) (types.CPUTime, error)

// LookupCPUTime calls f(pid).
func (f SourceFunc) LookupCPUTime(pid int) (types.CPUTime, error) { return f(pid) }

// PassResult summarizes one sampling pass.
type PassResult struct {
	Visited int
	Pruned  int
	Took    time.Duration
}

// Sampler runs sampling passes over a registry.
type Sampler struct {
	reg    *registry.Registry
	src    Source
	logger *slog.Logger

	// entries this sampler currently counts in the tracked gauge
	reported atomic.Int64
}

// New returns a Sampler. A nil logger falls back to slog.Default().
func New(reg *registry.Registry, src Source, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		reg:    reg,
		src:    src,
		logger: logger.With("component", "sampler"),
	}
}

// Pass visits every tracked process once, in registration order. A
// successful lookup replaces the entry's CPU time; any failed lookup removes
// the entry. The registry lock is held for the whole pass.
func (s *Sampler) Pass() PassResult {
	start := time.Now()

	visited, pruned := s.reg.ForEachPrune(func(e registry.Entry) (types.CPUTime, bool) {
		s.logger.Debug("checking cpu time", "pid", e.PID)

		cpu, err := s.src.LookupCPUTime(e.PID)
		switch {
		case err == nil:
			return cpu, true
		case errors.Is(err, ErrNotFound):
			s.logger.Debug("process gone, pruning", "pid", e.PID)
			metricPruned.WithLabelValues("not_found").Inc()
		default:
			s.logger.Warn("cpu time lookup failed, pruning", "pid", e.PID, "err", err)
			metricPruned.WithLabelValues("error").Inc()
		}
		return 0, false
	})

	res := PassResult{Visited: visited, Pruned: pruned, Took: time.Since(start)}

	metricPasses.Inc()
	metricPassDuration.Observe(res.Took.Seconds())
	left := int64(visited - pruned)
	metricTracked.Add(float64(left - s.reported.Swap(left)))

	if visited > 0 {
		s.logger.Debug("pass complete", "visited", visited, "pruned", pruned, "took", res.Took)
	}
	return res
}

// Release withdraws this sampler's entries from the tracked gauge. Call it
// once the registry is torn down and no pass is running.
func (s *Sampler) Release() {
	metricTracked.Sub(float64(s.reported.Swap(0)))
}
