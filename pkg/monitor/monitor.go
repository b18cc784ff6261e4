// Package monitor wires a registry, a sampler and a scheduler into one
// object with an explicit Start/Stop lifecycle.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ja7ad/pidwatch/pkg/handler"
	"github.com/ja7ad/pidwatch/pkg/registry"
	"github.com/ja7ad/pidwatch/pkg/sampler"
)

var (
	// ErrNotRunning is returned by writes while the monitor is stopped.
	ErrNotRunning = errors.New("monitor: not running")

	// ErrRunning is returned by Start on a running monitor.
	ErrRunning = errors.New("monitor: already running")
)

// Monitor owns the registry for the duration of one Start/Stop cycle.
type Monitor struct {
	src        sampler.Source
	interval   time.Duration
	maxEntries int
	clock      clock.Clock
	logger     *slog.Logger

	mu  sync.RWMutex
	reg *registry.Registry
	h   *handler.Handler
	smp *sampler.Sampler
	sch *sampler.Scheduler
}

var _ handler.Service = (*Monitor)(nil)

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling interval (default sampler.DefaultInterval).
func WithInterval(d time.Duration) Option { return func(m *Monitor) { m.interval = d } }

// WithMaxEntries bounds the registry.
func WithMaxEntries(n int) Option { return func(m *Monitor) { m.maxEntries = n } }

// WithClock replaces the scheduler's clock.
func WithClock(c clock.Clock) Option { return func(m *Monitor) { m.clock = c } }

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option { return func(m *Monitor) { m.logger = l } }

// New returns a stopped Monitor sampling through src.
func New(src sampler.Source, opts ...Option) *Monitor {
	m := &Monitor{
		src:      src,
		interval: sampler.DefaultInterval,
		clock:    clock.New(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start creates an empty registry and arms the scheduler. A scheduler that
// cannot be armed fails Start and leaves the monitor stopped.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reg != nil {
		return ErrRunning
	}

	reg := registry.New(registry.WithMaxEntries(m.maxEntries))
	smp := sampler.New(reg, m.src, m.logger)
	sch := sampler.NewScheduler(
		smp,
		m.interval,
		sampler.WithClock(m.clock),
		sampler.WithLogger(m.logger),
	)
	if err := sch.Start(ctx); err != nil {
		return fmt.Errorf("monitor: arm scheduler: %w", err)
	}

	m.reg = reg
	m.h = handler.New(reg, m.logger)
	m.smp = smp
	m.sch = sch
	m.logger.Info("monitor started", "interval", sch.Interval(), "max_entries", m.maxEntries)
	return nil
}

// Stop cancels the scheduler, waiting for an in-flight pass, then releases
// every entry. It returns how many entries were released.
func (m *Monitor) Stop() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reg == nil {
		return 0
	}

	m.sch.Stop()
	n := m.reg.Drain()
	m.smp.Release()
	m.reg, m.h, m.smp, m.sch = nil, nil, nil, nil

	m.logger.Info("monitor stopped", "released", n)
	return n
}

// Running reports whether the monitor has been started and not stopped.
func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reg != nil
}

// Write registers a PID through the request handler.
func (m *Monitor) Write(p []byte) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.h == nil {
		return 0, ErrNotRunning
	}
	return m.h.Write(p)
}

// Read renders the snapshot; a stopped monitor reads as empty.
func (m *Monitor) Read(off int64, max int) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.h == nil {
		return nil
	}
	return m.h.Read(off, max)
}

// NewSession returns a read cursor bound to the monitor.
func (m *Monitor) NewSession() *handler.Session { return handler.NewSession(m) }

// Len returns the number of tracked entries, 0 when stopped.
func (m *Monitor) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return 0
	}
	return m.reg.Len()
}

// Passes returns the completed sampling passes of the current run.
func (m *Monitor) Passes() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sch == nil {
		return 0
	}
	return m.sch.Passes()
}

// Snapshot returns the tracked entries, nil when stopped.
func (m *Monitor) Snapshot() []registry.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.reg == nil {
		return nil
	}
	return m.reg.Snapshot()
}
