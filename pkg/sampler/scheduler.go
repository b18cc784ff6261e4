package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultInterval is the time between two sampling passes.
const DefaultInterval = 5 * time.Second

// Scheduler triggers one Sampler pass per interval. The timer re-arms after
// every pass, including passes over an empty registry.
type Scheduler struct {
	sampler  *Sampler
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	passes atomic.Uint64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the wall clock, e.g. with clock.NewMock() in tests.
func WithClock(c clock.Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler returns a stopped scheduler. A zero interval means
// DefaultInterval.
func NewScheduler(s *Sampler, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	if interval == 0 {
		interval = DefaultInterval
	}
	sch := &Scheduler{
		sampler:  s,
		interval: interval,
		clock:    clock.New(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(sch)
	}
	sch.logger = sch.logger.With("component", "scheduler")
	return sch
}

// Interval returns the time between passes.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Passes returns the number of passes completed since construction.
func (s *Scheduler) Passes() uint64 { return s.passes.Load() }

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start arms the timer and returns immediately. The first pass runs one
// interval after Start. Cancelling ctx stops future passes, but callers
// should still call Stop to wait for the loop to exit.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%w: %s", ErrBadInterval, s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	// armed before the goroutine starts so a tick can never be missed
	timer := s.clock.Timer(s.interval)
	go s.loop(ctx, timer, s.done)

	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, timer *clock.Timer, done chan struct{}) {
	defer close(done)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			// a stop that raced with the tick wins
			if ctx.Err() != nil {
				return
			}
			s.sampler.Pass()
			timer.Reset(s.interval)
			s.passes.Add(1)
		}
	}
}

// Stop cancels the timer and blocks until an in-flight pass has finished.
// No pass starts after Stop returns. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped", "passes", s.passes.Load())
}
