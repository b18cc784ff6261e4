package sampler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ja7ad/pidwatch/pkg/registry"
	"github.com/ja7ad/pidwatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func newTestScheduler(t *testing.T, src Source, interval time.Duration) (*Scheduler, *registry.Registry, *clock.Mock) {
	t.Helper()
	reg := registry.New()
	mock := clock.NewMock()
	sch := NewScheduler(New(reg, src, discard()), interval, WithClock(mock), WithLogger(discard()))
	return sch, reg, mock
}

func TestScheduler_OnePassPerTick(t *testing.T) {
	src := newFakeSource(map[int]types.CPUTime{1: 5})
	sch, reg, mock := newTestScheduler(t, src, time.Second)
	require.NoError(t, reg.Insert(1))

	require.NoError(t, sch.Start(context.Background()))
	defer sch.Stop()

	// not yet due
	mock.Add(500 * time.Millisecond)
	assert.Zero(t, sch.Passes())

	mock.Add(500 * time.Millisecond)
	require.Eventually(t, func() bool { return sch.Passes() == 1 }, waitFor, tick)
	assert.Equal(t, types.CPUTime(5), reg.Snapshot()[0].CPUTime)

	for want := uint64(2); want <= 4; want++ {
		mock.Add(time.Second)
		require.Eventually(t, func() bool { return sch.Passes() == want }, waitFor, tick)
	}
}

func TestScheduler_KeepsTickingWhenEmpty(t *testing.T) {
	src := newFakeSource(map[int]types.CPUTime{9: 1})
	sch, reg, mock := newTestScheduler(t, src, 5*time.Second)

	require.NoError(t, sch.Start(context.Background()))
	defer sch.Stop()

	for want := uint64(1); want <= 3; want++ {
		mock.Add(5 * time.Second)
		require.Eventually(t, func() bool { return sch.Passes() == want }, waitFor, tick)
	}
	assert.Empty(t, src.lookups)

	// registered later, picked up on the next tick
	require.NoError(t, reg.Insert(9))
	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return sch.Passes() == 4 }, waitFor, tick)
	assert.Equal(t, []registry.Entry{{PID: 9, CPUTime: 1}}, reg.Snapshot())
}

func TestScheduler_PrunesWithinOneInterval(t *testing.T) {
	src := newFakeSource(map[int]types.CPUTime{1: 1, 2: 2})
	sch, reg, mock := newTestScheduler(t, src, time.Second)
	require.NoError(t, reg.Insert(1))
	require.NoError(t, reg.Insert(2))

	require.NoError(t, sch.Start(context.Background()))
	defer sch.Stop()

	src.kill(1)
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return sch.Passes() == 1 }, waitFor, tick)
	assert.Equal(t, []registry.Entry{{PID: 2, CPUTime: 2}}, reg.Snapshot())
}

func TestScheduler_StartErrors(t *testing.T) {
	t.Run("bad_interval", func(t *testing.T) {
		sch, _, _ := newTestScheduler(t, newFakeSource(nil), -time.Second)
		err := sch.Start(context.Background())
		require.ErrorIs(t, err, ErrBadInterval)
		assert.False(t, sch.Running())
		sch.Stop() // no-op
	})

	t.Run("default_interval", func(t *testing.T) {
		sch, _, _ := newTestScheduler(t, newFakeSource(nil), 0)
		assert.Equal(t, DefaultInterval, sch.Interval())
	})

	t.Run("double_start", func(t *testing.T) {
		sch, _, _ := newTestScheduler(t, newFakeSource(nil), time.Second)
		require.NoError(t, sch.Start(context.Background()))
		defer sch.Stop()
		require.ErrorIs(t, sch.Start(context.Background()), ErrAlreadyStarted)
	})
}

func TestScheduler_StopIsIdempotentAndFinal(t *testing.T) {
	src := newFakeSource(map[int]types.CPUTime{1: 1})
	sch, reg, mock := newTestScheduler(t, src, time.Second)
	require.NoError(t, reg.Insert(1))

	require.NoError(t, sch.Start(context.Background()))
	assert.True(t, sch.Running())
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return sch.Passes() == 1 }, waitFor, tick)

	sch.Stop()
	sch.Stop()
	assert.False(t, sch.Running())

	// ticks after Stop never reach the sampler
	mock.Add(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(1), sch.Passes())

	// and it can be started again
	require.NoError(t, sch.Start(context.Background()))
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return sch.Passes() == 2 }, waitFor, tick)
	sch.Stop()
}

func TestScheduler_StopWaitsForInFlightPass(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	src := SourceFunc(func(pid int) (types.CPUTime, error) {
		close(entered)
		<-release
		finished.Store(true)
		return 1, nil
	})
	sch, reg, mock := newTestScheduler(t, src, time.Second)
	require.NoError(t, reg.Insert(1))
	require.NoError(t, sch.Start(context.Background()))

	mock.Add(time.Second)
	<-entered

	stopped := make(chan struct{})
	go func() {
		sch.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a pass was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.True(t, finished.Load())
	assert.Equal(t, uint64(1), sch.Passes())
}

func TestScheduler_ParentContextCancel(t *testing.T) {
	sch, _, mock := newTestScheduler(t, newFakeSource(nil), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sch.Start(ctx))

	cancel()
	sch.Stop()

	mock.Add(5 * time.Second)
	assert.Zero(t, sch.Passes())
}

func TestScheduler_WallClock(t *testing.T) {
	src := newFakeSource(map[int]types.CPUTime{1: 3})
	reg := registry.New()
	require.NoError(t, reg.Insert(1))
	sch := NewScheduler(New(reg, src, discard()), 5*time.Millisecond, WithLogger(discard()))

	require.NoError(t, sch.Start(context.Background()))
	require.Eventually(t, func() bool { return sch.Passes() >= 3 }, waitFor, tick)
	sch.Stop()
	assert.Equal(t, types.CPUTime(3), reg.Snapshot()[0].CPUTime)
}
