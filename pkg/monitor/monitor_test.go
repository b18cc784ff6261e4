package monitor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ja7ad/pidwatch/pkg/handler"
	"github.com/ja7ad/pidwatch/pkg/registry"
	"github.com/ja7ad/pidwatch/pkg/sampler"
	"github.com/ja7ad/pidwatch/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type procTable struct {
	mu  sync.Mutex
	cpu map[int]types.CPUTime
}

func (p *procTable) LookupCPUTime(pid int) (types.CPUTime, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.cpu[pid]
	if !ok {
		return 0, sampler.ErrNotFound
	}
	return v, nil
}

func (p *procTable) set(pid int, v types.CPUTime) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cpu[pid] = v
}

func (p *procTable) exit(pid int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cpu, pid)
}

func newMonitor(t *testing.T) (*Monitor, *procTable, *clock.Mock) {
	t.Helper()
	tbl := &procTable{cpu: map[int]types.CPUTime{}}
	mock := clock.NewMock()
	m := New(tbl,
		WithInterval(5*time.Second),
		WithClock(mock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return m, tbl, mock
}

func TestMonitor_Lifecycle(t *testing.T) {
	m, tbl, mock := newMonitor(t)
	assert.False(t, m.Running())

	_, err := m.Write([]byte("1"))
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Empty(t, m.Read(0, -1))

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.Running())
	require.ErrorIs(t, m.Start(context.Background()), ErrRunning)

	tbl.set(100, 12)
	tbl.set(200, 34)
	_, err = m.Write([]byte("100\n"))
	require.NoError(t, err)
	_, err = m.Write([]byte("200\n"))
	require.NoError(t, err)

	// before the first tick values are still zero
	assert.Equal(t, "PID100: 0\nPID200: 0\n", string(m.Read(0, -1)))

	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return m.Passes() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, "PID100: 12\nPID200: 34\n", string(m.Read(0, -1)))

	tbl.exit(100)
	tbl.set(200, 40)
	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return m.Passes() == 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, "PID200: 40\n", string(m.Read(0, -1)))

	assert.Equal(t, 1, m.Stop())
	assert.False(t, m.Running())
	assert.Zero(t, m.Len())
	assert.Nil(t, m.Snapshot())
	assert.Zero(t, m.Stop(), "second stop is a no-op")
}

func TestMonitor_RestartStartsEmpty(t *testing.T) {
	m, _, _ := newMonitor(t)
	require.NoError(t, m.Start(context.Background()))
	_, err := m.Write([]byte("9"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	m.Stop()

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	assert.Zero(t, m.Len())
	assert.Zero(t, m.Passes())
}

func TestMonitor_StartFailsOnBadInterval(t *testing.T) {
	m := New(&procTable{}, WithInterval(-time.Second))
	err := m.Start(context.Background())
	require.ErrorIs(t, err, sampler.ErrBadInterval)
	assert.False(t, m.Running())
}

func TestMonitor_MaxEntries(t *testing.T) {
	tbl := &procTable{cpu: map[int]types.CPUTime{}}
	m := New(tbl, WithMaxEntries(1), WithClock(clock.NewMock()))
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.Write([]byte("1"))
	require.NoError(t, err)
	_, err = m.Write([]byte("2"))
	assert.ErrorIs(t, err, registry.ErrFull)
}

func TestMonitor_Session(t *testing.T) {
	m, _, _ := newMonitor(t)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	_, err := m.Write([]byte("42"))
	require.NoError(t, err)

	var s *handler.Session = m.NewSession()
	assert.Equal(t, "PID42: 0\n", string(s.Next(-1)))
	assert.Empty(t, s.Next(-1))
}

func TestMonitor_ConcurrentUse(t *testing.T) {
	m, tbl, mock := newMonitor(t)
	require.NoError(t, m.Start(context.Background()))

	const writers = 4
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				pid := w*1000 + i
				if i%2 == 0 {
					tbl.set(pid, types.CPUTime(i))
				}
				_, _ = m.Write([]byte{byte('0' + w)})
				_ = m.Read(0, 64)
			}
		}(w)
	}
	for i := 0; i < 5; i++ {
		mock.Add(5 * time.Second)
	}
	wg.Wait()

	m.Stop()
	assert.False(t, m.Running())
}

func trackedGauge(t *testing.T) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "pidwatch_tracked_processes" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func TestMonitor_StopReleasesTrackedGauge(t *testing.T) {
	base := trackedGauge(t)

	m, tbl, mock := newMonitor(t)
	require.NoError(t, m.Start(context.Background()))
	tbl.set(1, 1)
	tbl.set(2, 2)
	for _, pid := range []string{"1", "2"} {
		_, err := m.Write([]byte(pid))
		require.NoError(t, err)
	}

	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return m.Passes() == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, base+2, trackedGauge(t))

	m.Stop()
	assert.Equal(t, base, trackedGauge(t))
}
