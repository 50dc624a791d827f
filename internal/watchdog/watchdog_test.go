package watchdog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/progress"
	"github.com/aleister1102/sitewatch/internal/task"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name    string
	running atomic.Bool
	failed  bool
}

func (h *fakeHandle) Name() string    { return h.name }
func (h *fakeHandle) IsRunning() bool { return h.running.Load() }
func (h *fakeHandle) Failed() bool    { return h.failed }
func (h *fakeHandle) Cancelled() bool { return false }

func newRunning(name string) *fakeHandle {
	h := &fakeHandle{name: name}
	h.running.Store(true)
	return h
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingPinger struct {
	watchdog atomic.Int32
}

func (p *countingPinger) Ready()    {}
func (p *countingPinger) Watchdog() { p.watchdog.Add(1) }
func (p *countingPinger) Stopping() {}

type countingStalls struct {
	stalls atomic.Int32
}

func (r *countingStalls) WatchdogStalled() { r.stalls.Add(1) }

func newTestWatchdog(out *syncBuffer, pinger Pinger, stalls StallRecorder, handles ...Supervised) *LivenessWatchdog {
	return NewLivenessWatchdog(Options{
		Interval: 5 * time.Millisecond,
		Handles:  handles,
		Console:  progress.NewConsole(out, nil, progress.PlainStyles()),
		Pinger:   pinger,
		Recorder: stalls,
		Snapshot: func() ResourceSnapshot { return ResourceSnapshot{Goroutines: 1} },
		Logger:   zerolog.Nop(),
	})
}

func TestCheck_HealthyDrawsFrames(t *testing.T) {
	out := &syncBuffer{}
	pinger := &countingPinger{}
	w := newTestWatchdog(out, pinger, nil, newRunning("monitor"))

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Check(context.Background()))
	}

	text := out.String()
	assert.Contains(t, text, "Monitoring /")
	assert.Contains(t, text, "Monitoring -")
	assert.Contains(t, text, `Monitoring \`)
	assert.Contains(t, text, "Monitoring |")
	assert.Equal(t, 2, strings.Count(text, "Monitoring /"), "frames cycle with period four")
	assert.Equal(t, int32(5), pinger.watchdog.Load())
}

func TestCheck_StoppedHandleStalls(t *testing.T) {
	out := &syncBuffer{}
	stalls := &countingStalls{}
	h := &fakeHandle{name: "monitor", failed: true}
	w := newTestWatchdog(out, nil, stalls, h)

	err := w.Check(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStalled))
	assert.Contains(t, err.Error(), "monitor is failed")
	assert.Contains(t, out.String(), stoppedAdvisory)
	assert.Equal(t, int32(1), stalls.stalls.Load())
}

func TestCheck_NoHandles(t *testing.T) {
	out := &syncBuffer{}
	w := newTestWatchdog(out, nil, nil)

	err := w.Check(context.Background())

	assert.ErrorIs(t, err, common.ErrStalled)
	assert.Contains(t, out.String(), missingAdvisory)
}

func TestCheck_NilHandle(t *testing.T) {
	out := &syncBuffer{}
	w := newTestWatchdog(out, nil, nil, newRunning("monitor"), nil)

	assert.ErrorIs(t, w.Check(context.Background()), common.ErrStalled)
	assert.Contains(t, out.String(), missingAdvisory)
}

func TestCheck_StopAfterShutdownIsNotStall(t *testing.T) {
	out := &syncBuffer{}
	stalls := &countingStalls{}
	w := newTestWatchdog(out, nil, stalls, &fakeHandle{name: "monitor"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, w.Check(ctx))
	assert.Empty(t, out.String())
	assert.Zero(t, stalls.stalls.Load())
}

func TestCheck_BusyConsoleSkipsFrameButPings(t *testing.T) {
	out := &syncBuffer{}
	pinger := &countingPinger{}
	w := newTestWatchdog(out, pinger, nil, newRunning("monitor"))

	_ = w.console.Exclusive(func(*progress.Session) error {
		require.NoError(t, w.Check(context.Background()))
		return nil
	})

	assert.Empty(t, out.String())
	assert.Equal(t, int32(1), pinger.watchdog.Load())
}

func TestRun_StallsOnNextTick(t *testing.T) {
	out := &syncBuffer{}
	h := newRunning("monitor")
	w := newTestWatchdog(out, nil, nil, h)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	h.running.Store(false)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, common.ErrStalled)
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not report the stopped task")
	}
	assert.Contains(t, out.String(), "Monitoring")
	assert.Contains(t, out.String(), stoppedAdvisory)
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := newTestWatchdog(&syncBuffer{}, nil, nil, newRunning("monitor"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not stop on cancellation")
	}
}

func TestRun_WithTaskHandle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	h := task.Go(ctx, "monitor", zerolog.Nop(), func(context.Context) error {
		<-release
		return errors.New("poll loop ended")
	})

	w := newTestWatchdog(&syncBuffer{}, nil, nil, h)
	require.NoError(t, w.Check(ctx))

	close(release)
	<-h.Done()

	err := w.Check(ctx)
	assert.ErrorIs(t, err, common.ErrStalled)
	assert.Contains(t, err.Error(), "failed")
}

func TestHealthLog(t *testing.T) {
	var logs bytes.Buffer
	w := NewLivenessWatchdog(Options{
		Handles:        []Supervised{newRunning("monitor")},
		HealthLogEvery: 2,
		Snapshot:       func() ResourceSnapshot { return ResourceSnapshot{Goroutines: 7} },
		Logger:         zerolog.New(&logs).Level(zerolog.DebugLevel),
	})

	require.NoError(t, w.Check(context.Background()))
	assert.NotContains(t, logs.String(), "Watchdog health")
	require.NoError(t, w.Check(context.Background()))
	assert.Contains(t, logs.String(), `"goroutines":7`)
}

func TestHealthLog_NoSnapshotWhenDebugDisabled(t *testing.T) {
	var snapshots atomic.Int32
	w := NewLivenessWatchdog(Options{
		Handles:        []Supervised{newRunning("monitor")},
		HealthLogEvery: 1,
		Snapshot: func() ResourceSnapshot {
			snapshots.Add(1)
			return ResourceSnapshot{}
		},
		Logger: zerolog.New(&bytes.Buffer{}).Level(zerolog.InfoLevel),
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Check(context.Background()))
	}
	assert.Equal(t, int32(0), snapshots.Load())
}

func TestTakeSnapshot(t *testing.T) {
	snapshot := TakeSnapshot()

	assert.Positive(t, snapshot.Goroutines)
	assert.GreaterOrEqual(t, snapshot.SysMB, int64(0))
}

func TestSystemdPinger(t *testing.T) {
	var sent []string
	p := NewSystemdPinger(zerolog.Nop())
	p.notify = func(state string) (bool, error) {
		sent = append(sent, state)
		return true, nil
	}

	p.Ready()
	p.Watchdog()
	p.Stopping()

	assert.Equal(t, []string{"READY=1", "WATCHDOG=1", "STOPPING=1"}, sent)
}
