package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_TicksWithClock(t *testing.T) {
	fixed := time.Date(2018, 1, 1, 18, 5, 3, 400, time.UTC)
	s := MustNew(WithClock(func() time.Time { return fixed }))

	var (
		runs int32
		tick atomic.Value
	)
	s.Schedule(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		at, _ := TickTimeFromContext(ctx)
		tick.Store(at)
		return nil
	}).Named("report").MustCron("1-5 05 * * * *")

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.Running())

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, 5*time.Second, 20*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	// 同一秒只分发一次
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.True(t, tick.Load().(time.Time).Equal(fixed.Truncate(time.Second)))
}

func TestHost_Shutdown(t *testing.T) {
	s := MustNew()
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))

	assert.False(t, s.Running())
	assert.ErrorIs(t, s.Start(), ErrSchedulerClosed)
	_, err := s.Schedule(noop).Named("late").Cron("* * * * * *")
	assert.ErrorIs(t, err, ErrSchedulerClosed)
	_, err = s.Trigger(context.Background(), "late")
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}

func TestHost_ShutdownWaitsForRunningTasks(t *testing.T) {
	s := MustNew()
	started := make(chan struct{})
	var finished atomic.Bool
	s.Schedule(func(context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	}).Named("slow").MustCron("* * * * * *")

	go s.RunAt(context.Background(), time.Now())
	<-started

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, finished.Load())
}

func TestService(t *testing.T) {
	s := MustNew()
	svc := NewService(s)
	assert.Equal(t, "scheduler", svc.Name())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()

	require.Eventually(t, s.Running, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, svc.Stop(context.Background()))
	assert.False(t, s.Running())
}

func TestHost_RunAtAfterShutdown(t *testing.T) {
	s := MustNew()
	var runs atomic.Int32
	s.Schedule(func(context.Context) error {
		runs.Add(1)
		return nil
	}).Named("closed").MustCron("* * * * * *")

	require.NoError(t, s.Shutdown(context.Background()))

	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := s.RunAt(context.Background(), tick)
	assert.True(t, result.Tick.Equal(tick))
	assert.Empty(t, result.Outcomes)
	assert.Zero(t, runs.Load())
}
