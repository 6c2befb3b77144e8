package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService 阻塞到 ctx 结束的测试服务.
type fakeService struct {
	name     string
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (s *fakeService) Start(ctx context.Context) error {
	s.started.Store(true)
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func (s *fakeService) Name() string { return s.name }

func TestApplication_RunAndStop(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(v string) Hook {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, v)
			mu.Unlock()
			return nil
		}
	}

	hooks := NewHooks().
		On(BeforeStart, record("before-start")).
		On(AfterStart, record("after-start")).
		On(BeforeStop, record("before-stop")).
		On(AfterStop, record("after-stop"))

	svc := &fakeService{name: "worker"}
	a := New(
		Name("cronkit-test"),
		SetHooks(hooks),
		GracefulTimeout(time.Second),
		RegisterCleanup("second", func(context.Context) error { _ = record("cleanup-2")(context.TODO()); return nil }, 2),
		RegisterCleanup("first", func(context.Context) error { _ = record("cleanup-1")(context.TODO()); return nil }, 1),
	).Use(svc)

	assert.Equal(t, "cronkit-test", a.Name())

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	require.Eventually(t, svc.started.Load, time.Second, 5*time.Millisecond)
	a.Stop()

	require.NoError(t, <-errCh)
	assert.True(t, svc.stopped.Load())
	assert.Equal(t, []string{
		"before-start", "after-start", "before-stop", "cleanup-1", "cleanup-2", "after-stop",
	}, order)
}

func TestApplication_ServiceFailureShutsDown(t *testing.T) {
	boom := errors.New("bind: address already in use")
	failing := &fakeService{name: "metrics", startErr: boom}
	healthy := &fakeService{name: "scheduler"}

	a := New(GracefulTimeout(time.Second)).Use(failing, healthy)

	err := a.Run()
	assert.ErrorIs(t, err, boom)
	assert.True(t, healthy.stopped.Load())
	assert.Error(t, a.Context().Err())
}

func TestApplication_BeforeStartAborts(t *testing.T) {
	veto := errors.New("config invalid")
	svc := &fakeService{name: "worker"}
	a := New(SetHooks(NewHooks().On(BeforeStart, func(context.Context) error { return veto }))).Use(svc)

	assert.ErrorIs(t, a.Run(), veto)
	assert.False(t, svc.started.Load())
}

func TestApplication_RunTwice(t *testing.T) {
	a := New(GracefulTimeout(time.Second))

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	require.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.running
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, a.Run(), ErrRunning)
	a.Stop()
	require.NoError(t, <-errCh)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRegisterCloser(t *testing.T) {
	var closed atomic.Bool
	a := New(RegisterCloser("conn", closerFunc(func() error {
		closed.Store(true)
		return nil
	}), 0))

	a.Stop()
	require.NoError(t, a.Run())
	assert.True(t, closed.Load())
}

type shutdownFunc func(ctx context.Context) error

func (f shutdownFunc) Shutdown(ctx context.Context) error { return f(ctx) }

func TestServicesOptionAndCleanupOrder(t *testing.T) {
	svc := &fakeService{name: "scheduler"}

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	var deadline bool
	a := New(
		Services(svc),
		RegisterCleanup("logger", func(context.Context) error { record("logger"); return nil }, PriorityLogger),
		RegisterCloser("lock", closerFunc(func() error { record("lock"); return nil }), PriorityBackend),
		RegisterShutdowner("tracer", shutdownFunc(func(ctx context.Context) error {
			_, deadline = ctx.Deadline()
			record("tracer")
			return nil
		}), PriorityExporter),
		RegisterCloser("none", nil, 0),
	)

	go func() {
		assert.Eventually(t, svc.started.Load, time.Second, 5*time.Millisecond)
		a.Stop()
	}()
	require.NoError(t, a.Run())

	assert.True(t, svc.stopped.Load())
	assert.True(t, deadline)
	assert.Equal(t, []string{"tracer", "lock", "logger"}, order)
}
