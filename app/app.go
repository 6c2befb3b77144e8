// Package app 提供守护进程生命周期管理.
//
// Application 并发启动所有注册的 Service，收到信号或任一服务启动失败后
// 按超时优雅关闭，最后按优先级执行清理任务.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/Tsukikage7/cronkit/logger"
)

// ErrRunning 应用正在运行.
var ErrRunning = errors.New("app: application is already running")

// Service 由 Application 管理的长期运行服务.
//
// Start 应阻塞到 ctx 结束或服务出错，Stop 在关闭阶段调用.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Name() string
}

// Application 应用程序，管理多个服务的生命周期.
type Application struct {
	opts     *options
	services []Service
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	running  bool
	startErr error
}

// New 创建应用程序.
func New(opts ...Option) *Application {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Application{
		opts:     o,
		services: o.services,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Use 注册服务.
func (a *Application) Use(services ...Service) *Application {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.services = append(a.services, services...)
	return a
}

// Run 运行应用程序，阻塞到关闭完成.
//
// 任一服务启动失败时触发关闭并返回该错误.
func (a *Application) Run() error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunning
	}
	a.running = true
	a.mu.Unlock()

	if err := a.opts.hooks.run(a.ctx, BeforeStart); err != nil {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
		return err
	}

	a.opts.logger.With(
		logger.String("name", a.opts.name),
		logger.String("version", a.opts.version),
	).Info("[App] starting")

	a.start()

	if err := a.opts.hooks.run(a.ctx, AfterStart); err != nil {
		a.opts.logger.With(logger.Err(err)).Error("[App] after start hook failed")
	}

	a.waitForShutdown()

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startErr
}

// Stop 主动停止应用程序.
func (a *Application) Stop() {
	a.cancel()
}

// Context 获取应用上下文，关闭开始时取消.
func (a *Application) Context() context.Context {
	return a.ctx
}

// Name 获取应用名称.
func (a *Application) Name() string {
	return a.opts.name
}

// Version 获取应用版本.
func (a *Application) Version() string {
	return a.opts.version
}

func (a *Application) start() {
	if len(a.services) == 0 {
		a.opts.logger.Warn("[App] no services registered")
		return
	}

	for _, svc := range a.services {
		go func() {
			a.opts.logger.With(logger.String("service", svc.Name())).Info("[App] starting service")
			if err := svc.Start(a.ctx); err != nil {
				a.opts.logger.With(
					logger.String("service", svc.Name()),
					logger.Err(err),
				).Error("[App] service failed")

				a.mu.Lock()
				if a.startErr == nil {
					a.startErr = err
				}
				a.mu.Unlock()
				a.cancel()
			}
		}()
	}
}

func (a *Application) waitForShutdown() {
	signals := a.opts.signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.opts.logger.With(logger.String("signal", sig.String())).Info("[App] received signal")
		a.cancel()
	case <-a.ctx.Done():
		a.opts.logger.Info("[App] context cancelled")
	}

	a.shutdown()
}

func (a *Application) shutdown() {
	a.opts.logger.With(
		logger.Duration("timeout", a.opts.gracefulTimeout),
	).Info("[App] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.opts.gracefulTimeout)
	defer cancel()

	if err := a.opts.hooks.run(shutdownCtx, BeforeStop); err != nil {
		a.opts.logger.With(logger.Err(err)).Error("[App] before stop hook failed")
	}

	var wg sync.WaitGroup
	for _, svc := range a.services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.opts.logger.With(logger.String("service", svc.Name())).Info("[App] stopping service")
			if err := svc.Stop(shutdownCtx); err != nil {
				a.opts.logger.With(
					logger.String("service", svc.Name()),
					logger.Err(err),
				).Error("[App] service stop failed")
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.opts.logger.Info("[App] all services stopped")
	case <-shutdownCtx.Done():
		a.opts.logger.Warn("[App] shutdown timeout")
	}

	a.runCleanups(shutdownCtx)

	if err := a.opts.hooks.run(context.Background(), AfterStop); err != nil {
		a.opts.logger.With(logger.Err(err)).Error("[App] after stop hook failed")
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	a.opts.logger.Info("[App] stopped")
}

func (a *Application) runCleanups(ctx context.Context) {
	if len(a.opts.cleanups) == 0 {
		return
	}

	cleanups := slices.Clone(a.opts.cleanups)
	slices.SortStableFunc(cleanups, func(x, y Cleanup) int {
		return x.Priority - y.Priority
	})

	for _, c := range cleanups {
		if err := c.Fn(ctx); err != nil {
			a.opts.logger.With(
				logger.String("cleanup", c.Name),
				logger.Err(err),
			).Error("[App] cleanup failed")
			continue
		}
		a.opts.logger.With(logger.String("cleanup", c.Name)).Debug("[App] cleanup done")
	}
}
