package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/cronkit/lock"
	"github.com/Tsukikage7/cronkit/logger"
)

// ErrorHandler 全局错误处理函数.
//
// 任务失败、锁后端错误、执行条件错误时调用.
type ErrorHandler func(ctx context.Context, task *Task, err error)

// Option 调度器配置选项.
type Option func(*options)

// options 调度器内部配置.
type options struct {
	logger          logger.Logger
	mutex           lock.Mutex
	scopeFactory    ScopeFactory
	hooks           *Hooks
	notifiers       []Notifier
	errorHandler    ErrorHandler
	tracerProvider  trace.TracerProvider
	maxConcurrency  int
	clock           func() time.Time
	tickInterval    time.Duration
	defaultMutexTTL time.Duration
}

// defaultOptions 返回默认配置.
func defaultOptions() *options {
	return &options{
		scopeFactory:    DefaultScopeFactory,
		clock:           time.Now,
		tickInterval:    time.Second,
		defaultMutexTTL: DefaultMutexTTL,
	}
}

// WithLogger 设置日志记录器.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithMutex 设置任务互斥锁.
//
// 默认使用进程内的 lock.Memory. 多实例部署时使用 lock.Redis，
// 同一任务在所有共享该 Redis 的实例中同时只有一个在执行.
//
// 示例:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := scheduler.MustNew(scheduler.WithMutex(lock.NewRedis(client)))
func WithMutex(m lock.Mutex) Option {
	return func(o *options) {
		o.mutex = m
	}
}

// WithScopeFactory 设置执行作用域工厂.
func WithScopeFactory(f ScopeFactory) Option {
	return func(o *options) {
		o.scopeFactory = f
	}
}

// WithHooks 设置全局钩子.
//
// 对所有任务生效，先于任务级钩子执行.
func WithHooks(hooks *Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithNotifier 添加事件通知器，可多次调用.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifiers = append(o.notifiers, n)
	}
}

// WithErrorHandler 设置全局错误处理函数.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = h
	}
}

// WithTracerProvider 设置链路追踪提供者.
//
// 默认使用 otel 全局提供者.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMaxConcurrency 设置单个 tick 内同时执行的任务上限.
//
// 0 表示不限制.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// WithClock 设置时钟.
//
// 宿主循环用它读取当前时间，测试时可注入固定时钟.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithTickInterval 设置宿主循环的 tick 间隔.
//
// 默认: 1 秒. 小于 1 秒的值按 1 秒处理.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		o.tickInterval = d
	}
}

// WithDefaultMutexTTL 设置任务锁默认过期时间.
//
// 应大于任务最大执行时间. 默认: 24 小时.
func WithDefaultMutexTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultMutexTTL = d
	}
}

func (o *options) tracer() trace.Tracer {
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}
