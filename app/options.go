package app

import (
	"context"
	"os"
	"time"

	"github.com/Tsukikage7/cronkit/logger"
)

// CleanupFunc 清理函数.
type CleanupFunc func(ctx context.Context) error

// 清理优先级. 先刷新导出器，再关闭锁后端，最后同步日志.
const (
	PriorityExporter = 10
	PriorityBackend  = 20
	PriorityLogger   = 100
)

// Cleanup 清理任务.
type Cleanup struct {
	Name     string
	Fn       CleanupFunc
	Priority int // 优先级，数字越小越先执行
}

// options 内部配置.
type options struct {
	name            string
	version         string
	logger          logger.Logger
	hooks           *Hooks
	gracefulTimeout time.Duration
	signals         []os.Signal
	cleanups        []Cleanup
	services        []Service
}

func defaultOptions() *options {
	return &options{
		name:            "cronkit",
		version:         "dev",
		gracefulTimeout: 30 * time.Second,
	}
}

// Option 配置选项.
type Option func(*options)

// Name 设置应用名称.
func Name(name string) Option {
	return func(o *options) { o.name = name }
}

// Version 设置应用版本.
func Version(version string) Option {
	return func(o *options) { o.version = version }
}

// Logger 设置日志记录器，默认丢弃日志.
func Logger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// SetHooks 设置生命周期钩子.
func SetHooks(hooks *Hooks) Option {
	return func(o *options) { o.hooks = hooks }
}

// GracefulTimeout 设置优雅关闭超时时间.
func GracefulTimeout(d time.Duration) Option {
	return func(o *options) { o.gracefulTimeout = d }
}

// Signals 设置监听的系统信号.
func Signals(signals ...os.Signal) Option {
	return func(o *options) { o.signals = signals }
}

// RegisterCleanup 注册清理任务.
func RegisterCleanup(name string, fn CleanupFunc, priority int) Option {
	return func(o *options) {
		o.cleanups = append(o.cleanups, Cleanup{
			Name:     name,
			Fn:       fn,
			Priority: priority,
		})
	}
}

// RegisterCloser 注册 io.Closer 作为清理任务.
//
// closer 为 nil 时忽略，锁等可选后端可以直接传入.
func RegisterCloser(name string, closer interface{ Close() error }, priority int) Option {
	if closer == nil {
		return func(*options) {}
	}
	return RegisterCleanup(name, func(_ context.Context) error {
		return closer.Close()
	}, priority)
}

// RegisterShutdowner 注册带超时的关闭函数，如 TracerProvider.Shutdown.
//
// 关闭时使用优雅关闭的上下文，超时后导出器放弃剩余数据.
func RegisterShutdowner(name string, s interface{ Shutdown(ctx context.Context) error }, priority int) Option {
	return RegisterCleanup(name, s.Shutdown, priority)
}

// Services 注册由应用管理的服务，如调度器和指标服务.
//
// 与 Application.Use 等价，服务按注册顺序启动.
func Services(services ...Service) Option {
	return func(o *options) {
		o.services = append(o.services, services...)
	}
}
