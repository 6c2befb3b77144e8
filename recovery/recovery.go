// Package recovery 将任务中的 panic 转换为错误.
//
// 调度器用它包裹任务体和钩子，保证 panic 不会中断同一个 tick 中的其他任务，
// 也不会跳过锁的释放.
package recovery

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Tsukikage7/cronkit/logger"
)

// Handler 是 panic 处理函数.
//
// 参数:
//   - ctx: 发生 panic 时的上下文
//   - p: panic 值
//   - stack: 堆栈信息
type Handler func(ctx context.Context, p any, stack []byte)

// Options 配置选项.
type Options struct {
	// Logger 日志记录器，为 nil 时不记录.
	Logger logger.Logger

	// Handler 自定义 panic 处理函数.
	Handler Handler

	// StackSize 堆栈大小，默认 64KB.
	StackSize int
}

// Option 是配置函数.
type Option func(*Options)

// WithLogger 设置日志记录器.
func WithLogger(l logger.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithHandler 设置自定义 panic 处理函数.
func WithHandler(h Handler) Option {
	return func(o *Options) {
		o.Handler = h
	}
}

// WithStackSize 设置堆栈大小.
func WithStackSize(size int) Option {
	return func(o *Options) {
		o.StackSize = size
	}
}

func applyOptions(opts []Option) *Options {
	o := &Options{StackSize: 64 * 1024}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// captureStack 捕获当前 goroutine 的堆栈信息.
func captureStack(size int) []byte {
	stack := make([]byte, size)
	n := runtime.Stack(stack, false)
	return stack[:n]
}

// PanicError 表示 panic 错误.
type PanicError struct {
	// Value 是 panic 的值.
	Value any
	// Stack 是堆栈信息.
	Stack []byte
}

// Error 实现 error 接口.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap 返回原始错误（如果 panic 值是 error）.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call 执行 fn，将其中的 panic 转换为 *PanicError 返回.
//
// fn 正常返回时原样返回其错误.
func Call(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		o := applyOptions(opts)
		stack := captureStack(o.StackSize)

		if o.Logger != nil {
			o.Logger.WithContext(ctx).With(
				logger.Any("panic", p),
				logger.String("stack", string(stack)),
			).Error("[Recovery] panic recovered")
		}
		if o.Handler != nil {
			o.Handler(ctx, p, stack)
		}

		err = &PanicError{Value: p, Stack: stack}
	}()

	return fn(ctx)
}
