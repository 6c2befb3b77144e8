package scheduler

import (
	"context"
	"time"

	"github.com/Tsukikage7/cronkit/logger"
)

// Scope 单次任务执行的作用域.
//
// 每次执行创建一个新的作用域，任务结束后关闭. 作用域内分配的资源不会在两次执行之间共享.
type Scope interface {
	// Context 返回任务处理函数使用的上下文.
	Context() context.Context

	// Close 释放作用域持有的资源.
	Close() error
}

// ScopeFactory 为一次执行创建作用域.
//
// 传入的 ctx 已携带任务名称和 tick 时间.
type ScopeFactory func(ctx context.Context, task *Task) (Scope, error)

// contextScope 默认作用域，持有一个可取消的子上下文.
type contextScope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *contextScope) Context() context.Context {
	return s.ctx
}

func (s *contextScope) Close() error {
	s.cancel()
	return nil
}

// DefaultScopeFactory 创建只包含可取消子上下文的作用域.
func DefaultScopeFactory(ctx context.Context, _ *Task) (Scope, error) {
	c, cancel := context.WithCancel(ctx)
	return &contextScope{ctx: c, cancel: cancel}, nil
}

type tickKey struct{}

// withTask 将任务名称和 tick 时间注入 context.
func withTask(ctx context.Context, name string, tick time.Time) context.Context {
	ctx = logger.ContextWithTask(ctx, name)
	return context.WithValue(ctx, tickKey{}, tick)
}

// TaskNameFromContext 获取当前执行的任务名称.
func TaskNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(logger.TaskKey).(string)
	return name, ok && name != ""
}

// TickTimeFromContext 获取触发当前执行的 tick 时间.
func TickTimeFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(tickKey{}).(time.Time)
	return t, ok
}
