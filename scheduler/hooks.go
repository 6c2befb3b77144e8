package scheduler

import (
	"context"
	"time"
)

// TaskContext 任务执行上下文.
type TaskContext struct {
	// Task 当前任务.
	Task *Task

	// Tick 触发本次执行的 tick 时间.
	Tick time.Time

	// StartTime 开始执行时间.
	StartTime time.Time

	// Error 执行错误（仅在 AfterTask/OnError/OnSkip 中有值）.
	Error error

	// Duration 执行耗时（仅在 AfterTask/OnError 中有值）.
	Duration time.Duration

	// Skipped 是否被跳过.
	Skipped bool

	// SkipReason 跳过原因.
	SkipReason SkipReason
}

// BeforeTaskHook 任务执行前回调.
// 返回 error 将阻止任务执行.
type BeforeTaskHook func(ctx context.Context, tc *TaskContext) error

// AfterTaskHook 任务执行后回调.
type AfterTaskHook func(ctx context.Context, tc *TaskContext)

// OnErrorHook 任务错误回调.
type OnErrorHook func(ctx context.Context, tc *TaskContext)

// OnSkipHook 任务跳过回调.
type OnSkipHook func(ctx context.Context, tc *TaskContext)

// Hooks 任务钩子集合.
type Hooks struct {
	// BeforeTask 任务执行前回调列表.
	BeforeTask []BeforeTaskHook

	// AfterTask 任务执行后回调列表（无论成功失败都会调用）.
	AfterTask []AfterTaskHook

	// OnError 任务错误回调列表.
	OnError []OnErrorHook

	// OnSkip 任务跳过回调列表.
	OnSkip []OnSkipHook
}

func (h *Hooks) runBeforeHooks(ctx context.Context, tc *TaskContext) error {
	if h == nil {
		return nil
	}
	for _, hook := range h.BeforeTask {
		if err := hook(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) runAfterHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.AfterTask {
		hook(ctx, tc)
	}
}

func (h *Hooks) runErrorHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.OnError {
		hook(ctx, tc)
	}
}

func (h *Hooks) runSkipHooks(ctx context.Context, tc *TaskContext) {
	if h == nil {
		return
	}
	for _, hook := range h.OnSkip {
		hook(ctx, tc)
	}
}

// hookChain 全局钩子与任务钩子按顺序组合.
type hookChain []*Hooks

func (c hookChain) before(ctx context.Context, tc *TaskContext) error {
	for _, h := range c {
		if err := h.runBeforeHooks(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}

func (c hookChain) after(ctx context.Context, tc *TaskContext) {
	for _, h := range c {
		h.runAfterHooks(ctx, tc)
	}
}

func (c hookChain) onError(ctx context.Context, tc *TaskContext) {
	for _, h := range c {
		h.runErrorHooks(ctx, tc)
	}
}

func (c hookChain) onSkip(ctx context.Context, tc *TaskContext) {
	for _, h := range c {
		h.runSkipHooks(ctx, tc)
	}
}

// HooksBuilder 钩子构建器.
type HooksBuilder struct {
	hooks *Hooks
}

// NewHooks 创建钩子构建器.
func NewHooks() *HooksBuilder {
	return &HooksBuilder{
		hooks: &Hooks{},
	}
}

// BeforeTask 添加前置钩子.
func (b *HooksBuilder) BeforeTask(hook BeforeTaskHook) *HooksBuilder {
	b.hooks.BeforeTask = append(b.hooks.BeforeTask, hook)
	return b
}

// AfterTask 添加后置钩子.
func (b *HooksBuilder) AfterTask(hook AfterTaskHook) *HooksBuilder {
	b.hooks.AfterTask = append(b.hooks.AfterTask, hook)
	return b
}

// OnError 添加错误钩子.
func (b *HooksBuilder) OnError(hook OnErrorHook) *HooksBuilder {
	b.hooks.OnError = append(b.hooks.OnError, hook)
	return b
}

// OnSkip 添加跳过钩子.
func (b *HooksBuilder) OnSkip(hook OnSkipHook) *HooksBuilder {
	b.hooks.OnSkip = append(b.hooks.OnSkip, hook)
	return b
}

// Build 构建钩子.
func (b *HooksBuilder) Build() *Hooks {
	return b.hooks
}
