package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Tsukikage7/cronkit/recovery"
)

const tracerName = "github.com/Tsukikage7/cronkit/scheduler"

// Status 任务在一个 tick 中的执行结果.
type Status string

const (
	// StatusRan 执行成功.
	StatusRan Status = "ran"
	// StatusFailed 执行失败.
	StatusFailed Status = "failed"
	// StatusSkipped 到期但未执行.
	StatusSkipped Status = "skipped"
)

// SkipReason 跳过原因.
type SkipReason string

const (
	// SkipOverlap 互斥锁被其他执行持有.
	SkipOverlap SkipReason = "overlap"
	// SkipCondition 执行条件不满足或求值出错.
	SkipCondition SkipReason = "condition"
	// SkipLockError 锁后端出错.
	SkipLockError SkipReason = "lock_error"
	// SkipVetoed 前置钩子阻止执行.
	SkipVetoed SkipReason = "vetoed"
)

// Outcome 单个到期任务的执行结果.
type Outcome struct {
	Task       string
	Status     Status
	SkipReason SkipReason
	Err        error
	Duration   time.Duration
}

// TickResult 一个 tick 的执行结果，只包含到期的任务.
type TickResult struct {
	Tick     time.Time
	Outcomes []Outcome
}

// Ran 返回执行成功的结果.
func (r *TickResult) Ran() []Outcome {
	return r.filter(StatusRan)
}

// Failed 返回执行失败的结果.
func (r *TickResult) Failed() []Outcome {
	return r.filter(StatusFailed)
}

// Skipped 返回被跳过的结果.
func (r *TickResult) Skipped() []Outcome {
	return r.filter(StatusSkipped)
}

// Err 合并所有失败任务的错误，没有失败时返回 nil.
func (r *TickResult) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("task %s: %w", o.Task, o.Err))
		}
	}
	return errors.Join(errs...)
}

func (r *TickResult) filter(status Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// RunAt 执行在 t 时刻到期的所有任务.
//
// 只计算给定的时刻，不补偿错过的 tick. 到期任务并发执行，
// 单个任务的失败不影响其他任务，所有任务完成后返回.
// 调度器关闭后返回空结果.
func (s *taskScheduler) RunAt(ctx context.Context, t time.Time) *TickResult {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return &TickResult{Tick: t}
	}
	s.wg.Add(1)
	tasks := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	s.mu.RUnlock()
	defer s.wg.Done()

	slices.SortFunc(tasks, func(a, b *Task) int {
		return strings.Compare(a.Name, b.Name)
	})
	var due []*Task
	for _, task := range tasks {
		if task.IsDue(t) {
			due = append(due, task)
		}
	}

	result := &TickResult{Tick: t, Outcomes: make([]Outcome, len(due))}
	if len(due) == 0 {
		return result
	}

	var g errgroup.Group
	if s.opts.maxConcurrency > 0 {
		g.SetLimit(s.opts.maxConcurrency)
	}
	for i, task := range due {
		g.Go(func() error {
			result.Outcomes[i] = s.execute(ctx, task, t)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// Trigger 立即执行任务.
//
// 忽略调度规则，但仍经过执行条件、互斥锁和作用域.
func (s *taskScheduler) Trigger(ctx context.Context, name string) (Outcome, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return Outcome{}, ErrSchedulerClosed
	}
	task, exists := s.tasks[name]
	if !exists {
		s.mu.RUnlock()
		return Outcome{}, ErrTaskNotFound
	}
	s.wg.Add(1)
	s.mu.RUnlock()
	defer s.wg.Done()

	return s.execute(ctx, task, s.opts.clock().Truncate(time.Second)), nil
}

// execute 执行单个到期任务.
func (s *taskScheduler) execute(ctx context.Context, task *Task, tick time.Time) Outcome {
	ctx = withTask(ctx, task.Name, tick)
	tc := &TaskContext{Task: task, Tick: tick}
	hooks := hookChain{s.opts.hooks, task.Hooks}

	if task.When != nil {
		ok, err := task.When(ctx, tick)
		if err != nil {
			s.logWarnf("执行条件求值失败 [task:%s] [error:%v]", task.Name, err)
			s.handleError(ctx, task, err)
			return s.skip(ctx, tc, hooks, SkipCondition, err)
		}
		if !ok {
			s.logDebugf("任务跳过（条件不满足）: %s", task.Name)
			return s.skip(ctx, tc, hooks, SkipCondition, nil)
		}
	}

	acquired, err := s.opts.mutex.TryAcquire(ctx, task.MutexKey, task.MutexTTL)
	if err != nil {
		s.logErrorf("获取互斥锁失败 [task:%s] [key:%s] [error:%v]", task.Name, task.MutexKey, err)
		s.handleError(ctx, task, err)
		return s.skip(ctx, tc, hooks, SkipLockError, err)
	}
	if !acquired {
		s.logDebugf("任务跳过（互斥锁被持有）: %s [key:%s]", task.Name, task.MutexKey)
		return s.skip(ctx, tc, hooks, SkipOverlap, nil)
	}
	defer s.release(ctx, task)

	task.state.Store(int32(TaskStateRunning))
	defer task.state.Store(int32(TaskStateIdle))

	outcome := s.run(ctx, task, tc, hooks)
	if task.Once && outcome.Status != StatusSkipped {
		if err := s.Remove(task.Name); err == nil {
			s.logDebugf("一次性任务已移除: %s", task.Name)
		}
	}
	return outcome
}

// run 在作用域内执行任务，调用方持有互斥锁.
func (s *taskScheduler) run(ctx context.Context, task *Task, tc *TaskContext, hooks hookChain) Outcome {
	ctx, span := s.opts.tracer().Start(ctx, "scheduler.task "+task.Name,
		trace.WithAttributes(
			attribute.String("task.name", task.Name),
			attribute.String("task.rule", task.Rule.String()),
			attribute.String("task.tick", tc.Tick.Format(time.RFC3339)),
		),
	)
	defer span.End()

	scope, err := s.opts.scopeFactory(ctx, task)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrScope, err)
		tc.Error = err
		task.stats.recordStart(tc.Tick)
		task.stats.recordFail(tc.Tick, 0, err)
		s.logErrorf("创建执行作用域失败: %s [error:%v]", task.Name, err)
		return s.fail(ctx, span, tc, hooks, err)
	}
	defer func() {
		if cerr := scope.Close(); cerr != nil {
			s.logWarnf("关闭执行作用域失败 [task:%s] [error:%v]", task.Name, cerr)
		}
	}()
	scopeCtx := scope.Context()

	tc.StartTime = time.Now()
	if err := recovery.Call(scopeCtx, func(ctx context.Context) error {
		return hooks.before(ctx, tc)
	}); err != nil {
		s.logDebugf("前置钩子阻止任务执行 [task:%s] [error:%v]", task.Name, err)
		span.SetAttributes(attribute.String("task.skip_reason", string(SkipVetoed)))
		return s.skip(ctx, tc, hooks, SkipVetoed, fmt.Errorf("%w: %w", ErrVetoed, err))
	}

	task.stats.recordStart(tc.Tick)
	s.logDebugf("开始执行任务: %s [tick:%s]", task.Name, tc.Tick.Format(time.DateTime))

	err = task.Run(scopeCtx)
	tc.Duration = time.Since(tc.StartTime)
	tc.Error = err

	if err != nil {
		task.stats.recordFail(tc.Tick, tc.Duration, err)
		s.logErrorf("任务执行失败: %s [duration:%v] [error:%v]", task.Name, tc.Duration, err)
		return s.fail(scopeCtx, span, tc, hooks, err)
	}

	task.stats.recordSuccess(tc.Tick, tc.Duration)
	span.SetStatus(codes.Ok, "")
	s.safely(scopeCtx, task, func(ctx context.Context) { hooks.after(ctx, tc) })
	s.logDebugf("任务执行成功: %s [duration:%v]", task.Name, tc.Duration)

	return s.finish(ctx, tc, StatusRan, "")
}

// fail 记录失败并通知.
func (s *taskScheduler) fail(ctx context.Context, span trace.Span, tc *TaskContext, hooks hookChain, err error) Outcome {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.safely(ctx, tc.Task, func(ctx context.Context) {
		hooks.onError(ctx, tc)
		hooks.after(ctx, tc)
	})
	s.handleError(ctx, tc.Task, err)

	return s.finish(ctx, tc, StatusFailed, "")
}

// skip 记录跳过并通知.
func (s *taskScheduler) skip(ctx context.Context, tc *TaskContext, hooks hookChain, reason SkipReason, err error) Outcome {
	tc.Task.stats.recordSkip()
	tc.Skipped = true
	tc.SkipReason = reason
	tc.Error = err

	s.safely(ctx, tc.Task, func(ctx context.Context) { hooks.onSkip(ctx, tc) })
	return s.finish(ctx, tc, StatusSkipped, reason)
}

func (s *taskScheduler) finish(ctx context.Context, tc *TaskContext, status Status, reason SkipReason) Outcome {
	outcome := Outcome{
		Task:       tc.Task.Name,
		Status:     status,
		SkipReason: reason,
		Err:        tc.Error,
		Duration:   tc.Duration,
	}

	if len(s.opts.notifiers) > 0 {
		event := Event{
			Task:       outcome.Task,
			Tick:       tc.Tick,
			Status:     outcome.Status,
			SkipReason: outcome.SkipReason,
			Err:        outcome.Err,
			Duration:   outcome.Duration,
		}
		s.safely(ctx, tc.Task, func(ctx context.Context) {
			multiNotifier(s.opts.notifiers).Notify(ctx, event)
		})
	}
	return outcome
}

// release 释放任务互斥锁，上下文取消后仍然执行.
func (s *taskScheduler) release(ctx context.Context, task *Task) {
	if err := s.opts.mutex.Release(context.WithoutCancel(ctx), task.MutexKey); err != nil {
		s.logErrorf("释放互斥锁失败 [task:%s] [key:%s] [error:%v]", task.Name, task.MutexKey, err)
	}
}

func (s *taskScheduler) handleError(ctx context.Context, task *Task, err error) {
	if s.opts.errorHandler == nil {
		return
	}
	s.safely(ctx, task, func(ctx context.Context) { s.opts.errorHandler(ctx, task, err) })
}

// safely 执行回调，回调中的 panic 只记录日志.
func (s *taskScheduler) safely(ctx context.Context, task *Task, fn func(ctx context.Context)) {
	err := recovery.Call(ctx, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
	if err != nil {
		s.logErrorf("回调 panic [task:%s] [error:%v]", task.Name, err)
	}
}
