package scheduler

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Tsukikage7/cronkit/cron"
)

// Registration 任务注册构建器.
//
// 由 Scheduler.Schedule 创建，链式设置后以 Cron、Every 或 On 完成注册.
// 完成注册后 Registration 上的设置调用被忽略，已注册的任务不会被修改.
//
// 示例:
//
//	task, err := s.Schedule(cleanup).
//	    Named("cleanup").
//	    PreventOverlapping("cleanup-lock").
//	    Timeout(10 * time.Minute).
//	    Cron("0 0 3 * * *")
type Registration struct {
	s      *taskScheduler
	spec   taskSpec
	hooks  Hooks
	sealed bool
}

// taskSpec 注册过程中累积的任务设置.
type taskSpec struct {
	name     string
	handler  TaskFunc
	mutexKey string
	mutexTTL time.Duration
	timeout  time.Duration
	when     Condition
	once     bool
}

// Schedule 开始注册一个任务.
func (s *taskScheduler) Schedule(fn TaskFunc) *Registration {
	return &Registration{
		s:    s,
		spec: taskSpec{handler: fn},
	}
}

// update 在未完成注册时修改设置，完成注册后忽略.
func (r *Registration) update(fn func(spec *taskSpec)) *Registration {
	if !r.sealed {
		fn(&r.spec)
	}
	return r
}

// Named 设置任务名称，未设置时自动生成 "task-<uuid>".
func (r *Registration) Named(name string) *Registration {
	return r.update(func(spec *taskSpec) { spec.name = name })
}

// PreventOverlapping 设置互斥锁键.
//
// 使用相同键的任务互斥执行. 为空时使用默认键 "task:" + 名称.
func (r *Registration) PreventOverlapping(key string) *Registration {
	return r.update(func(spec *taskSpec) { spec.mutexKey = key })
}

// MutexTTL 设置互斥锁过期时间.
func (r *Registration) MutexTTL(d time.Duration) *Registration {
	return r.update(func(spec *taskSpec) { spec.mutexTTL = d })
}

// Timeout 设置任务超时时间.
func (r *Registration) Timeout(d time.Duration) *Registration {
	return r.update(func(spec *taskSpec) { spec.timeout = d })
}

// When 设置执行条件.
func (r *Registration) When(cond Condition) *Registration {
	return r.update(func(spec *taskSpec) { spec.when = cond })
}

// Once 执行一次后自动移除任务.
func (r *Registration) Once() *Registration {
	return r.update(func(spec *taskSpec) { spec.once = true })
}

// Before 添加任务级前置钩子.
func (r *Registration) Before(hook BeforeTaskHook) *Registration {
	if !r.sealed {
		r.hooks.BeforeTask = append(r.hooks.BeforeTask, hook)
	}
	return r
}

// After 添加任务级后置钩子.
func (r *Registration) After(hook AfterTaskHook) *Registration {
	if !r.sealed {
		r.hooks.AfterTask = append(r.hooks.AfterTask, hook)
	}
	return r
}

// OnError 添加任务级错误钩子.
func (r *Registration) OnError(hook OnErrorHook) *Registration {
	if !r.sealed {
		r.hooks.OnError = append(r.hooks.OnError, hook)
	}
	return r
}

// OnSkip 添加任务级跳过钩子.
func (r *Registration) OnSkip(hook OnSkipHook) *Registration {
	if !r.sealed {
		r.hooks.OnSkip = append(r.hooks.OnSkip, hook)
	}
	return r
}

// Cron 解析六字段 Cron 表达式并完成注册.
//
// 表达式无效时返回包装 cron.ErrMalformedExpression 的错误.
func (r *Registration) Cron(expr string) (*Task, error) {
	e, err := cron.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: register task: %w", err)
	}
	return r.On(e)
}

// Every 使用已编译的表达式完成注册，通常与 cron 包的间隔函数配合使用.
//
//	s.Schedule(fn).Every(cron.Hourly())
func (r *Registration) Every(expr *cron.Expression) (*Task, error) {
	if expr == nil {
		return nil, ErrRuleNil
	}
	return r.On(expr)
}

// On 使用任意调度规则完成注册.
//
// 每次注册创建新的 *Task，之后对 Registration 的调用不会影响已注册的任务.
func (r *Registration) On(rule Rule) (*Task, error) {
	if r.sealed {
		return nil, ErrRegistrationSealed
	}
	if rule == nil {
		return nil, ErrRuleNil
	}

	task := r.build(rule)
	if err := r.s.Add(task); err != nil {
		return nil, err
	}
	r.sealed = true
	return task, nil
}

// build 根据累积的设置创建任务.
func (r *Registration) build(rule Rule) *Task {
	name := r.spec.name
	if name == "" {
		name = "task-" + uuid.NewString()
	}

	task := &Task{
		Name:     name,
		Rule:     rule,
		Handler:  r.spec.handler,
		MutexKey: r.spec.mutexKey,
		MutexTTL: r.spec.mutexTTL,
		Timeout:  r.spec.timeout,
		When:     r.spec.when,
		Once:     r.spec.once,
	}
	if hasHooks(&r.hooks) {
		task.Hooks = &Hooks{
			BeforeTask: slices.Clone(r.hooks.BeforeTask),
			AfterTask:  slices.Clone(r.hooks.AfterTask),
			OnError:    slices.Clone(r.hooks.OnError),
			OnSkip:     slices.Clone(r.hooks.OnSkip),
		}
	}
	return task
}

// MustCron 同 Cron，失败时 panic.
func (r *Registration) MustCron(expr string) *Task {
	task, err := r.Cron(expr)
	if err != nil {
		panic(err)
	}
	return task
}

func hasHooks(h *Hooks) bool {
	return len(h.BeforeTask)+len(h.AfterTask)+len(h.OnError)+len(h.OnSkip) > 0
}
