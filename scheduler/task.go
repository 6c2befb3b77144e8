package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tsukikage7/cronkit/recovery"
)

// DefaultMutexTTL 任务锁的默认过期时间.
const DefaultMutexTTL = 24 * time.Hour

// TaskFunc 任务执行函数.
//
// ctx 来自任务的执行作用域，任务结束后作用域关闭.
type TaskFunc func(ctx context.Context) error

// Rule 调度规则，判断某一时刻任务是否到期.
//
// *cron.Expression 实现了该接口.
type Rule interface {
	IsDue(t time.Time) bool
	String() string
}

// RuleFunc 将普通函数适配为 Rule.
type RuleFunc func(t time.Time) bool

// IsDue 实现 Rule 接口.
func (f RuleFunc) IsDue(t time.Time) bool {
	return f(t)
}

// String 实现 Rule 接口.
func (f RuleFunc) String() string {
	return "func"
}

// Condition 任务执行条件，返回 false 时跳过本次执行.
type Condition func(ctx context.Context, tick time.Time) (bool, error)

// TaskState 任务状态.
type TaskState int32

const (
	// TaskStateIdle 空闲状态.
	TaskStateIdle TaskState = iota
	// TaskStateRunning 执行中.
	TaskStateRunning
)

// String 返回状态字符串.
func (s TaskState) String() string {
	switch s {
	case TaskStateIdle:
		return "idle"
	case TaskStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Task 调度任务.
//
// 注册后不应再修改导出字段.
type Task struct {
	// Name 任务名称（唯一标识）.
	Name string

	// Rule 调度规则.
	Rule Rule

	// Handler 任务处理函数.
	Handler TaskFunc

	// MutexKey 互斥锁键，默认 "task:" + Name.
	MutexKey string

	// MutexTTL 互斥锁过期时间，0 使用调度器默认值，负数表示永不过期.
	MutexTTL time.Duration

	// Timeout 任务超时时间，0 表示不限制.
	Timeout time.Duration

	// Hooks 任务级钩子，在全局钩子之后执行.
	Hooks *Hooks

	// When 执行条件，为 nil 时总是执行.
	When Condition

	// Once 执行一次后自动移除.
	Once bool

	state     atomic.Int32
	stats     *TaskStats
	statsOnce sync.Once
}

// TaskStats 任务执行统计.
type TaskStats struct {
	mu            sync.RWMutex
	RunCount      int64         // 执行次数
	SuccessCount  int64         // 成功次数
	FailCount     int64         // 失败次数
	SkipCount     int64         // 跳过次数
	LastRunAt     time.Time     // 上次执行的 tick 时间
	LastSuccessAt time.Time     // 上次成功的 tick 时间
	LastFailAt    time.Time     // 上次失败的 tick 时间
	LastError     error         // 上次错误
	LastDuration  time.Duration // 上次执行耗时
	TotalDuration time.Duration // 总执行耗时
}

// Clone 返回统计信息副本.
func (s *TaskStats) Clone() TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TaskStats{
		RunCount:      s.RunCount,
		SuccessCount:  s.SuccessCount,
		FailCount:     s.FailCount,
		SkipCount:     s.SkipCount,
		LastRunAt:     s.LastRunAt,
		LastSuccessAt: s.LastSuccessAt,
		LastFailAt:    s.LastFailAt,
		LastError:     s.LastError,
		LastDuration:  s.LastDuration,
		TotalDuration: s.TotalDuration,
	}
}

func (s *TaskStats) recordStart(tick time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RunCount++
	s.LastRunAt = tick
}

func (s *TaskStats) recordSuccess(tick time.Time, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SuccessCount++
	s.LastSuccessAt = tick
	s.LastDuration = duration
	s.TotalDuration += duration
	s.LastError = nil
}

func (s *TaskStats) recordFail(tick time.Time, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailCount++
	s.LastFailAt = tick
	s.LastDuration = duration
	s.TotalDuration += duration
	s.LastError = err
}

func (s *TaskStats) recordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkipCount++
}

// Validate 验证任务配置.
func (t *Task) Validate() error {
	if t.Name == "" {
		return ErrTaskNameEmpty
	}
	if t.Rule == nil {
		return ErrRuleNil
	}
	if t.Handler == nil {
		return ErrHandlerNil
	}
	return nil
}

// IsDue 判断任务在 t 时刻是否到期.
func (t *Task) IsDue(at time.Time) bool {
	return t.Rule.IsDue(at)
}

// Run 执行任务处理函数.
//
// 设置了 Timeout 时 ctx 带有截止时间. panic 转换为 *PanicError 返回.
func (t *Task) Run(ctx context.Context) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	return recovery.Call(ctx, t.Handler)
}

// State 获取任务状态.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// IsRunning 检查任务是否正在执行.
func (t *Task) IsRunning() bool {
	return t.State() == TaskStateRunning
}

// Stats 获取任务统计信息.
func (t *Task) Stats() TaskStats {
	t.initStats()
	return t.stats.Clone()
}

func (t *Task) initStats() {
	t.statsOnce.Do(func() {
		t.stats = &TaskStats{}
	})
}

// applyDefaults 填充注册时的默认值.
func (t *Task) applyDefaults(defaultTTL time.Duration) {
	if t.MutexKey == "" {
		t.MutexKey = "task:" + t.Name
	}
	if t.MutexTTL == 0 {
		t.MutexTTL = defaultTTL
	}
	t.initStats()
}
