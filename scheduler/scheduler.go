// Package scheduler 提供基于 tick 的任务调度功能.
//
// 特性：
//   - 六字段（秒 分 时 日 月 周）Cron 表达式，见 cron 包
//   - 互斥锁：同一任务不会重叠执行，多实例部署时可使用 Redis 锁
//   - 每次执行独立的作用域
//   - Hook 机制：BeforeTask/AfterTask/OnError/OnSkip
//   - 事件通知、链路追踪
//   - 优雅关闭
//
// 示例：
//
//	s := scheduler.MustNew(
//	    scheduler.WithLogger(log),
//	    scheduler.WithMutex(lock.NewRedis(client)),
//	)
//
//	s.Schedule(syncHandler).
//	    Named("sync-data").
//	    Timeout(time.Minute).
//	    Cron("0 */5 * * * *")
//
//	s.Start()
//	defer s.Stop()
package scheduler

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Tsukikage7/cronkit/lock"
	"github.com/Tsukikage7/cronkit/logger"
)

// Scheduler 调度器接口.
type Scheduler interface {
	// Schedule 开始注册一个任务.
	Schedule(fn TaskFunc) *Registration

	// Add 添加已构建的任务.
	Add(task *Task) error

	// Remove 移除任务.
	Remove(name string) error

	// Get 获取任务.
	Get(name string) (*Task, bool)

	// List 按名称顺序列出所有任务.
	List() []*Task

	// RunAt 执行在 t 时刻到期的所有任务，全部完成后返回.
	RunAt(ctx context.Context, t time.Time) *TickResult

	// Trigger 立即执行任务，忽略其调度规则.
	Trigger(ctx context.Context, name string) (Outcome, error)

	// Start 启动宿主循环.
	Start() error

	// Stop 停止宿主循环，等待当前 tick 完成.
	Stop()

	// Shutdown 优雅关闭.
	Shutdown(ctx context.Context) error

	// Running 检查宿主循环是否运行中.
	Running() bool
}

// New 创建调度器.
func New(opts ...Option) (Scheduler, error) {
	return newTaskScheduler(opts...)
}

// MustNew 创建调度器，失败时 panic.
func MustNew(opts ...Option) Scheduler {
	s, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// taskScheduler 调度器实现.
type taskScheduler struct {
	opts  *options
	tasks map[string]*Task

	mu      sync.RWMutex
	cron    *cron.Cron
	running bool
	closed  bool

	lastTick atomic.Int64
	wg       sync.WaitGroup // 跟踪正在执行的 tick
}

func newTaskScheduler(opts ...Option) (*taskScheduler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.mutex == nil {
		o.mutex = lock.NewMemory()
	}
	if o.scopeFactory == nil {
		o.scopeFactory = DefaultScopeFactory
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.tickInterval < time.Second {
		o.tickInterval = time.Second
	}

	return &taskScheduler{
		opts:  o,
		tasks: make(map[string]*Task),
	}, nil
}

// Add 添加任务.
func (s *taskScheduler) Add(task *Task) error {
	if task == nil {
		return ErrTaskNil
	}
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if _, exists := s.tasks[task.Name]; exists {
		return ErrTaskExists
	}

	task.applyDefaults(s.opts.defaultMutexTTL)
	s.tasks[task.Name] = task

	s.logDebugf("任务已添加: %s [rule:%s, mutex:%s, once:%v]",
		task.Name, task.Rule.String(), task.MutexKey, task.Once)
	return nil
}

// Remove 移除任务.
//
// 正在执行的任务会执行完毕.
func (s *taskScheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, name)
	s.logDebugf("任务已移除: %s", name)
	return nil
}

// Get 获取任务.
func (s *taskScheduler) Get(name string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, exists := s.tasks[name]
	return task, exists
}

// List 列出所有任务.
func (s *taskScheduler) List() []*Task {
	s.mu.RLock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	s.mu.RUnlock()

	slices.SortFunc(tasks, func(a, b *Task) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tasks
}

// 日志辅助方法.

func (s *taskScheduler) logger() logger.Logger {
	return s.opts.logger
}

func (s *taskScheduler) logDebug(msg string) {
	if log := s.logger(); log != nil {
		log.Debug("[Scheduler] " + msg)
	}
}

func (s *taskScheduler) logDebugf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Debugf("[Scheduler] "+format, args...)
	}
}

func (s *taskScheduler) logWarn(msg string) {
	if log := s.logger(); log != nil {
		log.Warn("[Scheduler] " + msg)
	}
}

func (s *taskScheduler) logWarnf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Warnf("[Scheduler] "+format, args...)
	}
}

func (s *taskScheduler) logErrorf(format string, args ...any) {
	if log := s.logger(); log != nil {
		log.Errorf("[Scheduler] "+format, args...)
	}
}
