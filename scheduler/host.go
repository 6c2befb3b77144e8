package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Tsukikage7/cronkit/logger"
)

// Start 启动宿主循环.
//
// 每个 tick 读取时钟，截断到秒后调用 RunAt. 同一秒只会分发一次.
func (s *taskScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if s.running {
		return nil
	}

	cl := cronLogger{log: s.opts.logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.opts.tickInterval), s.tick); err != nil {
		return fmt.Errorf("scheduler: register tick: %w", err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.logDebugf("调度器已启动 [interval:%s, tasks:%d]", s.opts.tickInterval, len(s.tasks))
	return nil
}

// tick 分发当前时刻到期的任务.
func (s *taskScheduler) tick() {
	now := s.opts.clock().Truncate(time.Second)

	unix := now.Unix()
	for {
		last := s.lastTick.Load()
		if unix <= last {
			return
		}
		if s.lastTick.CompareAndSwap(last, unix) {
			break
		}
	}

	result := s.RunAt(context.Background(), now)
	if n := len(result.Outcomes); n > 0 {
		s.logDebugf("tick 完成 [tick:%s] [due:%d] [ran:%d] [failed:%d] [skipped:%d]",
			now.Format(time.DateTime), n, len(result.Ran()), len(result.Failed()), len(result.Skipped()))
	}
}

// Stop 停止调度器.
func (s *taskScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logDebug("调度器已停止")
}

// Shutdown 优雅关闭.
//
// 停止宿主循环并等待正在执行的任务完成，之后不能再添加任务或重新启动.
func (s *taskScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	c := s.cron
	s.running = false
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			s.logWarn("调度器关闭超时")
			return ctx.Err()
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logDebug("调度器优雅关闭完成")
		return nil
	case <-ctx.Done():
		s.logWarn("等待任务完成超时")
		return ctx.Err()
	}
}

// Running 检查是否运行中.
func (s *taskScheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// cronLogger 将 robfig/cron 的日志转发到 logger.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if l.log != nil {
		l.log.Debugf("[Scheduler] cron: %s %v", msg, keysAndValues)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if l.log != nil {
		l.log.Errorf("[Scheduler] cron: %s %v [error:%v]", msg, keysAndValues, err)
	}
}
