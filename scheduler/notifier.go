package scheduler

import (
	"context"
	"time"

	"github.com/Tsukikage7/cronkit/logger"
)

// Event 任务执行事件，每个到期任务在每个 tick 产生一个.
type Event struct {
	Task       string
	Tick       time.Time
	Status     Status
	SkipReason SkipReason
	Err        error
	Duration   time.Duration
}

// Notifier 接收任务执行事件.
//
// Notify 在任务所在的 goroutine 中同步调用，实现应避免阻塞.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc 将普通函数适配为 Notifier.
type NotifierFunc func(ctx context.Context, event Event)

// Notify 实现 Notifier 接口.
func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

// multiNotifier 依次通知多个 Notifier.
type multiNotifier []Notifier

func (m multiNotifier) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}

// logNotifier 将事件写入日志.
type logNotifier struct {
	log logger.Logger
}

// LogNotifier 返回记录每个事件的 Notifier.
//
// 成功和跳过记录为 Info，失败记录为 Error.
func LogNotifier(log logger.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(_ context.Context, event Event) {
	fields := []logger.Field{
		logger.String("status", string(event.Status)),
		logger.Time("tick", event.Tick),
		logger.Duration("duration", event.Duration),
	}
	if event.SkipReason != "" {
		fields = append(fields, logger.String("reason", string(event.SkipReason)))
	}

	log := n.log.With(logger.String("task", event.Task)).With(fields...)
	if event.Status == StatusFailed {
		log.With(logger.Err(event.Err)).Error("[Scheduler] task event")
		return
	}
	log.Info("[Scheduler] task event")
}
