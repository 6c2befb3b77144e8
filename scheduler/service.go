package scheduler

import (
	"context"
	"errors"
)

// Service 将调度器适配为 app.Service.
type Service struct {
	scheduler Scheduler
	name      string
}

// NewService 创建调度器服务.
func NewService(s Scheduler) *Service {
	return &Service{scheduler: s, name: "scheduler"}
}

// Start 启动调度器并阻塞到 ctx 结束.
//
// ctx 已结束时不再启动.
func (svc *Service) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	if err := svc.scheduler.Start(); err != nil {
		if errors.Is(err, ErrSchedulerClosed) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 优雅关闭调度器.
func (svc *Service) Stop(ctx context.Context) error {
	return svc.scheduler.Shutdown(ctx)
}

// Name 返回服务名称.
func (svc *Service) Name() string {
	return svc.name
}
