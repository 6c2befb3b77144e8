package app

import "context"

// Phase 生命周期阶段.
type Phase int

const (
	// BeforeStart 服务启动前，返回错误将中止启动.
	BeforeStart Phase = iota
	// AfterStart 服务启动后.
	AfterStart
	// BeforeStop 服务停止前.
	BeforeStop
	// AfterStop 服务与清理任务全部结束后.
	AfterStop

	phaseCount
)

// Hook 生命周期钩子函数.
type Hook func(ctx context.Context) error

// Hooks 按阶段分组的生命周期钩子.
type Hooks struct {
	phases [phaseCount][]Hook
}

// NewHooks 创建空钩子集合.
func NewHooks() *Hooks {
	return &Hooks{}
}

// On 在指定阶段添加钩子.
func (h *Hooks) On(phase Phase, hook Hook) *Hooks {
	if phase >= 0 && phase < phaseCount {
		h.phases[phase] = append(h.phases[phase], hook)
	}
	return h
}

// run 依次执行阶段内的钩子，遇到错误立即返回.
func (h *Hooks) run(ctx context.Context, phase Phase) error {
	if h == nil {
		return nil
	}
	for _, hook := range h.phases[phase] {
		if err := hook(ctx); err != nil {
			return err
		}
	}
	return nil
}
