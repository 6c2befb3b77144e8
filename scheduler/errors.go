package scheduler

import (
	"errors"

	"github.com/Tsukikage7/cronkit/recovery"
)

// 预定义错误.
var (
	// ErrTaskNil 任务为空.
	ErrTaskNil = errors.New("scheduler: task is nil")

	// ErrTaskNameEmpty 任务名称为空.
	ErrTaskNameEmpty = errors.New("scheduler: task name is required")

	// ErrRuleNil 任务调度规则为空.
	ErrRuleNil = errors.New("scheduler: task rule is required")

	// ErrHandlerNil 任务处理函数为空.
	ErrHandlerNil = errors.New("scheduler: task handler is required")

	// ErrSchedulerClosed 调度器已关闭.
	ErrSchedulerClosed = errors.New("scheduler: scheduler is closed")

	// ErrTaskNotFound 任务未找到.
	ErrTaskNotFound = errors.New("scheduler: task not found")

	// ErrTaskExists 任务已存在.
	ErrTaskExists = errors.New("scheduler: task already exists")

	// ErrRegistrationSealed 注册已完成，不能再次提交.
	ErrRegistrationSealed = errors.New("scheduler: registration already sealed")

	// ErrScope 创建执行作用域失败.
	ErrScope = errors.New("scheduler: failed to create execution scope")

	// ErrVetoed 前置钩子阻止了任务执行.
	ErrVetoed = errors.New("scheduler: task vetoed by before hook")
)

// PanicError 任务 panic 时返回的错误.
type PanicError = recovery.PanicError
