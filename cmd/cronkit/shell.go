package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Tsukikage7/cronkit/config"
	"github.com/Tsukikage7/cronkit/logger"
	"github.com/Tsukikage7/cronkit/scheduler"
)

// maxOutput 记录到日志的命令输出上限.
const maxOutput = 4096

// shellTask 返回通过 sh -c 执行 command 的任务函数.
//
// 命令的合并输出写入日志，超时或取消时进程被终止.
func shellTask(command string, log logger.Logger) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdout = &out
		cmd.Stderr = &out
		cmd.WaitDelay = time.Second

		err := cmd.Run()

		output := strings.TrimSpace(out.String())
		if len(output) > maxOutput {
			output = output[:maxOutput] + "...(truncated)"
		}
		if output != "" {
			log.WithContext(ctx).With(logger.String("output", output)).Info("[Shell] command output")
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("command %q: %w", command, ctxErr)
			}
			return fmt.Errorf("command %q: %w", command, err)
		}
		return nil
	}
}

// registerTasks 将配置中的任务注册到调度器.
func registerTasks(s scheduler.Scheduler, tasks []config.TaskConfig, log logger.Logger) error {
	for _, t := range tasks {
		r := s.Schedule(shellTask(t.Command, log)).
			Named(t.Name).
			PreventOverlapping(t.MutexKey).
			MutexTTL(t.MutexTTL).
			Timeout(t.Timeout)
		if t.Once {
			r = r.Once()
		}
		if _, err := r.Cron(t.Cron); err != nil {
			return fmt.Errorf("register %s: %w", t.Name, err)
		}
	}
	return nil
}
