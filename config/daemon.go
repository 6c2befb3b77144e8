package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Tsukikage7/cronkit/cron"
	"github.com/Tsukikage7/cronkit/lock"
	"github.com/Tsukikage7/cronkit/logger"
	"github.com/Tsukikage7/cronkit/metrics"
	"github.com/Tsukikage7/cronkit/tracing"
)

// EnvPrefix 守护进程配置的环境变量前缀，如 CRONKIT_LOCK_ADDR 覆盖 lock.addr.
const EnvPrefix = "CRONKIT"

// Config cronkit 守护进程配置.
type Config struct {
	Logger    logger.Config   `json:"logger" yaml:"logger" mapstructure:"logger"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler" mapstructure:"scheduler"`
	Lock      lock.Config     `json:"lock" yaml:"lock" mapstructure:"lock"`
	Metrics   metrics.Config  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Tracing   tracing.Config  `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
	Tasks     []TaskConfig    `json:"tasks" yaml:"tasks" mapstructure:"tasks"`
}

// SchedulerConfig 调度器配置.
type SchedulerConfig struct {
	// MaxConcurrency 单个 tick 内同时执行的任务上限，0 表示不限制
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency" mapstructure:"max_concurrency"`
	// DefaultMutexTTL 任务锁默认过期时间
	DefaultMutexTTL time.Duration `json:"default_mutex_ttl" yaml:"default_mutex_ttl" mapstructure:"default_mutex_ttl"`
	// Tick 宿主循环间隔
	Tick time.Duration `json:"tick" yaml:"tick" mapstructure:"tick"`
	// ShutdownTimeout 优雅关闭超时
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// TaskConfig 以 shell 命令定义的任务.
type TaskConfig struct {
	Name     string        `json:"name" yaml:"name" mapstructure:"name"`
	Cron     string        `json:"cron" yaml:"cron" mapstructure:"cron"`
	Command  string        `json:"command" yaml:"command" mapstructure:"command"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MutexKey string        `json:"mutex_key" yaml:"mutex_key" mapstructure:"mutex_key"`
	MutexTTL time.Duration `json:"mutex_ttl" yaml:"mutex_ttl" mapstructure:"mutex_ttl"`
	Once     bool          `json:"once" yaml:"once" mapstructure:"once"`
}

// 任务配置错误.
var (
	ErrTaskName      = errors.New("config: task name is required")
	ErrTaskDuplicate = errors.New("config: duplicate task name")
	ErrTaskCommand   = errors.New("config: task command is required")
)

// Defaults 返回守护进程配置的默认值.
func Defaults() map[string]any {
	return map[string]any{
		"logger.level":                "info",
		"logger.format":               "json",
		"logger.output":               "stdout",
		"logger.service_name":         "cronkit",
		"scheduler.max_concurrency":   0,
		"scheduler.default_mutex_ttl": "24h",
		"scheduler.tick":              "1s",
		"scheduler.shutdown_timeout":  "30s",
		"lock.type":                   lock.TypeMemory,
		"lock.addr":                   "",
		"lock.key_prefix":             "cronkit:lock:",
		"metrics.enabled":             false,
		"metrics.addr":                ":9090",
		"metrics.path":                "/metrics",
		"metrics.namespace":           "cronkit",
		"tracing.enabled":             false,
		"tracing.endpoint":            "",
		"tracing.sampling_rate":       1.0,
	}
}

// Validate 验证配置.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Lock.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Tasks))
	for i, task := range c.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if seen[task.Name] {
			return fmt.Errorf("tasks[%d]: %w: %s", i, ErrTaskDuplicate, task.Name)
		}
		seen[task.Name] = true
	}
	return nil
}

// Validate 验证任务配置，包括解析 Cron 表达式.
func (t *TaskConfig) Validate() error {
	if t.Name == "" {
		return ErrTaskName
	}
	if t.Command == "" {
		return fmt.Errorf("%w: %s", ErrTaskCommand, t.Name)
	}
	if _, err := cron.Parse(t.Cron); err != nil {
		return fmt.Errorf("task %s: %w", t.Name, err)
	}
	return nil
}

// LoadDaemon 加载守护进程配置.
//
// 应用默认值和 CRONKIT_ 前缀的环境变量覆盖，并验证结果.
func LoadDaemon(path string, opts ...Option) (*Config, error) {
	base := []Option{WithEnvPrefix(EnvPrefix), WithDefaults(Defaults())}
	return Load[Config](path, append(base, opts...)...)
}
