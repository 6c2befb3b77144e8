package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tsukikage7/cronkit/scheduler"
)

// PrometheusCollector Prometheus 指标收集器.
//
// 实现 scheduler.Notifier，每个任务事件更新一次指标.
type PrometheusCollector struct {
	config *Config

	taskRunsTotal  *prometheus.CounterVec
	taskSkipsTotal *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	lastSuccess    *prometheus.GaugeVec

	registry *prometheus.Registry
}

var _ scheduler.Notifier = (*PrometheusCollector)(nil)

// NewPrometheus 创建 Prometheus 指标收集器.
func NewPrometheus(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "cronkit"
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	// 创建新的注册表，避免与默认注册表冲突
	registry := prometheus.NewRegistry()

	c := &PrometheusCollector{
		config:   cfg,
		registry: registry,
	}

	c.taskRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Total number of task executions by status",
		},
		[]string{"task", "status"},
	)

	c.taskSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_skips_total",
			Help:      "Total number of due tasks that were skipped, by reason",
		},
		[]string{"task", "reason"},
	)

	c.taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Task execution duration in seconds",
			Buckets:   buckets,
		},
		[]string{"task"},
	)

	c.lastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_last_success_timestamp_seconds",
			Help:      "Tick time of the last successful execution",
		},
		[]string{"task"},
	)

	// 注册所有指标
	cs := []prometheus.Collector{
		c.taskRunsTotal,
		c.taskSkipsTotal,
		c.taskDuration,
		c.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}

	for _, collector := range cs {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRegisterMetric, err)
		}
	}

	return c, nil
}

// Notify 实现 scheduler.Notifier 接口.
func (c *PrometheusCollector) Notify(_ context.Context, event scheduler.Event) {
	switch event.Status {
	case scheduler.StatusSkipped:
		c.taskSkipsTotal.WithLabelValues(event.Task, string(event.SkipReason)).Inc()
		return
	case scheduler.StatusRan:
		c.lastSuccess.WithLabelValues(event.Task).Set(float64(event.Tick.Unix()))
	}

	c.taskRunsTotal.WithLabelValues(event.Task, string(event.Status)).Inc()
	c.taskDuration.WithLabelValues(event.Task).Observe(event.Duration.Seconds())
}

// Registry 返回指标注册表.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

// GetHandler 返回 metrics 的 HTTP 处理器.
func (c *PrometheusCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetPath 返回 metrics 路径.
func (c *PrometheusCollector) GetPath() string {
	if c.config.Path == "" {
		return "/metrics"
	}
	return c.config.Path
}
