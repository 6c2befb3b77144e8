// Package metrics 提供调度任务的 Prometheus 指标.
package metrics

import (
	"errors"
	"net/http"
)

// 预定义错误.
var (
	// ErrNilConfig 配置为空.
	ErrNilConfig = errors.New("metrics: config is nil")

	// ErrRegisterMetric 注册指标失败.
	ErrRegisterMetric = errors.New("metrics: failed to register metric")
)

// NewMetrics 创建指标收集器.
func NewMetrics(cfg *Config) (*PrometheusCollector, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	return NewPrometheus(cfg)
}

// MustNewMetrics 创建指标收集器，失败时 panic.
func MustNewMetrics(cfg *Config) *PrometheusCollector {
	c, err := NewMetrics(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// HandlerProvider 提供指标 HTTP 处理器.
type HandlerProvider interface {
	GetHandler() http.Handler
	GetPath() string
}
