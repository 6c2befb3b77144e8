package metrics

import "time"

// Config 指标监控配置.
type Config struct {
	// Enabled 是否启用指标服务
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Addr 指标服务监听地址，默认 :9090
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
	// Path 指标暴露路径，默认 /metrics
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// Namespace 指标命名空间
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	// Buckets 任务耗时直方图的桶（秒），为空时使用默认值
	Buckets []float64 `json:"buckets" yaml:"buckets" mapstructure:"buckets"`
	// ShutdownTimeout 指标服务关闭超时
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DefaultConfig 返回默认配置.
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":9090",
		Path:      "/metrics",
		Namespace: "cronkit",
	}
}

// defaultBuckets 任务耗时默认桶，覆盖毫秒级到小时级的任务.
var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600}
