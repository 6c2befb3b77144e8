package tracing

import "errors"

// 预定义错误.
var (
	ErrNilConfig         = errors.New("tracing: config is nil")
	ErrEmptyServiceName  = errors.New("tracing: service name is required")
	ErrEmptyEndpoint     = errors.New("tracing: otlp endpoint is required")
	ErrCreateExporter    = errors.New("tracing: failed to create exporter")
	ErrCreateResource    = errors.New("tracing: failed to create resource")
)

// Config 链路追踪配置.
type Config struct {
	// Enabled 是否启用导出
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Endpoint OTLP/HTTP 接收端地址，如 localhost:4318
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	// Headers 导出请求附加的请求头
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`
	// SamplingRate 采样率，超出 (0, 1] 时按 1 处理
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" mapstructure:"sampling_rate"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Enabled && c.Endpoint == "" {
		return ErrEmptyEndpoint
	}
	return nil
}
