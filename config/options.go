package config

import (
	"maps"
	"strings"
)

// Options 配置加载选项.
type Options struct {
	// EnvPrefix 环境变量前缀，例如 "CRONKIT" 会将 CRONKIT_LOCK_ADDR 映射到 lock.addr
	EnvPrefix string

	// EnvKeyReplacer 环境变量键替换器，默认将 . 替换为 _
	EnvKeyReplacer *strings.Replacer

	// AutomaticEnv 是否自动绑定环境变量
	AutomaticEnv bool

	// AllowEmptyEnv 是否允许空环境变量值覆盖配置
	AllowEmptyEnv bool

	// ConfigType 显式指定配置文件类型（yaml, json, toml 等）
	ConfigType string

	// Defaults 默认配置值
	Defaults map[string]any
}

// DefaultOptions 返回默认选项.
func DefaultOptions() *Options {
	return &Options{
		EnvKeyReplacer: strings.NewReplacer(".", "_"),
		AutomaticEnv:   true,
		AllowEmptyEnv:  false,
	}
}

// Option 配置选项函数.
type Option func(*Options)

// WithEnvPrefix 设置环境变量前缀.
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}

// WithoutEnv 关闭环境变量覆盖，只使用文件和默认值.
func WithoutEnv() Option {
	return func(o *Options) {
		o.AutomaticEnv = false
	}
}

// WithAllowEmptyEnv 允许空环境变量覆盖配置值.
func WithAllowEmptyEnv() Option {
	return func(o *Options) {
		o.AllowEmptyEnv = true
	}
}

// WithDefaults 设置默认值，可多次调用，后设置的键覆盖先设置的.
func WithDefaults(defaults map[string]any) Option {
	return func(o *Options) {
		if o.Defaults == nil {
			o.Defaults = make(map[string]any, len(defaults))
		}
		maps.Copy(o.Defaults, defaults)
	}
}

// WithConfigType 显式指定配置文件类型.
func WithConfigType(configType string) Option {
	return func(o *Options) {
		o.ConfigType = configType
	}
}
