package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 锁类型常量.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config 锁配置.
type Config struct {
	Type      string        `json:"type" yaml:"type" mapstructure:"type"`
	Addr      string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password  string        `json:"password" yaml:"password" mapstructure:"password"`
	DB        int           `json:"db" yaml:"db" mapstructure:"db"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Validate 验证配置.
func (c *Config) Validate() error {
	switch c.Type {
	case "", TypeMemory:
		return nil
	case TypeRedis:
		if c.Addr == "" {
			return ErrEmptyAddr
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
}

// New 根据配置创建互斥锁.
//
// Redis 类型会先 PING 一次确认连接可用.
func New(ctx context.Context, cfg *Config) (Mutex, error) {
	if cfg == nil {
		return NewMemory(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Type != TypeRedis {
		return NewMemory(), nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("lock: redis 连接失败: %w", err)
	}

	var opts []RedisOption
	if cfg.KeyPrefix != "" {
		opts = append(opts, WithKeyPrefix(cfg.KeyPrefix))
	}
	return NewRedis(client, opts...), nil
}
