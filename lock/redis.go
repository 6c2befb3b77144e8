package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript 只有当锁的值匹配持有者时才删除.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Redis 基于 Redis 的分布式互斥锁.
//
// 使用 SET NX PX 获取锁，Lua 脚本比较后删除释放锁.
// 每个实例有唯一的 owner ID，只有持有者能释放锁.
// 多个进程共享同一个 Redis 时，同一任务在集群内只会有一个执行.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
	ownerID   string

	mu   sync.Mutex
	held map[string]bool
}

// RedisOption Redis 锁配置选项.
type RedisOption func(*Redis)

// WithKeyPrefix 设置锁键前缀.
//
// 默认 "cronkit:lock:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.keyPrefix = prefix
	}
}

// WithOwnerID 设置锁持有者 ID.
//
// 默认自动生成 UUID.
func WithOwnerID(id string) RedisOption {
	return func(r *Redis) {
		r.ownerID = id
	}
}

// NewRedis 创建 Redis 分布式锁.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	if client == nil {
		panic(ErrNilClient)
	}

	r := &Redis{
		client:    client,
		keyPrefix: "cronkit:lock:",
		ownerID:   uuid.New().String(),
		held:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TryAcquire 尝试获取锁.
//
// ttl <= 0 时锁不设置过期时间.
func (r *Redis) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}

	acquired, err := r.client.SetNX(ctx, r.keyPrefix+key, r.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock: acquire %s: %w", key, err)
	}

	if acquired {
		r.mu.Lock()
		r.held[key] = true
		r.mu.Unlock()
	}
	return acquired, nil
}

// Release 释放锁.
//
// 未持有或已过期的锁直接返回 nil.
func (r *Redis) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	held := r.held[key]
	delete(r.held, key)
	r.mu.Unlock()

	if !held {
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{r.keyPrefix + key}, r.ownerID).Err(); err != nil {
		return fmt.Errorf("lock: release %s: %w", key, err)
	}
	return nil
}

// Held 检查本实例是否持有指定的锁.
func (r *Redis) Held(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held[key]
}

// OwnerID 返回当前锁持有者 ID.
func (r *Redis) OwnerID() string {
	return r.ownerID
}

// Close 关闭底层 Redis 客户端.
func (r *Redis) Close() error {
	return r.client.Close()
}
