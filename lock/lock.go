// Package lock 提供任务互斥锁.
//
// 锁是非阻塞的：已被持有时 TryAcquire 立即返回 false，不会排队等待.
// 释放是幂等的：释放未持有的锁不会报错.
//
// 本地互斥:
//
//	m := lock.NewMemory()
//	ok, _ := m.TryAcquire(ctx, "task:sync", time.Hour)
//	if ok {
//	    defer m.Release(ctx, "task:sync")
//	}
//
// 分布式互斥:
//
//	m := lock.NewRedis(client, lock.WithKeyPrefix("cronkit:lock:"))
package lock

import (
	"context"
	"time"
)

// Mutex 按 key 互斥的锁接口.
//
// 同一 key 在一次成功的 TryAcquire 与对应的 Release 之间，
// 其他 TryAcquire 都会失败. 实现必须支持并发调用.
type Mutex interface {
	// TryAcquire 尝试获取锁，不阻塞.
	// ttl 为锁的最长持有时间，超时后锁可被重新获取；ttl <= 0 表示永不过期.
	// 仅在后端故障时返回 error.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release 释放锁. 未持有时为空操作.
	Release(ctx context.Context, key string) error
}
