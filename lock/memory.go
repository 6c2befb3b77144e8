package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// 锁状态的特殊值.
const (
	stateFree     int64 = 0
	stateNoExpiry int64 = -1
)

// Memory 进程内互斥锁.
//
// 每个 key 对应一个原子整数，保存锁的过期时间（UnixNano）：
// 0 表示空闲，-1 表示持有且永不过期. 获取锁是一次 CAS，释放是一次写入.
// 同一个实例可被多个调度器共享.
type Memory struct {
	entries sync.Map // key -> *atomic.Int64
	now     func() time.Time
}

// MemoryOption 内存锁配置选项.
type MemoryOption func(*Memory)

// WithClock 设置时钟，用于测试锁过期.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory 创建进程内互斥锁.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryAcquire 尝试获取锁.
func (m *Memory) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	v, _ := m.entries.LoadOrStore(key, new(atomic.Int64))
	state := v.(*atomic.Int64)

	now := m.now()
	deadline := stateNoExpiry
	if ttl > 0 {
		deadline = now.Add(ttl).UnixNano()
	}

	current := state.Load()
	switch {
	case current == stateFree:
	case current > 0 && current <= now.UnixNano():
		// 上一次持有已过期，可以接管
	default:
		return false, nil
	}
	return state.CompareAndSwap(current, deadline), nil
}

// Release 释放锁.
func (m *Memory) Release(_ context.Context, key string) error {
	if v, ok := m.entries.Load(key); ok {
		v.(*atomic.Int64).Store(stateFree)
	}
	return nil
}

// Held 检查 key 当前是否被持有（未过期）.
func (m *Memory) Held(key string) bool {
	v, ok := m.entries.Load(key)
	if !ok {
		return false
	}
	current := v.(*atomic.Int64).Load()
	return current == stateNoExpiry || current > m.now().UnixNano()
}
