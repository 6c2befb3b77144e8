package lock

import "errors"

var (
	// ErrNilClient Redis 客户端为空.
	ErrNilClient = errors.New("lock: redis client is required")

	// ErrUnsupportedType 不支持的锁类型.
	ErrUnsupportedType = errors.New("lock: unsupported lock type")

	// ErrEmptyAddr Redis 地址为空.
	ErrEmptyAddr = errors.New("lock: redis addr is required")
)
