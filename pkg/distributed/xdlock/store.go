package xdlock

import (
	"context"
	"strings"
	"time"
)

// maxKeyLength 和 maxValueLength 是 Store 实现必须统一校验的输入边界。
const (
	maxKeyLength   = 512
	maxValueLength = 256
)

// ExtendCode 是 atomic_extend 的结果码。
type ExtendCode int

const (
	// ExtendNotExtended 表示因为 key 不存在或处于安全窗口内而没有延长 TTL。
	ExtendNotExtended ExtendCode = 0
	// ExtendOK 表示 TTL 已被成功重置为 new_ttl_ms。
	ExtendOK ExtendCode = 1
	// ExtendValueMismatch 表示当前持有者不是调用方（value 不匹配）。
	ExtendValueMismatch ExtendCode = -1
)

// ExtendResult 是 atomic_extend 的返回值。
type ExtendResult struct {
	Code      ExtendCode
	ActualTTL time.Duration
	Reason    string
}

// Entry 是 inspect 返回的存储端当前状态。
type Entry struct {
	Value        string
	RemainingTTL time.Duration
}

// Store 是协议代码依赖的唯一存储能力接口。每个方法都应当是一次网络
// 往返；实现者负责把 set_if_absent/delete_if_match/extend_if_match/
// atomic_extend 映射为 Redis 原生命令或服务端脚本，协议层不做"先读后写"的
// 组合操作。
type Store interface {
	// SetIfAbsent 等价于 SET key value PX ttl NX：key 不存在时才写入。
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get 是对 key 的裸读取；不存在返回 ("", false, nil)。
	Get(ctx context.Context, key string) (string, bool, error)
	// Delete 无条件删除 key，返回被删除的数量（0 或 1）。
	Delete(ctx context.Context, key string) (int64, error)
	// DeleteIfMatch 原子地比较并删除：仅当当前值等于 value 时删除。
	DeleteIfMatch(ctx context.Context, key, value string) (bool, error)
	// ExtendIfMatch 原子地比较并重置过期时间。
	ExtendIfMatch(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// AtomicExtend 是带安全窗口的续期原语。
	AtomicExtend(ctx context.Context, key, value string, minRemainingTTL, newTTL time.Duration) (ExtendResult, error)
	// Inspect 在一次往返内返回当前持有者和剩余 TTL。
	Inspect(ctx context.Context, key string) (*Entry, bool, error)
	// Ping 是健康探测。
	Ping(ctx context.Context) error
	// IsConnected 是同步的连接状态提示（不发起网络调用）。
	IsConnected() bool
}

// validateKey 校验 key 非空且不超过长度上限。前缀的拼接由 Store 实现自己
// 处理，不在这里发生，这样 Handle 上看到的 key 永远是调用方传入的原始 key。
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return newConfigError("key must not be empty")
	}
	if len(key) > maxKeyLength {
		return newConfigError("key exceeds maximum length of %d bytes", maxKeyLength)
	}
	return nil
}

// validateValue 校验租约值：非空、不超过长度上限、不含换行/回车/NUL。
func validateValue(value string) error {
	if value == "" {
		return newConfigError("value must not be empty")
	}
	if len(value) > maxValueLength {
		return newConfigError("value exceeds maximum length of %d bytes", maxValueLength)
	}
	if strings.ContainsAny(value, "\n\r\x00") {
		return newConfigError("value must not contain newline, carriage return, or NUL bytes")
	}
	return nil
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return newConfigError("ttl must be positive, got %s", ttl)
	}
	return nil
}
