package xlog

import (
	"log/slog"
	"time"
)

// 规范化的属性键。统一键名让日志可以跨组件聚合检索。
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyDuration  = "duration"
	KeyLockKey   = "lock_key"
	KeyStore     = "store"
	KeyAttempt   = "attempt"
)

// Err 把错误记录在规范键下；nil 安全。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 标记日志来源组件。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Duration 记录一段耗时。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// LockKey 记录操作针对的锁 key。
func LockKey(key string) slog.Attr {
	return slog.String(KeyLockKey, key)
}

// Store 记录操作发生的存储节点标识。
func Store(name string) slog.Attr {
	return slog.String(KeyStore, name)
}

// Attempt 记录第几次尝试。
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
