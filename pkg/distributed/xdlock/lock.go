package xdlock

import (
	"context"
	"time"

	"github.com/ryazanov-dist/quorumlock/pkg/resilience/xretry"
)

// Lock 是针对单个 Store 的单节点协议实现。一个 Lock 实例对应固定的
// key/TTL/重试参数；Acquire 可以被多次调用，每次都会尝试重新获取——Lock 不
// 维护"是否已持有"的本地状态，重入由调用方自己负责避免。
type Lock struct {
	store Store
	key   string
	cfg   lockConfig
}

// NewLock 构造一个针对单个 Store 的单节点锁。
func NewLock(store Store, key string, opts ...LockOption) (*Lock, error) {
	if store == nil {
		return nil, newConfigError("store must not be nil")
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	cfg := newLockConfig(opts)
	if err := validateTTL(cfg.ttl); err != nil {
		return nil, err
	}
	if cfg.retryAttempts < 0 {
		return nil, newConfigError("retry attempts must be non-negative, got %d", cfg.retryAttempts)
	}
	if cfg.retryDelay < 0 {
		return nil, newConfigError("retry delay must be non-negative, got %s", cfg.retryDelay)
	}
	return &Lock{store: store, key: key, cfg: cfg}, nil
}

// Key returns the logical key this lock targets.
func (l *Lock) Key() string { return l.key }

// TTL returns the configured lease duration.
func (l *Lock) TTL() time.Duration { return l.cfg.ttl }

// Acquire 尝试获取锁，最多尝试 1+retryAttempts 次，每次失败之间固定等待
// retryDelay（单节点协议不做退避）。第一次成功立即返回；预算耗尽则
// 以 *AcquisitionError 失败。
func (l *Lock) Acquire(ctx context.Context) (*Handle, error) {
	start := time.Now()
	value, err := newLeaseValue()
	if err != nil {
		return nil, err
	}

	backoff := xretry.NewFixedBackoff(l.cfg.retryDelay)
	totalAttempts := 1 + l.cfg.retryAttempts

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		ok, err := l.store.SetIfAbsent(ctx, l.key, value, l.cfg.ttl)
		if err != nil {
			l.cfg.logger.Debug("xdlock: single-node acquire attempt errored", map[string]any{
				"key": l.key, "attempt": attempt, "error": err.Error(),
			})
		} else if ok {
			now := time.Now()
			handleID, err := newHandleID(now)
			if err != nil {
				return nil, err
			}
			l.cfg.logger.Info("xdlock: single-node lock acquired", map[string]any{
				"key": l.key, "attempts": attempt, "ttl_ms": l.cfg.ttl.Milliseconds(),
			})
			return &Handle{
				id:         handleID,
				key:        l.key,
				value:      value,
				acquiredAt: now,
				ttl:        l.cfg.ttl,
				metadata: Metadata{
					Attempts:        attempt,
					AcquisitionTime: now.Sub(start),
					Strategy:        StrategySingle,
				},
			}, nil
		}

		if attempt == totalAttempts {
			break
		}
		if err := sleepCtx(ctx, backoff.NextDelay(attempt)); err != nil {
			return nil, &AcquisitionError{Key: l.key, Attempts: attempt, Cause: err}
		}
	}

	l.cfg.logger.Warn("xdlock: single-node acquire exhausted retry budget", map[string]any{
		"key": l.key, "attempts": totalAttempts,
	})
	return nil, &AcquisitionError{Key: l.key, Attempts: totalAttempts}
}

// Release 验证 handle.key 与本锁一致后，调用 delete_if_match。返回 true 仅当
// 该脚本确实删除了 key；租约已不在（过期或被抢占）不是错误，返回 false。
func (l *Lock) Release(ctx context.Context, h *Handle) (bool, error) {
	if h == nil {
		return false, newConfigError("handle must not be nil")
	}
	if h.key != l.key {
		return false, newConfigError("handle key %q does not match lock key %q", h.key, l.key)
	}
	ok, err := l.store.DeleteIfMatch(ctx, l.key, h.value)
	if err != nil {
		return false, &ReleaseError{Key: l.key, Reason: ReasonRedisError, Cause: err}
	}
	if ok {
		l.cfg.logger.Debug("xdlock: single-node lock released", map[string]any{"key": l.key})
	} else {
		l.cfg.logger.Debug("xdlock: single-node release found no matching lease", map[string]any{"key": l.key})
	}
	return ok, nil
}

// Extend 把 handle 对应的租约 TTL 重置为 newTTL。返回 false 表示租约已不
// 再属于该 handle（过期或被抢占），这不是错误。
func (l *Lock) Extend(ctx context.Context, h *Handle, newTTL time.Duration) (bool, error) {
	if h == nil {
		return false, newConfigError("handle must not be nil")
	}
	if h.key != l.key {
		return false, newConfigError("handle key %q does not match lock key %q", h.key, l.key)
	}
	if err := validateTTL(newTTL); err != nil {
		return false, err
	}
	ok, err := l.store.ExtendIfMatch(ctx, l.key, h.value, newTTL)
	if err != nil {
		return false, &ExtensionError{Key: l.key, Reason: ReasonRedisError, Cause: err}
	}
	return ok, nil
}

// extendWithSafety is the supervisor's renewal primitive: it uses the
// atomic_extend script so a renewal that narrowly wins a race with expiry
// never steals the lease back from a new holder.
func (l *Lock) extendWithSafety(ctx context.Context, h *Handle, minRemainingTTL, newTTL time.Duration) (bool, error) {
	res, err := l.store.AtomicExtend(ctx, l.key, h.value, minRemainingTTL, newTTL)
	if err != nil {
		return false, &ExtensionError{Key: l.key, Reason: ReasonRedisError, Cause: err}
	}
	return res.Code == ExtendOK, nil
}

// Health pings the underlying store. A nil return means it is reachable.
func (l *Lock) Health(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// IsLocked 是尽力而为的诊断方法：true 当且仅当 key 当前存在一个值。传输层
// 错误被当作"未锁定"吞掉——这不是安全判断，只是一个诊断信号。
func (l *Lock) IsLocked(ctx context.Context) bool {
	_, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		return false
	}
	return ok
}

// Inspect 返回当前持有者的租约值与剩余 TTL；key 不存在返回 (nil, false, nil)。
func (l *Lock) Inspect(ctx context.Context) (*Entry, bool, error) {
	return l.store.Inspect(ctx, l.key)
}

// sleepCtx 睡眠指定时长，若 ctx 在此期间被取消/超时则提前返回其错误。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
