package xdlock

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ryazanov-dist/quorumlock/pkg/resilience/xretry"
)

// namer 是 Store 实现可选实现的诊断标签接口；RedisStore 实现了它。不实现
// 该接口的 Store 会被赋予 "store-<index>" 作为回退标签。
type namer interface {
	Name() string
}

// QuorumLock 是 Redlock 风格的多节点 quorum 协议实现：在 N 个独立的
// Store 上并行获取，达到多数派（或调用方配置的阈值）即视为提交成功。
type QuorumLock struct {
	stores []Store
	names  []string
	key    string
	cfg    quorumConfig
}

// NewQuorumLock 构造一个跨 N 个 Store 的 quorum 锁。
func NewQuorumLock(stores []Store, key string, opts ...QuorumOption) (*QuorumLock, error) {
	if len(stores) == 0 {
		return nil, newConfigError("quorum lock requires at least one store")
	}
	for i, s := range stores {
		if s == nil {
			return nil, newConfigError("store at index %d must not be nil", i)
		}
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	cfg := newQuorumConfig(len(stores), opts)
	if err := validateTTL(cfg.ttl); err != nil {
		return nil, err
	}
	if cfg.quorum < 1 || cfg.quorum > len(stores) {
		return nil, newConfigError("quorum %d must be between 1 and the number of stores (%d)", cfg.quorum, len(stores))
	}
	if cfg.retryAttempts < 0 {
		return nil, newConfigError("retry attempts must be non-negative, got %d", cfg.retryAttempts)
	}
	if cfg.retryDelay < 0 {
		return nil, newConfigError("retry delay must be non-negative, got %s", cfg.retryDelay)
	}
	if cfg.clockDriftFactor < 0 {
		return nil, newConfigError("clock drift factor must be non-negative, got %f", cfg.clockDriftFactor)
	}

	names := make([]string, len(stores))
	for i, s := range stores {
		if n, ok := s.(namer); ok {
			names[i] = n.Name()
		} else {
			names[i] = fmt.Sprintf("store-%d", i)
		}
	}

	return &QuorumLock{stores: stores, names: names, key: key, cfg: cfg}, nil
}

// Key returns the logical key this lock targets.
func (q *QuorumLock) Key() string { return q.key }

// TTL returns the configured lease duration.
func (q *QuorumLock) TTL() time.Duration { return q.cfg.ttl }

// Quorum returns the configured commit threshold.
func (q *QuorumLock) Quorum() int { return q.cfg.quorum }

// perStoreDeadline 返回单个 store 调用的截止时间：ttl 的十分之一，严格小于
// ttl，防止一个挂起的 store 吃掉整个租约预算。
func (q *QuorumLock) perStoreDeadline() time.Duration {
	d := q.cfg.ttl / 10
	if d <= 0 {
		return q.cfg.ttl / 2
	}
	return d
}

// driftTerm 是从 ttl 中减去的时钟漂移项：max(1ms, floor(ttl*factor))。
func (q *QuorumLock) driftTerm() time.Duration {
	drift := time.Duration(math.Floor(float64(q.cfg.ttl) * q.cfg.clockDriftFactor))
	if drift < time.Millisecond {
		return time.Millisecond
	}
	return drift
}

// Acquire 在所有配置的 store 上并行尝试 set_if_absent；达到 quorum 且剩余
// 有效期为正则提交，否则 unwind 后按配置重试。
func (q *QuorumLock) Acquire(ctx context.Context) (*Handle, error) {
	value, err := newLeaseValue()
	if err != nil {
		return nil, err
	}

	overallStart := time.Now()
	backoff := xretry.NewExponentialBackoff(
		xretry.WithInitialDelay(q.cfg.retryDelay),
		xretry.WithMultiplier(1.0),
		xretry.WithJitter(0.5),
		xretry.WithMaxDelay(2*q.cfg.retryDelay+time.Millisecond),
	)
	totalAttempts := 1 + q.cfg.retryAttempts

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		attempts = attempt
		t0 := time.Now()
		accepted := q.parallelSetIfAbsent(ctx, value)
		elapsed := time.Since(t0)

		validity := q.cfg.ttl - elapsed - q.driftTerm()

		if len(accepted) >= q.cfg.quorum && validity > 0 {
			nodes := make([]string, 0, len(accepted))
			for i := range accepted {
				nodes = append(nodes, q.names[i])
			}
			q.cfg.logger.Info("xdlock: quorum lock acquired", map[string]any{
				"key": q.key, "attempt": attempt, "nodes": nodes, "validity_ms": validity.Milliseconds(),
			})
			now := time.Now()
			handleID, err := newHandleID(now)
			if err != nil {
				return nil, err
			}
			return &Handle{
				id:         handleID,
				key:        q.key,
				value:      value,
				acquiredAt: now,
				ttl:        q.cfg.ttl,
				metadata: Metadata{
					Attempts:        attempt,
					AcquisitionTime: time.Since(overallStart),
					Nodes:           nodes,
					Strategy:        StrategyQuorum,
				},
			}, nil
		}

		q.cfg.logger.Warn("xdlock: quorum acquire attempt failed, unwinding", map[string]any{
			"key": q.key, "attempt": attempt, "accepted": len(accepted), "quorum": q.cfg.quorum,
		})
		q.unwind(ctx, value)

		if len(accepted) < q.cfg.quorum {
			lastErr = fmt.Errorf("only %d/%d stores accepted, need %d", len(accepted), len(q.stores), q.cfg.quorum)
		} else {
			lastErr = fmt.Errorf("validity window exhausted (elapsed %s against ttl %s)", elapsed, q.cfg.ttl)
		}

		if attempt == totalAttempts {
			break
		}
		delay := backoff.NextDelay(attempt)
		if time.Since(overallStart)+delay >= q.cfg.ttl {
			break
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, &AcquisitionError{Key: q.key, Attempts: attempt, Cause: err}
		}
	}

	return nil, &AcquisitionError{Key: q.key, Attempts: attempts, Cause: lastErr}
}

// parallelSetIfAbsent 对所有 store 并发尝试 set_if_absent，每个调用携带独立
// 的超时。返回成功的 store 索引集合；失败与超时被等价对待（都不计入）。
func (q *QuorumLock) parallelSetIfAbsent(ctx context.Context, value string) map[int]struct{} {
	results := make([]bool, len(q.stores))
	deadline := q.perStoreDeadline()

	var g errgroup.Group
	for i, s := range q.stores {
		i, s := i, s
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()
			ok, err := s.SetIfAbsent(callCtx, q.key, value, q.cfg.ttl)
			if err != nil {
				q.cfg.logger.Debug("xdlock: quorum store acquire failed", map[string]any{
					"key": q.key, "store": q.names[i], "error": err.Error(),
				})
				return nil
			}
			results[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	accepted := make(map[int]struct{})
	for i, ok := range results {
		if ok {
			accepted[i] = struct{}{}
		}
	}
	return accepted
}

// unwind 在 Acquire 放弃本次尝试时，对所有配置的 store（而不仅仅是返回成功
// 的那些）尽力发起 delete_if_match，覆盖"请求其实到达了服务端，只是响应
// 超时"的情形。错误被完全忽略——unwind 只是尽力而为的清理。
func (q *QuorumLock) unwind(ctx context.Context, value string) {
	var g errgroup.Group
	deadline := q.perStoreDeadline()
	for _, s := range q.stores {
		s := s
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()
			_, _ = s.DeleteIfMatch(callCtx, q.key, value)
			return nil
		})
	}
	_ = g.Wait()
}

// Release 对所有配置的 store（不仅仅是 handle.Metadata().Nodes，因为超时的
// store 可能其实已经接受了租约）并行发起 delete_if_match。返回 true 当且
// 仅当至少一个 store 确认删除。
func (q *QuorumLock) Release(ctx context.Context, h *Handle) (bool, error) {
	if h == nil {
		return false, newConfigError("handle must not be nil")
	}
	if h.key != q.key {
		return false, newConfigError("handle key %q does not match lock key %q", h.key, q.key)
	}

	results := make([]bool, len(q.stores))
	errs := make([]error, len(q.stores))
	var g errgroup.Group
	for i, s := range q.stores {
		i, s := i, s
		g.Go(func() error {
			ok, err := s.DeleteIfMatch(ctx, q.key, h.value)
			results[i] = ok
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	anyOK := false
	allErrored := true
	for i := range q.stores {
		if errs[i] == nil {
			allErrored = false
		}
		if results[i] {
			anyOK = true
		}
	}
	if allErrored && len(q.stores) > 0 {
		return false, &ReleaseError{Key: q.key, Reason: ReasonRedisError, Cause: errs[0]}
	}
	return anyOK, nil
}

// Extend 对所有 store 并行发起简单的 CAS 续期（extend_if_match，不带安全
// 窗口），达到 quorum 个成功即视为续期成功。
func (q *QuorumLock) Extend(ctx context.Context, h *Handle, newTTL time.Duration) (bool, error) {
	if h == nil {
		return false, newConfigError("handle must not be nil")
	}
	if h.key != q.key {
		return false, newConfigError("handle key %q does not match lock key %q", h.key, q.key)
	}
	if err := validateTTL(newTTL); err != nil {
		return false, err
	}

	successes := make([]bool, len(q.stores))
	errs := make([]error, len(q.stores))
	var g errgroup.Group
	for i, s := range q.stores {
		i, s := i, s
		g.Go(func() error {
			ok, err := s.ExtendIfMatch(ctx, q.key, h.value, newTTL)
			successes[i] = ok
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return q.tallyExtend(successes, errs)
}

// extendWithSafety is the supervisor's renewal primitive: it uses the
// atomic_extend script so a renewal that narrowly wins a race with expiry
// never steals the lease back from a new holder.
func (q *QuorumLock) extendWithSafety(ctx context.Context, h *Handle, minRemainingTTL, newTTL time.Duration) (bool, error) {
	successes := make([]bool, len(q.stores))
	errs := make([]error, len(q.stores))
	var g errgroup.Group
	for i, s := range q.stores {
		i, s := i, s
		g.Go(func() error {
			res, err := s.AtomicExtend(ctx, q.key, h.value, minRemainingTTL, newTTL)
			successes[i] = err == nil && res.Code == ExtendOK
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return q.tallyExtend(successes, errs)
}

func (q *QuorumLock) tallyExtend(successes []bool, errs []error) (bool, error) {
	count := 0
	allErrored := true
	for i := range successes {
		if errs[i] == nil {
			allErrored = false
		}
		if successes[i] {
			count++
		}
	}
	if allErrored && len(successes) > 0 {
		return false, &ExtensionError{Key: q.key, Reason: ReasonRedisError, Cause: errs[0]}
	}
	return count >= q.cfg.quorum, nil
}

// Health pings every configured store and reports per-store reachability.
// This is a diagnostic convenience, never a safety
// primitive: it only consumes Ping/IsConnected, adding no new guarantee.
func (q *QuorumLock) Health(ctx context.Context) map[string]error {
	result := make(map[string]error, len(q.stores))
	pingErrs := make([]error, len(q.stores))
	var g errgroup.Group
	for i, s := range q.stores {
		i, s := i, s
		g.Go(func() error {
			pingErrs[i] = s.Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()
	for i, name := range q.names {
		result[name] = pingErrs[i]
	}
	return result
}
