package xdlock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultCallTimeout      = 3 * time.Second
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 10 * time.Second
)

// RedisStore is the only Store implementation in this package: it adapts a
// go-redis UniversalClient (standalone, sentinel, or cluster) to the narrow
// capability interface the protocols consume.
//
// 每个 RedisStore 拥有独立的脚本 digest 缓存和熔断器；多个 RedisStore 可以
// 安全地共享同一个底层 redis.UniversalClient。
type RedisStore struct {
	name        string
	client      redis.UniversalClient
	prefix      string
	callTimeout time.Duration
	scripts     *scriptCache
	breaker     *gobreaker.CircuitBreaker[any]
	logger      Logger

	// disconnected 会被 quorum 协议的并发 fan-out 同时读写，必须是原子的。
	disconnected atomic.Bool
}

// StoreOption configures a RedisStore at construction time.
type StoreOption func(*RedisStore)

// WithKeyPrefix transparently prefixes every key at the store boundary. The
// prefix is never observable on a Handle — Handle.Key() always returns the
// caller's original key.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithCallTimeout bounds every individual network round trip issued by this
// store. It is independent of the lock's TTL.
func WithCallTimeout(d time.Duration) StoreOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithBreakerSettings overrides the circuit breaker protecting this store's
// calls. Passing a zero-value Settings disables the name/defaults override
// only where fields are non-zero; unset fields keep gobreaker's own zero
// behavior.
func WithBreakerSettings(st gobreaker.Settings) StoreOption {
	return func(s *RedisStore) { s.breaker = gobreaker.NewCircuitBreaker[any](st) }
}

// WithStoreLogger attaches a diagnostic logger to this store.
func WithStoreLogger(l Logger) StoreOption {
	return func(s *RedisStore) { s.logger = l }
}

// WithStoreName labels this store for diagnostics and quorum metadata
// (Handle.Metadata().Nodes). Defaults to "redis-" followed by the first
// eight characters of a random UUID.
func WithStoreName(name string) StoreOption {
	return func(s *RedisStore) { s.name = name }
}

// NewRedisStore wraps a go-redis client as a Store.
func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) *RedisStore {
	s := &RedisStore{
		client:      client,
		callTimeout: defaultCallTimeout,
		scripts:     newScriptCache(),
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "xdlock-redis-store",
			Timeout: defaultBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= defaultBreakerThreshold
			},
		})
	}
	if s.name == "" {
		// A random suffix rather than the client pointer: diagnostic labels
		// end up in log lines and quorum metadata that may outlive the
		// process (or be compared across processes), where a pointer value
		// is both meaningless and liable to collide after GC reuse.
		s.name = fmt.Sprintf("redis-%s", uuid.NewString()[:8])
	}
	return s
}

// Name returns the diagnostic label used in quorum metadata.
func (s *RedisStore) Name() string { return s.name }

func (s *RedisStore) prefixed(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + key
}

// execute runs fn under this store's circuit breaker and a per-call
// deadline, translating both breaker-open and transport failures into an
// OperationError. A tripped breaker surfaces exactly like a timeout would.
func (s *RedisStore) execute(ctx context.Context, op, key string, fn func(context.Context) (any, error)) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	res, err := s.breaker.Execute(func() (any, error) {
		return fn(callCtx)
	})
	if err != nil {
		s.disconnected.Store(errors.Is(err, gobreaker.ErrOpenState))
		return nil, newOperationError(op, key, err)
	}
	s.disconnected.Store(false)
	return res, nil
}

// SetIfAbsent implements Store.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := validateValue(value); err != nil {
		return false, err
	}
	if err := validateTTL(ttl); err != nil {
		return false, err
	}
	res, err := s.execute(ctx, "set_if_absent", key, func(ctx context.Context) (any, error) {
		return s.client.SetNX(ctx, s.prefixed(key), value, ttl).Result()
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	res, err := s.execute(ctx, "get", key, func(ctx context.Context) (any, error) {
		v, err := s.client.Get(ctx, s.prefixed(key)).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return v, err
	})
	if err != nil {
		return "", false, err
	}
	v := res.(string)
	return v, v != "", nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	res, err := s.execute(ctx, "delete", key, func(ctx context.Context) (any, error) {
		return s.client.Del(ctx, s.prefixed(key)).Result()
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// DeleteIfMatch implements Store.
func (s *RedisStore) DeleteIfMatch(ctx context.Context, key, value string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := validateValue(value); err != nil {
		return false, err
	}
	res, err := s.execute(ctx, "delete_if_match", key, func(ctx context.Context) (any, error) {
		return s.scripts.run(ctx, s.client, scriptDeleteIfMatch, []string{s.prefixed(key)}, value)
	})
	if err != nil {
		return false, err
	}
	return toInt64(res) == 1, nil
}

// ExtendIfMatch implements Store.
func (s *RedisStore) ExtendIfMatch(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := validateValue(value); err != nil {
		return false, err
	}
	if err := validateTTL(ttl); err != nil {
		return false, err
	}
	res, err := s.execute(ctx, "extend_if_match", key, func(ctx context.Context) (any, error) {
		return s.scripts.run(ctx, s.client, scriptExtendIfMatch, []string{s.prefixed(key)}, value, ttl.Milliseconds())
	})
	if err != nil {
		return false, err
	}
	return toInt64(res) == 1, nil
}

// AtomicExtend implements Store.
func (s *RedisStore) AtomicExtend(ctx context.Context, key, value string, minRemainingTTL, newTTL time.Duration) (ExtendResult, error) {
	if err := validateKey(key); err != nil {
		return ExtendResult{}, err
	}
	if err := validateValue(value); err != nil {
		return ExtendResult{}, err
	}
	if err := validateTTL(newTTL); err != nil {
		return ExtendResult{}, err
	}
	res, err := s.execute(ctx, "atomic_extend", key, func(ctx context.Context) (any, error) {
		return s.scripts.run(ctx, s.client, scriptAtomicExtend, []string{s.prefixed(key)}, value, minRemainingTTL.Milliseconds(), newTTL.Milliseconds())
	})
	if err != nil {
		return ExtendResult{}, err
	}
	row, ok := res.([]any)
	if !ok || len(row) != 3 {
		return ExtendResult{}, newOperationError("atomic_extend", key, fmt.Errorf("unexpected script result shape: %#v", res))
	}
	return ExtendResult{
		Code:      ExtendCode(toInt64(row[0])),
		ActualTTL: time.Duration(toInt64(row[1])) * time.Millisecond,
		Reason:    fmt.Sprintf("%v", row[2]),
	}, nil
}

// Inspect implements Store.
func (s *RedisStore) Inspect(ctx context.Context, key string) (*Entry, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	res, err := s.execute(ctx, "inspect", key, func(ctx context.Context) (any, error) {
		// 脚本对不存在的 key 返回 false，go-redis 把它映射为 redis.Nil。
		v, err := s.scripts.run(ctx, s.client, scriptInspect, []string{s.prefixed(key)})
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return v, err
	})
	if err != nil {
		return nil, false, err
	}
	if res == nil {
		return nil, false, nil
	}
	row, ok := res.([]any)
	if !ok || len(row) != 2 {
		return nil, false, nil
	}
	return &Entry{
		Value:        fmt.Sprintf("%v", row[0]),
		RemainingTTL: time.Duration(toInt64(row[1])) * time.Millisecond,
	}, true, nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	_, err := s.execute(ctx, "ping", "", func(ctx context.Context) (any, error) {
		return s.client.Ping(ctx).Result()
	})
	return err
}

// IsConnected implements Store. It is a synchronous hint based on the last
// observed call outcome and the breaker's own state — it never itself
// performs network I/O.
func (s *RedisStore) IsConnected() bool {
	return !s.disconnected.Load() && s.breaker.State() != gobreaker.StateOpen
}

// Disconnect clears the script-digest cache, forcing every script to be
// reloaded on next use.
func (s *RedisStore) Disconnect() {
	s.scripts.clear()
}

// toInt64 normalizes the handful of numeric shapes go-redis's Lua bridge can
// hand back (int64 from EVALSHA on simple returns) into int64.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
