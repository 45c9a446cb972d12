package xretry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff 计算第 attempt 次失败后的等待时长。attempt 从 1 开始计数。
// 实现必须是并发安全的或文档化为单 goroutine 使用。
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// FixedBackoff 每次返回同一个固定延迟。
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定延迟退避。负值被归一化为 0。
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	if delay < 0 {
		delay = 0
	}
	return &FixedBackoff{delay: delay}
}

// NextDelay 实现 Backoff。
func (b *FixedBackoff) NextDelay(_ int) time.Duration {
	return b.delay
}

// 指数退避默认值
const (
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 10 * time.Second
	defaultMultiplier   = 2.0
)

// ExponentialBackoff 按 initial × multiplier^(attempt-1) 增长，封顶于
// max，可选均匀抖动：jitter 为 0.5 时实际延迟在基准值的 ±50% 内均匀
// 分布，用于打散多个竞争者的重试时刻，降低活锁概率。
type ExponentialBackoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
}

// ExponentialBackoffOption 配置 ExponentialBackoff。
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置首次重试前的基准延迟。
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d >= 0 {
			b.initial = d
		}
	}
}

// WithMaxDelay 设置延迟上限（抖动前）。
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.max = d
		}
	}
}

// WithMultiplier 设置增长倍率，1.0 表示不增长（纯抖动）。
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1.0 {
			b.multiplier = m
		}
	}
}

// WithJitter 设置抖动比例，取值 [0, 1]。
func WithJitter(j float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if j >= 0 && j <= 1 {
			b.jitter = j
		}
	}
}

// NewExponentialBackoff 创建指数退避。
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initial:    defaultInitialDelay,
		max:        defaultMaxDelay,
		multiplier: defaultMultiplier,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay 实现 Backoff。
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if base > float64(b.max) {
		base = float64(b.max)
	}
	if b.jitter > 0 {
		// 均匀抖动：base × (1 ± jitter)
		base *= 1 + b.jitter*(2*rand.Float64()-1)
	}
	if base < 0 {
		return 0
	}
	return time.Duration(base)
}
