package xdlock

import "time"

// Default configuration values.
const (
	DefaultTTL                  = 30 * time.Second
	DefaultSingleRetryAttempts  = 3
	DefaultSingleRetryDelay     = 100 * time.Millisecond
	DefaultQuorumRetryAttempts  = 3
	DefaultQuorumRetryDelay     = 200 * time.Millisecond
	DefaultClockDriftFactor     = 0.01
	DefaultThresholdRatio       = 0.2
	DefaultMinExtensionInterval = 100 * time.Millisecond
	DefaultSingleSafetyRatio    = 0.1
	DefaultQuorumSafetyRatio    = 0.2
	DefaultSafetyCap            = 2 * time.Second
)

type lockConfig struct {
	ttl           time.Duration
	retryAttempts int
	retryDelay    time.Duration
	logger        Logger
}

// LockOption configures a single-node Lock.
type LockOption func(*lockConfig)

// WithTTL sets the lease duration. Default DefaultTTL.
func WithTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

// WithRetryAttempts sets the number of retries after the first attempt
// (total tries = 1 + attempts). Default DefaultSingleRetryAttempts.
func WithRetryAttempts(n int) LockOption {
	return func(c *lockConfig) { c.retryAttempts = n }
}

// WithRetryDelay sets the fixed delay between single-node acquire attempts.
// Default DefaultSingleRetryDelay.
func WithRetryDelay(d time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = d }
}

// WithLogger attaches an optional diagnostic logger. A nil Logger is
// equivalent to not calling this option at all.
func WithLogger(l Logger) LockOption {
	return func(c *lockConfig) { c.logger = l }
}

func newLockConfig(opts []LockOption) lockConfig {
	c := lockConfig{
		ttl:           DefaultTTL,
		retryAttempts: DefaultSingleRetryAttempts,
		retryDelay:    DefaultSingleRetryDelay,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = normalizeLogger(c.logger)
	return c
}

type quorumConfig struct {
	ttl              time.Duration
	quorum           int
	retryAttempts    int
	retryDelay       time.Duration
	clockDriftFactor float64
	logger           Logger
}

// QuorumOption configures a QuorumLock.
type QuorumOption func(*quorumConfig)

// WithQuorumTTL sets the lease duration. Default DefaultTTL.
func WithQuorumTTL(ttl time.Duration) QuorumOption {
	return func(c *quorumConfig) { c.ttl = ttl }
}

// WithQuorum overrides the commit threshold. Default is the simple majority
// of configured stores (⌊N/2⌋+1).
func WithQuorum(n int) QuorumOption {
	return func(c *quorumConfig) { c.quorum = n }
}

// WithQuorumRetryAttempts sets the number of retries after the first
// attempt. Default DefaultQuorumRetryAttempts.
func WithQuorumRetryAttempts(n int) QuorumOption {
	return func(c *quorumConfig) { c.retryAttempts = n }
}

// WithQuorumRetryDelay sets the base delay between quorum acquire attempts;
// the actual delay is jittered uniformly by ±50%. Default
// DefaultQuorumRetryDelay.
func WithQuorumRetryDelay(d time.Duration) QuorumOption {
	return func(c *quorumConfig) { c.retryDelay = d }
}

// WithClockDriftFactor overrides the fractional allowance subtracted from
// TTL when computing validity. Default DefaultClockDriftFactor.
func WithClockDriftFactor(f float64) QuorumOption {
	return func(c *quorumConfig) { c.clockDriftFactor = f }
}

// WithQuorumLogger attaches an optional diagnostic logger.
func WithQuorumLogger(l Logger) QuorumOption {
	return func(c *quorumConfig) { c.logger = l }
}

func newQuorumConfig(storeCount int, opts []QuorumOption) quorumConfig {
	c := quorumConfig{
		ttl:              DefaultTTL,
		quorum:           storeCount/2 + 1,
		retryAttempts:    DefaultQuorumRetryAttempts,
		retryDelay:       DefaultQuorumRetryDelay,
		clockDriftFactor: DefaultClockDriftFactor,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = normalizeLogger(c.logger)
	return c
}

type supervisorConfig struct {
	thresholdRatio       float64
	minExtensionInterval time.Duration
	safetyRatio          float64
	safetyCap            time.Duration
	logger               Logger
}

// SupervisorOption configures the auto-extension supervisor.
type SupervisorOption func(*supervisorConfig)

// WithThresholdRatio overrides the fraction of TTL remaining at which a
// renewal is scheduled. Default DefaultThresholdRatio.
func WithThresholdRatio(r float64) SupervisorOption {
	return func(c *supervisorConfig) { c.thresholdRatio = r }
}

// WithMinExtensionInterval sets the floor for scheduling a renewal: a
// renewal due sooner than this interval waits out the full interval, while
// one that is already overdue fires immediately. Default
// DefaultMinExtensionInterval.
func WithMinExtensionInterval(d time.Duration) SupervisorOption {
	return func(c *supervisorConfig) { c.minExtensionInterval = d }
}

// WithSafetyCap overrides the absolute ceiling applied to the
// min_remaining_ttl_ms argument passed to atomic_extend. Default
// DefaultSafetyCap.
func WithSafetyCap(d time.Duration) SupervisorOption {
	return func(c *supervisorConfig) { c.safetyCap = d }
}

// WithSupervisorLogger attaches an optional diagnostic logger.
func WithSupervisorLogger(l Logger) SupervisorOption {
	return func(c *supervisorConfig) { c.logger = l }
}

func newSupervisorConfig(defaultSafetyRatio float64, opts []SupervisorOption) supervisorConfig {
	c := supervisorConfig{
		thresholdRatio:       DefaultThresholdRatio,
		minExtensionInterval: DefaultMinExtensionInterval,
		safetyRatio:          defaultSafetyRatio,
		safetyCap:            DefaultSafetyCap,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = normalizeLogger(c.logger)
	return c
}
