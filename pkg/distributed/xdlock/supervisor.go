package xdlock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// renewable is the narrow surface the auto-extension supervisor needs from
// either a *Lock or a *QuorumLock: acquire, release, and a safety-windowed
// renewal. Both protocol types satisfy it without any exported glue.
type renewable interface {
	Acquire(ctx context.Context) (*Handle, error)
	Release(ctx context.Context, h *Handle) (bool, error)
	extendWithSafety(ctx context.Context, h *Handle, minRemainingTTL, newTTL time.Duration) (bool, error)
	Key() string
}

// AbortSignal is handed to a supervised routine. The routine is expected to
// poll Aborted() at natural checkpoints and abandon its work cooperatively —
// the supervisor never forcibly interrupts it.
type AbortSignal struct {
	mu      sync.Mutex
	aborted bool
	err     error
}

// Aborted reports whether the supervisor has given up on renewing the
// underlying lease and the routine should stop.
func (s *AbortSignal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Err returns the reason the signal was aborted, or nil if it has not been.
func (s *AbortSignal) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *AbortSignal) trigger(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return
	}
	s.aborted = true
	s.err = err
}

// Routine is the caller-supplied critical section run under a Supervisor.
// It receives the ambient context and an AbortSignal it should poll at
// natural checkpoints; its return value (or error) is propagated verbatim
// from Using, regardless of whether the signal ever fired.
type Routine func(ctx context.Context, signal *AbortSignal) (any, error)

// Supervisor is the auto-extension scheduler: it acquires a lock,
// invokes a caller-supplied routine, renews the lease on a schedule while
// the routine runs, and guarantees release on every exit path — including a
// panic inside the routine.
type Supervisor struct {
	lock renewable
	cfg  supervisorConfig
}

// NewLockSupervisor wraps a single-node Lock with auto-extension, using the
// single-node default safety ratio.
func NewLockSupervisor(lock *Lock, opts ...SupervisorOption) *Supervisor {
	return &Supervisor{lock: lock, cfg: newSupervisorConfig(DefaultSingleSafetyRatio, opts)}
}

// NewQuorumSupervisor wraps a QuorumLock with auto-extension, using the
// quorum default safety ratio.
func NewQuorumSupervisor(lock *QuorumLock, opts ...SupervisorOption) *Supervisor {
	return &Supervisor{lock: lock, cfg: newSupervisorConfig(DefaultQuorumSafetyRatio, opts)}
}

// minRemainingTTL is min(safetyCap, floor(ttl*safetyRatio)) — the
// min_remaining_ttl_ms argument passed to every scheduled renewal.
func (s *Supervisor) minRemainingTTL(ttl time.Duration) time.Duration {
	floor := time.Duration(float64(ttl) * s.cfg.safetyRatio)
	if floor > s.cfg.safetyCap {
		return s.cfg.safetyCap
	}
	return floor
}

// Using acquires the lock, runs routine under automatic renewal, and
// releases the lock on every exit path (normal return, routine error, or
// routine panic). If acquisition itself fails, routine is never invoked and
// the acquisition error is returned directly.
func (s *Supervisor) Using(ctx context.Context, routine Routine) (any, error) {
	handle, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	signal := &AbortSignal{}
	renewCtx, cancelRenew := context.WithCancel(ctx)
	defer cancelRenew()

	renewalDone := make(chan struct{})
	go s.renewalLoop(renewCtx, handle, signal, renewalDone)

	type outcome struct {
		val any
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{nil, fmt.Errorf("xdlock: supervised routine panicked: %v", r)}
			}
		}()
		val, err := routine(ctx, signal)
		resultCh <- outcome{val, err}
	}()

	res := <-resultCh

	// Stop scheduling further renewals and wait for any in-flight renewal to
	// reach a terminal state before releasing — its outcome no longer
	// matters, but racing a renewal against release could re-create the key
	// after we thought it gone.
	cancelRenew()
	<-renewalDone

	releaseCtx, cancelRelease := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancelRelease()
	if _, relErr := s.lock.Release(releaseCtx, handle); relErr != nil {
		s.cfg.logger.Warn("xdlock: supervisor failed to release lock on exit", map[string]any{
			"key": handle.Key(), "error": relErr.Error(),
		})
	}

	return res.val, res.err
}

// renewalLoop issues scheduled renewals against handle until renewCtx is
// cancelled (the routine returned) or a renewal fails, in which case it
// triggers signal and stops — no further renewal attempts are made.
func (s *Supervisor) renewalLoop(renewCtx context.Context, handle *Handle, signal *AbortSignal, done chan<- struct{}) {
	defer close(done)

	ttl := handle.TTL()
	threshold := time.Duration(float64(ttl) * s.cfg.thresholdRatio)
	minRemaining := s.minRemainingTTL(ttl)
	lastExtension := handle.AcquiredAt()

	for {
		// The renewal is due when the remaining TTL drops to the threshold.
		// An overdue renewal fires immediately; a due-soon one still waits
		// out the floor so a short TTL can never degenerate into a tight
		// renew loop.
		delay := time.Until(lastExtension.Add(ttl).Add(-threshold))
		if delay <= 0 {
			delay = 0
		} else if delay < s.cfg.minExtensionInterval {
			delay = s.cfg.minExtensionInterval
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-renewCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if renewCtx.Err() != nil {
			return
		}

		ok, err := s.lock.extendWithSafety(renewCtx, handle, minRemaining, ttl)
		if err != nil || !ok {
			signal.trigger(s.renewalError(handle.Key(), err))
			s.cfg.logger.Error("xdlock: auto-extension renewal failed, aborting critical section", err, map[string]any{
				"key": handle.Key(),
			})
			return
		}

		lastExtension = time.Now()
		s.cfg.logger.Debug("xdlock: auto-extension renewed lease", map[string]any{
			"key": handle.Key(), "ttl_ms": ttl.Milliseconds(),
		})
	}
}

// renewalError builds the descriptive abort reason:
// it must name the failed key, and for a quorum-backed supervisor must
// mention quorum loss explicitly.
func (s *Supervisor) renewalError(key string, cause error) error {
	if _, isQuorum := s.lock.(*QuorumLock); isQuorum {
		if cause != nil {
			return fmt.Errorf("xdlock: auto-extension lost quorum while renewing key %q: %w", key, cause)
		}
		return fmt.Errorf("xdlock: auto-extension lost quorum while renewing key %q", key)
	}
	if cause != nil {
		return fmt.Errorf("xdlock: auto-extension failed to renew key %q: %w", key, cause)
	}
	return fmt.Errorf("xdlock: auto-extension failed to renew key %q", key)
}
