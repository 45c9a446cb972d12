package xdlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryazanov-dist/quorumlock/pkg/distributed/xdlock"
)

func newTestLock(t *testing.T, key string, opts ...xdlock.LockOption) (*xdlock.Lock, *xdlock.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	store, mr := newMiniredisStore(t)
	lock, err := xdlock.NewLock(store, key, opts...)
	require.NoError(t, err)
	return lock, store, mr
}

// Single-node happy path.
func TestLock_HappyPath(t *testing.T) {
	lock, _, _ := newTestLock(t, "k", xdlock.WithTTL(5*time.Second))
	ctx := context.Background()

	handle, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", handle.Key())
	assert.Len(t, handle.Value(), 32)
	assert.Equal(t, xdlock.StrategySingle, handle.Metadata().Strategy)
	assert.Equal(t, 1, handle.Metadata().Attempts)

	entry, found, err := lock.Inspect(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, handle.Value(), entry.Value)
	assert.True(t, handle.Owns(entry))
	assert.InDelta(t, 5*time.Second, entry.RemainingTTL, float64(200*time.Millisecond))

	ok, err := lock.Release(ctx, handle)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err = lock.Inspect(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

// Contention between two holders of the same key.
func TestLock_Contention(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	l1, err := xdlock.NewLock(store, "k", xdlock.WithTTL(5*time.Second), xdlock.WithRetryAttempts(0))
	require.NoError(t, err)
	l2, err := xdlock.NewLock(store, "k", xdlock.WithTTL(5*time.Second), xdlock.WithRetryAttempts(0))
	require.NoError(t, err)

	h1, err := l1.Acquire(ctx)
	require.NoError(t, err)

	_, err = l2.Acquire(ctx)
	require.Error(t, err)
	var acqErr *xdlock.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, "k", acqErr.Key)
	assert.Equal(t, 1, acqErr.Attempts)

	ok, err := l1.Release(ctx, h1)
	require.NoError(t, err)
	assert.True(t, ok)

	h2, err := l2.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, h1.Value(), h2.Value())
}

// Expiry makes extend and release both fail softly.
func TestLock_Expiry(t *testing.T) {
	lock, _, mr := newTestLock(t, "k", xdlock.WithTTL(100*time.Millisecond))
	ctx := context.Background()

	handle, err := lock.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(200 * time.Millisecond)

	ok, err := lock.Extend(ctx, handle, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "extending an expired lease must not be an error, just a no-op")

	ok, err = lock.Release(ctx, handle)
	require.NoError(t, err)
	assert.False(t, ok, "releasing an expired lease must not be an error, just a no-op")
}

func TestLock_ReleaseIdempotence(t *testing.T) {
	lock, _, _ := newTestLock(t, "k", xdlock.WithTTL(5*time.Second))
	ctx := context.Background()

	handle, err := lock.Acquire(ctx)
	require.NoError(t, err)

	ok, err := lock.Release(ctx, handle)
	require.NoError(t, err)
	assert.True(t, ok, "the first release must report that a lease existed")

	ok, err = lock.Release(ctx, handle)
	require.NoError(t, err)
	assert.False(t, ok, "the second release must report nothing was there")
}

// Ownership-verified mutation: a handle whose lease value no longer
// matches the store's current value must not be able to release or extend
// the new holder's lease.
func TestLock_OwnershipVerifiedMutation(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	lock, err := xdlock.NewLock(store, "k", xdlock.WithTTL(5*time.Second))
	require.NoError(t, err)

	staleHandle, err := lock.Acquire(ctx)
	require.NoError(t, err)

	// Simulate the lease expiring and a new holder taking over underneath
	// the stale handle: delete directly, then write a fresh value.
	_, err = store.Delete(ctx, "k")
	require.NoError(t, err)
	ok, err := store.SetIfAbsent(ctx, "k", "new-holder-value-0123456789ab", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := lock.Release(ctx, staleHandle)
	require.NoError(t, err)
	assert.False(t, released, "a stale handle must not delete the new holder's lease")

	extended, err := lock.Extend(ctx, staleHandle, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, extended, "a stale handle must not extend the new holder's lease")

	entry, found, err := lock.Inspect(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new-holder-value-0123456789ab", entry.Value, "the new holder's lease must survive untouched")
}

func TestLock_AcquireExhaustsRetryBudget(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	blocker, err := xdlock.NewLock(store, "k", xdlock.WithTTL(5*time.Second))
	require.NoError(t, err)
	_, err = blocker.Acquire(ctx)
	require.NoError(t, err)

	l, err := xdlock.NewLock(store, "k",
		xdlock.WithTTL(5*time.Second),
		xdlock.WithRetryAttempts(2),
		xdlock.WithRetryDelay(5*time.Millisecond),
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx)
	elapsed := time.Since(start)

	var acqErr *xdlock.AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, 3, acqErr.Attempts, "1 initial attempt plus 2 retries")
	assert.GreaterOrEqual(t, elapsed, 10*time.Millisecond, "two inter-attempt delays must have elapsed")
}

func TestLock_IsLocked(t *testing.T) {
	lock, _, _ := newTestLock(t, "k", xdlock.WithTTL(5*time.Second))
	ctx := context.Background()

	assert.False(t, lock.IsLocked(ctx))

	_, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, lock.IsLocked(ctx))
}

func TestLock_ReleaseRejectsForeignHandleKey(t *testing.T) {
	store, _ := newMiniredisStore(t)
	lockA, err := xdlock.NewLock(store, "a", xdlock.WithTTL(time.Second))
	require.NoError(t, err)
	lockB, err := xdlock.NewLock(store, "b", xdlock.WithTTL(time.Second))
	require.NoError(t, err)

	ctx := context.Background()
	handle, err := lockB.Acquire(ctx)
	require.NoError(t, err)

	_, err = lockA.Release(ctx, handle)
	assert.Error(t, err, "releasing through a lock targeting a different key must be rejected")
}

func TestLock_ConfigurationErrors(t *testing.T) {
	store, _ := newMiniredisStore(t)

	_, err := xdlock.NewLock(store, "", xdlock.WithTTL(time.Second))
	assert.Error(t, err)

	_, err = xdlock.NewLock(store, "k", xdlock.WithTTL(0))
	assert.Error(t, err)

	_, err = xdlock.NewLock(nil, "k")
	assert.Error(t, err)
}

func TestLock_Health(t *testing.T) {
	lock, _, _ := newTestLock(t, "k")
	assert.NoError(t, lock.Health(context.Background()))
}
