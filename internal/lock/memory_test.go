package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	key := Keys.BookIssue(42)

	acquired, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire on the same key fails while held.
	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	held, err := locker.IsHeld(ctx, key)
	require.NoError(t, err)
	assert.True(t, held)

	released, err := locker.Release(ctx, key)
	require.NoError(t, err)
	assert.True(t, released)

	// Released lock can be re-acquired.
	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	acquired, err := locker.Acquire(ctx, Keys.BookIssue(1), time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = locker.Acquire(ctx, Keys.BookIssue(2), time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	key := Keys.BookIssue(7)

	acquired, err := locker.Acquire(ctx, key, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, acquired)

	time.Sleep(20 * time.Millisecond)

	// Expired lock can be taken by another caller.
	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerExtend(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	key := Keys.BookIssue(9)

	acquired, err := locker.Acquire(ctx, key, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	extended, err := locker.Extend(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, extended)

	// Extending an unheld key fails.
	extended, err = locker.Extend(ctx, "lock:book:issue:999", time.Minute)
	require.NoError(t, err)
	assert.False(t, extended)
}

func TestMemoryLockerAcquireWithRetry(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	key := Keys.BookIssue(3)

	acquired, err := locker.Acquire(ctx, key, 30*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	// Retries until the first holder's TTL expires.
	acquired, err = locker.AcquireWithRetry(ctx, key, time.Minute, 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerReleaseUnheld(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	released, err := locker.Release(ctx, Keys.BookIssue(100))
	require.NoError(t, err)
	assert.False(t, released)
}

func TestLockWrapper(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	lk := NewLock(locker, Keys.BookIssue(5))

	acquired, err := lk.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, lk.IsHeld())

	require.NoError(t, lk.Release(ctx))
	assert.False(t, lk.IsHeld())

	// Releasing twice is a no-op.
	require.NoError(t, lk.Release(ctx))
}

func TestNoOpLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewNoOpLocker()

	acquired, err := locker.Acquire(ctx, "any", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	held, err := locker.IsHeld(ctx, "any")
	require.NoError(t, err)
	assert.False(t, held)
}
