package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock gives tests deterministic control over window boundaries.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestLimiter(windowSize time.Duration, maxRequests int) (*MemoryRateLimiter, *fakeClock) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryRateLimiter("test", windowSize, maxRequests)
	l.now = clock.now
	return l, clock
}

func TestMemoryRateLimiter_WindowProperty(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		allowed, err := l.Allow("user-1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d inside the quota", i+1)
	}

	allowed, err := l.Allow("user-1")
	require.NoError(t, err)
	assert.False(t, allowed, "4th request denied")

	clock.advance(time.Minute + time.Second)

	allowed, err = l.Allow("user-1")
	require.NoError(t, err)
	assert.True(t, allowed, "window elapsed, counter reset")

	remaining, err := l.Remaining("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining, "counter restarted at 1")
}

func TestMemoryRateLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)

	allowed, err := l.Allow("user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = l.Allow("user-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = l.Allow("user-2")
	require.NoError(t, err)
	assert.True(t, allowed, "other keys unaffected")
}

func TestMemoryRateLimiter_NamespacesDoNotCollide(t *testing.T) {
	clock := &fakeClock{current: time.Now()}

	tickets := NewMemoryRateLimiter("ticket_create", time.Minute, 1)
	tickets.now = clock.now
	games := NewMemoryRateLimiter("game_action", time.Minute, 1)
	games.now = clock.now

	allowed, err := tickets.Allow("user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = games.Allow("user-1")
	require.NoError(t, err)
	assert.True(t, allowed, "same key in another action class has its own window")
}

func TestMemoryRateLimiter_RetryAfter(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 1)

	wait, err := l.RetryAfter("user-1")
	require.NoError(t, err)
	assert.Zero(t, wait)

	_, err = l.Allow("user-1")
	require.NoError(t, err)
	_, err = l.Allow("user-1")
	require.NoError(t, err)

	wait, err = l.RetryAfter("user-1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, wait)

	clock.advance(20 * time.Second)
	wait, err = l.RetryAfter("user-1")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, wait)
}

func TestMemoryRateLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(time.Minute, 3)

	_, err := l.Allow("user-1")
	require.NoError(t, err)
	_, err = l.Allow("user-2")
	require.NoError(t, err)

	assert.Equal(t, 0, l.Sweep(), "live windows kept")

	clock.advance(2 * time.Minute)
	assert.Equal(t, 2, l.Sweep(), "expired windows evicted")
	assert.Equal(t, 0, l.Sweep())
}

func TestMemoryRateLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(time.Minute, 1)

	_, err := l.Allow("user-1")
	require.NoError(t, err)
	_, err = l.Allow("user-1")
	require.NoError(t, err)

	require.NoError(t, l.Reset("user-1"))

	allowed, err := l.Allow("user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}
