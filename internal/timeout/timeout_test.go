package timeout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/flock/internal/errors"
)

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func notified(c *Controller) bool {
	select {
	case <-c.C():
		return true
	default:
		return false
	}
}

func TestArmFiresOnce(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock(clock)

	require.NoError(t, c.Arm(2*time.Second))
	assert.True(t, c.Armed())

	clock.Advance(1999 * time.Millisecond)
	assert.False(t, c.Expired(), "must not expire before the deadline")
	assert.False(t, notified(c))

	clock.Advance(time.Millisecond)
	assert.True(t, c.Expired())
	assert.True(t, notified(c))

	clock.Advance(time.Hour)
	assert.False(t, notified(c), "one-shot timer must notify at most once")
	assert.True(t, c.Expired(), "expired never resets on its own")

	require.NoError(t, c.Disarm())
	assert.False(t, c.Armed())
}

func TestDisarmBeforeDeadline(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock(clock)

	require.NoError(t, c.Arm(time.Second))
	require.NoError(t, c.Disarm())

	clock.Advance(time.Minute)
	assert.False(t, c.Expired())
	assert.False(t, notified(c))
}

func TestArmRejectsNonPositive(t *testing.T) {
	c := NewWithClock(newFakeClock())

	for _, d := range []time.Duration{0, -time.Second} {
		err := c.Arm(d)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTimerFailed))
	}
	assert.False(t, c.Armed())
}

func TestDisarmWithoutArm(t *testing.T) {
	c := NewWithClock(newFakeClock())

	err := c.Disarm()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimerFailed))
}

func TestNestedArmRestoresPrevious(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock(clock)

	require.NoError(t, c.Arm(10*time.Second))
	clock.Advance(4 * time.Second)

	// inner deadline displaces the outer one with 6s left
	require.NoError(t, c.Arm(time.Second))
	clock.Advance(time.Second)
	assert.True(t, c.Expired())
	assert.True(t, notified(c))

	require.NoError(t, c.Disarm())
	assert.True(t, c.Armed(), "outer timer is restored")
	assert.False(t, c.Expired(), "outer timer has not fired")

	clock.Advance(5999 * time.Millisecond)
	assert.False(t, c.Expired())

	clock.Advance(time.Millisecond)
	assert.True(t, c.Expired())
	assert.True(t, notified(c))

	require.NoError(t, c.Disarm())
	assert.False(t, c.Armed())
}

func TestNestedArmOverFiredTimer(t *testing.T) {
	clock := newFakeClock()
	c := NewWithClock(clock)

	require.NoError(t, c.Arm(time.Second))
	clock.Advance(time.Second)
	require.True(t, c.Expired())

	require.NoError(t, c.Arm(time.Minute))
	assert.False(t, c.Expired(), "re-arming starts a fresh deadline")
	assert.False(t, notified(c), "stale notification is drained on arm")

	require.NoError(t, c.Disarm())
	assert.True(t, c.Expired(), "restored state keeps the outer expiry")
}

func TestRealClock(t *testing.T) {
	c := New()

	start := time.Now()
	require.NoError(t, c.Arm(20*time.Millisecond))

	select {
	case <-c.C():
	case <-time.After(5 * time.Second):
		t.Fatal("timer never fired")
	}

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.True(t, c.Expired())
	require.NoError(t, c.Disarm())
}
