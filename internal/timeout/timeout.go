package timeout

import (
	"sync/atomic"
	"time"

	"github.com/bashhack/flock/internal/errors"
)

// Clock is the source of time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a one-shot timer that can be cancelled.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns the wall-clock implementation of Clock.
func RealClock() Clock { return realClock{} }

// arming is one Arm call: its timer, its deadline and the flag its timer sets.
type arming struct {
	timer    Timer
	deadline time.Time
	expired  *atomic.Bool
}

// saved is a displaced arming, kept so Disarm can put it back.
type saved struct {
	remaining time.Duration
	expired   bool
}

// Controller arms and disarms a one-shot deadline.
//
// When the deadline passes, the timer callback sets the expired flag and posts
// at most one notification on C. The callback does nothing else. Arm and Disarm
// must be called from a single goroutine.
type Controller struct {
	clock   Clock
	notify  chan struct{}
	current *arming
	expired *atomic.Bool
	stack   []saved
}

// New creates a Controller driven by the wall clock.
func New() *Controller {
	return NewWithClock(RealClock())
}

// NewWithClock creates a Controller driven by clock.
func NewWithClock(clock Clock) *Controller {
	return &Controller{
		clock:   clock,
		notify:  make(chan struct{}, 1),
		expired: new(atomic.Bool),
	}
}

// Arm starts a one-shot timer that fires after d. A timer that is already
// armed is suspended with its remaining time and resumed by the matching Disarm.
func (c *Controller) Arm(d time.Duration) error {
	if d <= 0 {
		return errors.Wrapf(errors.ErrTimerFailed, "could not set interval timer: invalid duration %s", d)
	}

	if c.current != nil {
		c.stack = append(c.stack, c.suspend(c.current))
	}

	c.drain()
	c.start(d)
	return nil
}

// Disarm cancels the current timer and restores whatever was armed before
// the matching Arm call.
func (c *Controller) Disarm() error {
	if c.current == nil {
		return errors.Wrap(errors.ErrTimerFailed, "could not reset old interval timer: not armed")
	}

	c.current.timer.Stop()
	c.current = nil

	if len(c.stack) == 0 {
		return nil
	}

	prev := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	if prev.expired {
		flag := new(atomic.Bool)
		flag.Store(true)
		c.expired = flag
		c.current = &arming{timer: stoppedTimer{}, deadline: c.clock.Now(), expired: flag}
		return nil
	}

	c.start(prev.remaining)
	return nil
}

// Expired reports whether the most recently armed deadline has passed.
func (c *Controller) Expired() bool {
	return c.expired.Load()
}

// Armed reports whether a timer is currently installed.
func (c *Controller) Armed() bool {
	return c.current != nil
}

// C delivers a notification each time an armed deadline passes.
func (c *Controller) C() <-chan struct{} {
	return c.notify
}

func (c *Controller) start(d time.Duration) {
	flag := new(atomic.Bool)
	notify := c.notify
	a := &arming{deadline: c.clock.Now().Add(d), expired: flag}
	a.timer = c.clock.AfterFunc(d, func() {
		flag.Store(true)
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	c.expired = flag
	c.current = a
}

func (c *Controller) suspend(a *arming) saved {
	if !a.timer.Stop() {
		// already fired; the callback may still be storing the flag
		return saved{expired: true}
	}

	remaining := a.deadline.Sub(c.clock.Now())
	if remaining <= 0 {
		// about to fire; give it the smallest slice so it still fires on resume
		remaining = time.Microsecond
	}
	return saved{remaining: remaining}
}

// drain discards a notification left by an earlier timer.
func (c *Controller) drain() {
	select {
	case <-c.notify:
	default:
	}
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }
