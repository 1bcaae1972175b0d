package lock

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sys/unix"

	"github.com/bashhack/flock/internal/errors"
	"github.com/bashhack/flock/internal/logger"
)

// Mode selects a shared or an exclusive lock.
type Mode int

const (
	// Exclusive admits exactly one holder.
	Exclusive Mode = iota
	// Shared may be held by many holders at once.
	Shared
)

func (m Mode) String() string {
	if m == Shared {
		return "shared"
	}
	return "exclusive"
}

func (m Mode) how() int {
	if m == Shared {
		return unix.LOCK_SH
	}
	return unix.LOCK_EX
}

// Outcome is the result of an acquisition.
type Outcome int

const (
	// Acquired means the lock is held.
	Acquired Outcome = iota
	// WouldBlock means a non-blocking request found the lock held.
	WouldBlock
	// TimedOut means the deadline passed while waiting.
	TimedOut
	// OSFailure means the lock call failed for a reason other than contention.
	OSFailure
)

func (o Outcome) String() string {
	switch o {
	case Acquired:
		return "acquired"
	case WouldBlock:
		return "would block"
	case TimedOut:
		return "timed out"
	default:
		return "os failure"
	}
}

// Deadline is what the acquisition loop needs from a timeout source.
// C wakes a waiting attempt; Expired says whether the wakeup was the deadline.
type Deadline interface {
	Expired() bool
	C() <-chan struct{}
}

type noDeadline struct{}

func (noDeadline) Expired() bool { return false }

func (noDeadline) C() <-chan struct{} { return nil }

// NoDeadline waits forever.
var NoDeadline Deadline = noDeadline{}

// Flocker performs the flock(2) system call.
type Flocker interface {
	Flock(fd int, how int) error
}

type unixFlocker struct{}

func (unixFlocker) Flock(fd int, how int) error {
	return unix.Flock(fd, how)
}

// SystemFlocker returns the Flocker backed by flock(2).
func SystemFlocker() Flocker {
	return unixFlocker{}
}

const (
	pollInitialInterval = time.Millisecond
	pollMaxInterval     = 20 * time.Millisecond
)

// Acquirer takes a lock on a Target, retrying interrupted attempts.
type Acquirer struct {
	flocker    Flocker
	logger     logger.Logger
	newBackOff func() backoff.BackOff
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithFlocker replaces the flock(2) implementation.
func WithFlocker(f Flocker) Option {
	return func(a *Acquirer) { a.flocker = f }
}

// WithBackOff replaces the pacing between tries of a blocking attempt.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(a *Acquirer) { a.newBackOff = newBackOff }
}

// NewAcquirer creates an Acquirer that logs through log.
func NewAcquirer(log logger.Logger, opts ...Option) *Acquirer {
	a := &Acquirer{
		flocker:    SystemFlocker(),
		logger:     log,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pollInitialInterval
	b.MaxInterval = pollMaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.Reset()
	return b
}

// Acquire locks t in the given mode.
//
// A non-blocking request that finds the lock held returns WouldBlock at once.
// A blocking request waits until the lock is granted or an attempt is
// interrupted with the deadline expired, which yields TimedOut; any other
// interruption is retried. Every other error is returned with OSFailure.
//
// A blocking wait polls, so the lock can be granted up to the current backoff
// interval (at most 20ms by default) after the holder releases it.
func (a *Acquirer) Acquire(t *Target, mode Mode, blocking bool, deadline Deadline) (Outcome, error) {
	if deadline == nil {
		deadline = NoDeadline
	}

	fd := t.FD()
	how := mode.how()

	for {
		err := a.attempt(fd, how, blocking, deadline)
		switch {
		case err == nil:
			a.logger.Info("acquired %s lock on %s", mode, t.Name)
			return Acquired, nil
		case !blocking && isWouldBlock(err):
			a.logger.Info("%s lock on %s is held elsewhere", mode, t.Name)
			return WouldBlock, nil
		case errors.Is(err, unix.EINTR):
			if deadline.Expired() {
				a.logger.Info("deadline passed waiting for %s lock on %s", mode, t.Name)
				return TimedOut, nil
			}
			a.logger.Info("lock attempt on %s interrupted before the deadline, retrying", t.Name)
		default:
			return OSFailure, errors.NewLockError(t.Name, fd, errors.Errorf("%w: %w", errors.ErrLockFailed, err))
		}
	}
}

// attempt makes one lock attempt. A blocking attempt keeps trying with
// LOCK_NB and parks between tries; a notification on the deadline's channel
// ends it with EINTR, the same way a signal ends a blocked flock(2).
func (a *Acquirer) attempt(fd, how int, blocking bool, deadline Deadline) error {
	if !blocking {
		return a.flocker.Flock(fd, how|unix.LOCK_NB)
	}

	b := a.newBackOff()
	b.Reset()
	for {
		err := a.flocker.Flock(fd, how|unix.LOCK_NB)
		if !isWouldBlock(err) {
			return err
		}

		wait := time.NewTimer(b.NextBackOff())
		select {
		case <-deadline.C():
			wait.Stop()
			return unix.EINTR
		case <-wait.C:
		}
	}
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}
