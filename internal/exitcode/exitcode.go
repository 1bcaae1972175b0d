// Package exitcode turns the result of a flock run into a process exit status.
package exitcode

import (
	"github.com/bashhack/flock/internal/child"
	"github.com/bashhack/flock/internal/constants"
	"github.com/bashhack/flock/internal/errors"
	"github.com/bashhack/flock/internal/lock"
)

// Map combines the acquisition outcome and the child outcome into the exit
// status. conflict is returned when the lock was not obtained, whether the
// request was non-blocking or timed out, so scripts cannot tell the two apart.
func Map(acq lock.Outcome, ch child.Outcome, conflict int) int {
	switch acq {
	case lock.Acquired:
	case lock.WouldBlock, lock.TimedOut:
		return conflict
	default:
		return constants.ExitOSErr
	}

	switch ch.Kind {
	case child.NotRequested:
		return constants.ExitOK
	case child.Exited:
		return ch.Code
	case child.Signaled:
		return constants.SignalExitBase + int(ch.Signal)
	default:
		return constants.ExitOSErr
	}
}

// For returns the exit status for an error raised before or around the
// acquisition. A nil error is success. An *errors.ExitError carries its own
// status, which is how a lock not obtained reports the configured conflict code.
func For(err error) int {
	if err == nil {
		return constants.ExitOK
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var openErr *errors.OpenError
	if errors.As(err, &openErr) {
		switch openErr.Class {
		case errors.OutOfResources:
			return constants.ExitOSErr
		case errors.CannotCreate:
			return constants.ExitCantCreat
		default:
			return constants.ExitNoInput
		}
	}

	if errors.Is(err, errors.ErrUsage) || errors.Is(err, errors.ErrInvalidConfiguration) {
		return constants.ExitUsage
	}
	return constants.ExitOSErr
}
