/*
Package child runs the command given to flock while the lock is held.

The locked descriptor is passed to the child under the same number, so the
lock outlives flock itself if the child forks something long-lived. With
CloseBeforeExec the child gets no copy and the lock is released as soon as
flock exits.

The supervisor waits for its own child only and reports one of:

	Exited    normal exit, with the child's status
	Signaled  killed by a signal, reported by callers as 128+signal
	Failed    the child could not be started or waited for

A command that cannot be executed is reported as Exited with 66, or 71 when
the failure was resource exhaustion, matching what a shell does for the same
condition.
*/
package child
