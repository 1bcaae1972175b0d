// Package lock takes advisory flock(2) locks for flock.
//
// # Core Components
//
// - Target: the open handle a lock is taken on, from a path (Open) or an
//   inherited descriptor (FromFD)
// - Acquirer: the acquisition loop
// - Deadline: the timeout source the loop consults when an attempt is interrupted
//
// # Usage
//
//	target, err := lock.Open("/var/lock/backup.lock", lock.Exclusive)
//	if err != nil {
//	    // *errors.OpenError, classified by cause
//	}
//	defer target.Close()
//
//	deadline := timeout.New()
//	_ = deadline.Arm(5 * time.Second)
//	outcome, err := lock.NewAcquirer(log).Acquire(target, lock.Exclusive, true, deadline)
//	_ = deadline.Disarm()
//
// # Outcomes
//
//   - Acquired: the lock is held until the target is closed or the process exits
//   - WouldBlock: a non-blocking request found the lock held; the deadline is never consulted
//   - TimedOut: an attempt was interrupted and the deadline had expired
//   - OSFailure: flock(2) failed for any other reason; never retried
//
// # Interruptible Waiting
//
// The Go runtime installs its signal handlers with SA_RESTART, so a blocked
// flock(2) is restarted by the kernel instead of returning EINTR. A blocking
// attempt therefore retries LOCK_NB with exponential backoff and parks on the
// deadline's channel in between. A wakeup ends the attempt with EINTR and the
// loop decides, from Deadline.Expired, whether that was the timeout or something
// to ignore.
//
// # Lock Lifetime
//
// Locks belong to the open file description. They are released when the last
// descriptor sharing it is closed, including implicitly at process exit, and
// are inherited by children that keep the descriptor open.
package lock
