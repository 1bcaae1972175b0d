// Package timeout bounds how long flock waits for a lock.
//
// A Controller owns one deadline at a time. Arm installs a one-shot timer;
// when it fires, the timer callback flips an atomic "expired" flag and posts a
// notification on C without blocking. The lock acquisition loop parks on C and,
// when woken, reads Expired to tell a real timeout from any other wakeup.
//
// Disarm puts back the timer that was armed before, with the time it had left,
// so nested users of the same Controller do not corrupt each other.
package timeout
