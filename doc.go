// Package flock manages advisory file locks from shell scripts
//
// flock takes a flock(2) lock on a file, a directory or an already open
// descriptor, optionally gives up after a timeout, and then either exits or
// runs a command while the lock is held. The command's exit status becomes
// flock's own, so scripts can wrap any critical section without changing how
// they check for errors.
//
// # Quick Start
//
//	# Run a nightly job at most once at a time
//	flock -n -l /var/lock/backup.lock -c "/usr/local/bin/backup"
//
//	# Wait up to 30 seconds for the lock, then run the command directly
//	flock -w 30 /var/lock/deploy.lock make deploy
//
//	# Lock a descriptor opened by the shell
//	(
//	  flock -n 9 || exit 1
//	  echo "inside the critical section"
//	) 9>/var/lock/mylockfile
//
// # Module Structure
//
// The module is organized into these packages:
//
//   - cmd/flock: Command-line interface and orchestration
//   - internal/lock: Lock targets and the acquisition loop
//   - internal/timeout: Deadline that interrupts a blocked acquisition
//   - internal/child: Running and waiting for the command
//   - internal/exitcode: Mapping outcomes to exit statuses
//   - internal/config: Flags, environment variables and validation
//   - internal/logger: Debug logging and user-facing diagnostics
//   - internal/errors: Error handling utilities
//   - internal/constants: Exit statuses and fixed values
//
// # Exit Status
//
// A lock that is not obtained exits 1, or the status given with -E, whether the
// request was non-blocking or timed out. Usage errors exit 64, unreadable or
// uncreatable lock files exit 66 or 73, and operating system failures exit 71.
// A command killed by signal N exits 128+N.
//
// # Platform Support
//
// flock builds on Linux, macOS and the BSDs; it relies on flock(2) and on
// descriptor inheritance across exec.
//
// # Implementation Notes
//
// Go restarts system calls interrupted by its own signal handlers, so a
// blocking flock(2) can never be cut short by a timer. A blocking request is
// instead a series of non-blocking attempts separated by exponential backoff,
// woken early by the timeout's notification channel.
package flock
