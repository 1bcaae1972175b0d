package constants

// Exit statuses, from sysexits.h.
const (
	ExitOK        = 0
	ExitUsage     = 64
	ExitNoInput   = 66
	ExitOSErr     = 71
	ExitCantCreat = 73
)

const (
	// ExitConflict is the default status when the lock was not obtained,
	// whether because of LOCK_NB or because the timeout expired.
	ExitConflict = 1

	// ExitFailure is used for stream write errors at shutdown.
	ExitFailure = 1

	// SignalExitBase is added to the signal number of a child killed by a signal.
	SignalExitBase = 128
)

// DefaultShell runs -c command lines when $SHELL is unset or empty.
const DefaultShell = "/bin/sh"

// ProgramName prefixes every diagnostic.
const ProgramName = "flock"
