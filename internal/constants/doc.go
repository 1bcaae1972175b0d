// Package constants provides application-wide constant values for flock.
//
// This package centralizes the fixed values that define how flock talks to the
// scripts that call it: the sysexits(3) exit statuses, the default conflict
// status and the shell used for -c command lines.
//
// # Core Components
//
// - Exit statuses: ExitOK, ExitUsage, ExitNoInput, ExitOSErr, ExitCantCreat
// - ExitConflict: default status when the lock was not obtained
// - SignalExitBase: added to a signal number when the child was killed
// - DefaultShell: used when $SHELL is unset or empty
//
// # Usage
//
//	import "github.com/bashhack/flock/internal/constants"
//
//	if timedOut {
//	    os.Exit(constants.ExitConflict)
//	}
//
// # Maintenance
//
// The numeric values follow sysexits.h and must not change: callers branch on them.
package constants
