/*
Flock runs a command, or just returns, while holding an advisory file lock.

Usage:

	flock [options] -l FILE [-c COMMAND]
	flock [options] FILE|DIR [-c COMMAND | COMMAND [ARGS...]]
	flock [options] FD

The lock file is created if it does not exist. With a descriptor number the
lock is taken on a descriptor the shell already opened:

	(
	  flock -n 9 || exit 1
	  # critical section
	) 9>/var/lock/mylockfile

Options:

	-l, --lock FILE                Lock file to open or create
	-c, --script COMMAND           Run COMMAND through $SHELL -c
	-s, --shared                   Take a shared lock
	-x, --exclusive                Take an exclusive lock (default)
	-n, --nb                       Fail rather than wait
	-w, --timeout SECONDS          Give up after SECONDS (fractions allowed)
	-v, --verbose                  Report lock timing and the executed command
	-o, --close                    Do not pass the lock descriptor to the command
	-E, --conflict-exit-code CODE  Exit status when the lock is not obtained (default 1)
	    --debug                    Enable debug logging
	    --log-file FILE            Debug log destination (default stderr)
	    --version                  Print version information and exit

Exit status:

	0      lock obtained, no command
	1      lock not obtained (--nb or --timeout), unless changed with -E
	64     usage error
	66     lock file cannot be opened, or the command cannot be executed
	71     operating system error
	73     lock file cannot be created
	N      exit status of the command
	128+N  the command was killed by signal N

Environment variables FLOCK_VERBOSE, FLOCK_CONFLICT_EXIT_CODE, FLOCK_DEBUG and
FLOCK_LOG_FILE set defaults for the matching options.
*/
package main
