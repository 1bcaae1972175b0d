// Package config provides configuration handling for flock.
//
// It gathers the lock target, the lock request and the optional command from
// command-line flags and environment variables, and validates them before any
// file is opened.
//
// # Configuration Sources
//
// Configuration values are loaded with the following precedence:
//
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Default values (lowest priority)
//
// # Environment Variables
//
//	FLOCK_VERBOSE             Report lock timing and the executed command (default: false)
//	FLOCK_CONFLICT_EXIT_CODE  Exit status when the lock is not obtained (default: 1)
//	FLOCK_DEBUG               Enable debug logging (default: false)
//	FLOCK_LOG_FILE            Path to the debug log file (default: stderr)
//
// # Command-line Flags
//
//	-l, --lock FILE                Lock file to open or create
//	-c, --script COMMAND           Run COMMAND through $SHELL -c
//	-s, --shared                   Take a shared lock
//	-x, --exclusive                Take an exclusive lock (default)
//	-n, --nb                       Fail rather than wait
//	-w, --timeout SECONDS          Bound the wait; must be greater than 0
//	-v, --verbose                  Report timing and the executed command
//	-o, --close                    Do not pass the lock descriptor to the command
//	-E, --conflict-exit-code CODE  Exit status when the lock is not obtained
//	    --debug                    Enable debug logging
//	    --log-file FILE            Debug log destination
//	    --version                  Print version information and exit
//
// # Usage
//
//	cfg := config.New()
//	cfg.LoadFromEnvironment()
//
//	cmd := &cobra.Command{
//	    RunE: func(cmd *cobra.Command, args []string) error {
//	        cfg.Bind(cmd.Flags(), args)
//	        return cfg.Finalize() // *errors.ConfigError on a bad invocation
//	    },
//	}
//	cmd.Flags().SetInterspersed(false)
//	cfg.SetupFlags(cmd.Flags())
//
// The Config type is not safe for concurrent modification; it is filled in
// once at startup and read afterwards.
package config
