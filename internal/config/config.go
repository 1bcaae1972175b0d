package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bashhack/flock/internal/constants"
	"github.com/bashhack/flock/internal/errors"
	"github.com/bashhack/flock/internal/lock"
)

const (
	// EnvPrefix is prepended to every environment variable the program reads
	EnvPrefix = "FLOCK_"

	// NoFD marks a configuration whose lock target is a path
	NoFD = -1
)

// Config holds all flock settings
type Config struct {
	// Lock target: a path from --lock or the first argument, or an inherited descriptor
	LockPath string
	FD       int

	// Lock request
	Shared      bool
	Exclusive   bool
	NonBlocking bool
	Timeout     float64 // seconds, only meaningful when HasTimeout
	hasTimeout  bool

	// Command run while the lock is held
	Script          string
	CommandArgs     []string
	CloseBeforeExec bool

	// Exit status when the lock is not obtained
	ConflictExitCode int

	// User experience
	Verbose bool

	// Debugging
	Debug   bool
	LogFile string

	// Special flags
	Version bool

	// Build metadata
	VersionInfo VersionInfo

	// Positional arguments, resolved by Finalize
	args []string
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		FD:               NoFD,
		ConflictExitCode: constants.ExitConflict,
		Verbose:          false,
		Debug:            false,
		LogFile:          "",

		// Default version info, will be overridden if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// LoadFromEnvironment updates config from environment variables
func (c *Config) LoadFromEnvironment() {
	c.Verbose = getEnvBool(EnvPrefix+"VERBOSE", c.Verbose)
	c.ConflictExitCode = getEnvInt(EnvPrefix+"CONFLICT_EXIT_CODE", c.ConflictExitCode)
	c.Debug = getEnvBool(EnvPrefix+"DEBUG", c.Debug)
	c.LogFile = getEnvString(EnvPrefix+"LOG_FILE", c.LogFile)
}

// SetupFlags defines the command-line flags on fs, with the current values as defaults
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.LockPath, "lock", "l", c.LockPath, "Lock file to open or create")
	fs.StringVarP(&c.Script, "script", "c", c.Script, "Command line to run through $SHELL -c while holding the lock")
	fs.BoolVarP(&c.Shared, "shared", "s", c.Shared, "Take a shared lock")
	fs.BoolVarP(&c.Exclusive, "exclusive", "x", c.Exclusive, "Take an exclusive lock (default)")
	fs.BoolVarP(&c.NonBlocking, "nb", "n", c.NonBlocking, "Fail rather than wait if the lock is held")
	fs.Float64VarP(&c.Timeout, "timeout", "w", c.Timeout, "Give up waiting after this many seconds (fractions allowed)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Report how long the lock took and what is executed")
	fs.BoolVarP(&c.CloseBeforeExec, "close", "o", c.CloseBeforeExec, "Do not pass the lock descriptor to the command")
	fs.IntVarP(&c.ConflictExitCode, "conflict-exit-code", "E", c.ConflictExitCode, "Exit status when the lock is not obtained")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Path to the debug log file (default: stderr)")
	fs.BoolVar(&c.Version, "version", c.Version, "Print version information and exit")
}

// Bind records what a parse of fs left behind: the positional arguments and
// whether a timeout was given at all, since --timeout has no usable zero value.
func (c *Config) Bind(fs *pflag.FlagSet, args []string) {
	c.hasTimeout = fs.Changed("timeout")
	c.args = append([]string(nil), args...)
}

// Finalize validates the configuration and resolves the positional arguments
// into a lock target and an optional command.
//
// The accepted shapes are:
//
//	--lock FILE [-c COMMAND | COMMAND [ARGS...]]
//	FILE [-c COMMAND | COMMAND [ARGS...]]
//	FD
//
// A lone numeric argument with no command is a descriptor; anything else
// names a file or directory. Failures are *errors.ConfigError wrapping
// errors.ErrUsage for a malformed invocation or errors.ErrInvalidConfiguration
// for an out-of-range value.
func (c *Config) Finalize() error {
	if c.Shared && c.Exclusive {
		return errors.NewConfigErrorf("mode", errors.ErrUsage, "--shared and --exclusive are mutually exclusive")
	}

	if c.hasTimeout {
		if math.IsNaN(c.Timeout) || math.IsInf(c.Timeout, 0) || c.Timeout <= 0 {
			return errors.NewConfigErrorf("timeout", errors.ErrInvalidConfiguration, "timeout must be greater than 0, was %f", c.Timeout)
		}
	}

	if c.ConflictExitCode < 0 || c.ConflictExitCode > 255 {
		return errors.NewConfigErrorf("conflict-exit-code", errors.ErrInvalidConfiguration, "conflict exit code must be between 0 and 255, was %d", c.ConflictExitCode)
	}

	return c.resolveTarget()
}

func (c *Config) resolveTarget() error {
	rest := c.args

	if c.LockPath == "" {
		if len(rest) == 0 {
			return errors.NewConfigErrorf("target", errors.ErrUsage, "no lock file or descriptor given")
		}

		first := rest[0]
		rest = rest[1:]

		if len(rest) == 0 && c.Script == "" && isDescriptor(first) {
			fd, err := strconv.Atoi(first)
			if err != nil {
				return errors.NewConfigErrorf("fd", errors.ErrInvalidConfiguration, "bad file descriptor: %s", first)
			}
			c.FD = fd
			return nil
		}
		c.LockPath = first
	}

	// "flock FILE -c COMMAND": with interspersed flags off, -c after the file
	// reaches us as an argument.
	if len(rest) > 0 && (rest[0] == "-c" || rest[0] == "--script") {
		if len(rest) != 2 {
			return errors.NewConfigErrorf("script", errors.ErrUsage, "%s requires exactly one command line", rest[0])
		}
		if c.Script != "" {
			return errors.NewConfigErrorf("script", errors.ErrUsage, "command line given twice")
		}
		c.Script = rest[1]
		rest = nil
	}

	if len(rest) > 0 {
		if c.Script != "" {
			return errors.NewConfigErrorf("script", errors.ErrUsage, "cannot combine --script with command arguments")
		}
		c.CommandArgs = rest
	}

	return nil
}

// HasCommand reports whether a command should run while the lock is held
func (c *Config) HasCommand() bool {
	return c.Script != "" || len(c.CommandArgs) > 0
}

// HasTimeout reports whether the wait is bounded
func (c *Config) HasTimeout() bool {
	return c.hasTimeout
}

// SetTimeout bounds the wait to seconds, as if given with --timeout
func (c *Config) SetTimeout(seconds float64) {
	c.Timeout = seconds
	c.hasTimeout = true
}

// Mode returns the requested lock mode; exclusive unless --shared was given
func (c *Config) Mode() lock.Mode {
	if c.Shared {
		return lock.Shared
	}
	return lock.Exclusive
}

// TimeoutDuration converts the configured seconds to a duration. Values too
// small to represent round up to a microsecond, the resolution of the
// interval timer flock has always used, and huge values saturate.
func (c *Config) TimeoutDuration() time.Duration {
	if !c.hasTimeout || c.Timeout <= 0 {
		return 0
	}

	ns := c.Timeout * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	d := time.Duration(ns)
	if d < time.Microsecond {
		return time.Microsecond
	}
	return d
}

func isDescriptor(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
		// For any other value, fall back to default
	}
	return defaultValue
}
