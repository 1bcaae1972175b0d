package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrUsage indicates a bad command-line invocation
	ErrUsage = errors.New("usage error")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOpenFailed indicates the lock file could not be opened or created
	ErrOpenFailed = errors.New("cannot open lock file")

	// ErrLockFailed indicates the lock system call failed for a reason other than contention
	ErrLockFailed = errors.New("failed to acquire lock")

	// ErrWouldBlock indicates a non-blocking request found the lock held
	ErrWouldBlock = errors.New("lock is held by another process")

	// ErrTimedOut indicates the deadline passed before the lock was granted
	ErrTimedOut = errors.New("timed out waiting for lock")

	// ErrTimerFailed indicates the timeout could not be armed or disarmed
	ErrTimerFailed = errors.New("timer facility failure")

	// ErrSupervisorFailed indicates the child command could not be started or waited on
	ErrSupervisorFailed = errors.New("child supervision failed")
)

// New creates a new error with the given message.
// This is a convenience function that wraps errors.New.
func New(message string) error {
	return errors.New(message)
}

// Errorf creates a new formatted error.
// This is a convenience function that wraps fmt.Errorf.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether target is in err's chain.
// This is a convenience function that wraps errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience function that wraps errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// OpenClass groups open(2) failures by how a calling script should react.
type OpenClass int

const (
	// InvalidInput covers missing directories, permissions and bad paths.
	InvalidInput OpenClass = iota
	// OutOfResources covers memory and descriptor-table exhaustion.
	OutOfResources
	// CannotCreate covers read-only filesystems and full disks.
	CannotCreate
)

func (c OpenClass) String() string {
	switch c {
	case OutOfResources:
		return "OS error"
	case CannotCreate:
		return "could not create file"
	default:
		return "invalid input"
	}
}

// OpenError represents a failure to open or create the lock file.
type OpenError struct {
	Path  string
	Class OpenClass
	Err   error
}

// Error implements the error interface, keeping the OS error text visible.
func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open lock file %s: %s: %v", e.Path, e.Class, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// Is makes every OpenError match ErrOpenFailed.
func (e *OpenError) Is(target error) bool {
	return target == ErrOpenFailed
}

// NewOpenError creates a new OpenError with the given parameters.
func NewOpenError(path string, class OpenClass, err error) *OpenError {
	return &OpenError{
		Path:  path,
		Class: class,
		Err:   err,
	}
}

// LockError represents an error that occurred when interacting with file locks.
// It includes the lock target name, the descriptor if known, and underlying error.
type LockError struct {
	LockFile string
	FD       int
	Err      error
}

// Error implements the error interface with details about the lock target.
func (e *LockError) Error() string {
	if e.FD >= 0 {
		return fmt.Sprintf("lock error with file %s (fd: %d): %v", e.LockFile, e.FD, e.Err)
	}
	return fmt.Sprintf("lock error with file %s: %v", e.LockFile, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LockError) Unwrap() error {
	return e.Err
}

// NewLockError creates a new LockError with the given parameters.
func NewLockError(lockFile string, fd int, err error) *LockError {
	return &LockError{
		LockFile: lockFile,
		FD:       fd,
		Err:      err,
	}
}

// ConfigError represents an error in the application configuration.
// It includes the parameter name, its value if available, and the underlying error.
type ConfigError struct {
	Parameter string
	Value     interface{}
	Err       error

	// Reason, when set, is the whole user-facing message. Err then only
	// classifies the failure for errors.Is and its text is not repeated.
	Reason string
}

// Error implements the error interface with details about the invalid configuration.
func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError with the given parameters.
func NewConfigError(parameter string, value interface{}, err error) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       err,
	}
}

// NewConfigErrorf creates a ConfigError whose message is the formatted reason
// and whose chain matches sentinel.
func NewConfigErrorf(parameter string, sentinel error, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Err:       sentinel,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// ChildError represents a failure to run the supervised command.
type ChildError struct {
	Command string
	Op      string
	Err     error
}

// Error implements the error interface, naming the failed step.
func (e *ChildError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Command, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ChildError) Unwrap() error {
	return e.Err
}

// NewChildError creates a new ChildError with the given parameters.
func NewChildError(command, op string, err error) *ChildError {
	return &ChildError{
		Command: command,
		Op:      op,
		Err:     err,
	}
}

// ExitError is an error that carries the process exit code it should produce.
type ExitError struct {
	Code  int
	Cause error
}

func (e *ExitError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Cause.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// WithExitCode attaches an exit code to err.
func WithExitCode(code int, err error) *ExitError {
	return &ExitError{Code: code, Cause: err}
}
