package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/term"

	"github.com/bashhack/flock/internal/constants"
)

// Logger defines the logging interface used throughout flock.
// Debug records go to a structured log (when enabled); diagnostics meant for
// the caller go to stderr prefixed with the program name, and verbose
// progress output goes to stdout.
type Logger interface {
	// Info records a debug-only message. Nothing is shown to the user.
	Info(format string, args ...interface{})

	// Warning records a message and shows it on stderr in verbose mode.
	Warning(format string, args ...interface{})

	// Error records a message and always shows it on stderr as "flock: <msg>".
	Error(format string, args ...interface{})

	// Verbose writes the formatted text to stdout, unchanged, when verbose
	// mode is on. The caller controls line breaks.
	Verbose(format string, args ...interface{})

	// Close flushes and closes the debug log file, if any.
	Close() error
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// NewWithOutput creates a DefaultLogger with custom output writers.
// With enabled set and an empty logFile, debug records go to stderr.
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	var (
		logger *slog.Logger
		file   *os.File
	)

	switch {
	case enabled && logFile != "":
		logDir := filepath.Dir(logFile)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				_, _ = fmt.Fprintf(stderr, "%s: failed to create log directory: %v\n", constants.ProgramName, err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			file = f
			logger = slog.New(newHandler(f, opts))
		} else {
			logger = slog.New(newHandler(stderr, opts))
			_, _ = fmt.Fprintf(stderr, "%s: failed to open log file: %v, using stderr instead\n", constants.ProgramName, err)
		}
	case enabled:
		logger = slog.New(newHandler(stderr, opts))
	default:
		logger = slog.New(slog.NewTextHandler(io.Discard, opts))
	}

	if enabled {
		logger.Debug("flock debug logging started", "pid", os.Getpid())
	}

	return &DefaultLogger{
		logger:  logger,
		enabled: enabled,
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
	}
}

// newHandler emits human-readable text on a terminal and JSON everywhere else.
func newHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Info logs a debug message (log only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	l.logger.Info(fmt.Sprintf(format, args...))
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Warn(msg)
	}

	if l.verbose {
		_, _ = fmt.Fprintf(l.stderr, "%s: %s\n", constants.ProgramName, msg)
	}
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	if l.enabled {
		l.logger.Error(msg)
	}

	// Always show errors to the user regardless of debug status
	_, _ = fmt.Fprintf(l.stderr, "%s: %s\n", constants.ProgramName, msg)
}

// Verbose writes progress output to stdout in verbose mode
func (l *DefaultLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.verbose {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Debug("verbose", "text", msg)
	}
	_, _ = fmt.Fprint(l.stdout, msg)
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return err
		}
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
