// Package logger provides logging facilities for flock.
//
// flock has three audiences for its output, and this package keeps them apart:
//
// - Scripts read stdout. It only carries verbose progress text (-v), written
//   exactly as formatted so the caller controls line layout.
// - Humans read stderr. Errors always appear there as "flock: <message>",
//   including the underlying OS error text where one exists.
// - Developers read the debug log. With --debug, every message is also recorded
//   through log/slog, to --log-file or to stderr.
//
// # Core Components
//
// - Logger: The interface injected into the rest of the application
// - DefaultLogger: Standard implementation over log/slog
//
// # Usage
//
//	log := logger.NewWithOutput(cfg.Debug, cfg.LogFile, cfg.Verbose, os.Stdout, os.Stderr)
//	defer log.Close()
//
//	log.Verbose("flock: getting lock ")
//	log.Error("cannot open lock file %s: %v", path, err)
//
// # Record Format
//
// Debug records use slog's text handler when the sink is a terminal and its
// JSON handler otherwise, so log files stay machine-readable.
//
// # Thread Safety
//
// DefaultLogger is safe for concurrent use by multiple goroutines.
package logger
