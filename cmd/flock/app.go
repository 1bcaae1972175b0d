package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bashhack/flock/internal/child"
	"github.com/bashhack/flock/internal/config"
	"github.com/bashhack/flock/internal/constants"
	"github.com/bashhack/flock/internal/errors"
	"github.com/bashhack/flock/internal/exitcode"
	"github.com/bashhack/flock/internal/lock"
	"github.com/bashhack/flock/internal/logger"
	"github.com/bashhack/flock/internal/timeout"
)

// Acquirer takes the lock on an open target
type Acquirer interface {
	Acquire(t *lock.Target, mode lock.Mode, blocking bool, deadline lock.Deadline) (lock.Outcome, error)
}

// Deadline bounds the wait for the lock
type Deadline interface {
	lock.Deadline
	Arm(d time.Duration) error
	Disarm() error
	Armed() bool
}

// Logger alias to logger.Logger
type Logger = logger.Logger

// AppOptions contains app configuration and dependencies
type AppOptions struct {
	// Required
	Config *config.Config

	// Optional components
	Logger     Logger
	Acquirer   Acquirer
	Deadline   Deadline
	Supervisor child.Supervisor

	// I/O dependencies
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	Exit         func(code int)
	Now          func() time.Time
	Getenv       func(key string) string
	OpenTarget   func(path string, mode lock.Mode) (*lock.Target, error)
	TargetFromFD func(fd int) (*lock.Target, error)
}

// App is the flock application
type App struct {
	Config     *config.Config
	Logger     Logger
	Acquirer   Acquirer
	Deadline   Deadline
	Supervisor child.Supervisor

	// I/O streams. Output written by flock itself goes through the tracking
	// writers; the raw streams are handed to the child unchanged.
	Stdout io.Writer
	Stderr io.Writer
	stdout *trackingWriter
	stderr *trackingWriter

	// System dependencies
	exit         func(code int)
	now          func() time.Time
	getenv       func(key string) string
	openTarget   func(path string, mode lock.Mode) (*lock.Target, error)
	targetFromFD func(fd int) (*lock.Target, error)

	target *lock.Target
	code   int
}

// NewDefaultApp creates an App with standard dependencies
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	cfg := config.New()
	cfg.VersionInfo = versionInfo
	cfg.LoadFromEnvironment()

	opts := AppOptions{
		Config:       cfg,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		Now:          time.Now,
		Getenv:       os.Getenv,
		OpenTarget:   lock.Open,
		TargetFromFD: lock.FromFD,
	}

	return NewApp(opts)
}

// NewApp creates an App with custom dependencies
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Acquirer:     opts.Acquirer,
		Deadline:     opts.Deadline,
		Supervisor:   opts.Supervisor,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		now:          opts.Now,
		getenv:       opts.Getenv,
		openTarget:   opts.OpenTarget,
		targetFromFD: opts.TargetFromFD,
	}

	// Set defaults for nil dependencies
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.now == nil {
		app.now = time.Now
	}
	if app.getenv == nil {
		app.getenv = os.Getenv
	}
	if app.openTarget == nil {
		app.openTarget = lock.Open
	}
	if app.targetFromFD == nil {
		app.targetFromFD = lock.FromFD
	}

	app.stdout = &trackingWriter{w: app.Stdout}
	app.stderr = &trackingWriter{w: app.Stderr}

	return app
}

// Initialize validates the configuration and sets up components not provided
// during construction
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		return err
	}

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, a.Config.Verbose, a.stdout, a.stderr)
	}

	if a.Acquirer == nil {
		a.Acquirer = lock.NewAcquirer(a.Logger)
	}

	if a.Deadline == nil {
		a.Deadline = timeout.New()
	}

	if a.Supervisor == nil {
		if a.Stdout == os.Stdout && a.Stderr == os.Stderr {
			a.Supervisor = child.NewProcessSupervisor(a.Logger)
		} else {
			a.Supervisor = child.NewProcessSupervisorWithDeps(a.Logger, child.NewExecRunner(), os.Stdin, a.Stdout, a.Stderr)
		}
	}

	return nil
}

// Execute parses args (without the program name), runs flock and returns the
// exit status. Without any arguments it returns the usage status at once.
func (a *App) Execute(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return constants.ExitUsage
	}

	a.code = constants.ExitOK

	cmd := a.newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		// a lock that was not obtained is reported through the status alone
		if !isConflict(err) {
			_, _ = fmt.Fprintf(a.stderr, "%s: %v\n", constants.ProgramName, err)
		}
		a.code = exitcode.For(err)
	}

	if err := a.Close(); err != nil && a.code == constants.ExitOK {
		a.code = constants.ExitOSErr
	}

	if a.stdout.Failed() || a.stderr.Failed() {
		_, _ = fmt.Fprintf(a.Stderr, "%s: write error\n", constants.ProgramName)
		return constants.ExitFailure
	}

	return a.code
}

func (a *App) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "flock [options] -l FILE [-c COMMAND]\n  flock [options] FILE|DIR [-c COMMAND | COMMAND [ARGS...]]\n  flock [options] FD",
		Short:         "Manage advisory file locks from shell scripts",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Config.Bind(cmd.Flags(), args)

			code, err := a.Run(cmd.Context())
			a.code = code
			return err
		},
	}

	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().SortFlags = false
	a.Config.SetupFlags(cmd.Flags())

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewConfigErrorf("flags", errors.ErrUsage, "%v", err)
	})

	return cmd
}

// Run takes the lock, runs the command if one was given, and returns the exit
// status. Errors returned alongside the status have not been reported yet.
func (a *App) Run(ctx context.Context) (int, error) {
	// Handle special flags first
	if a.Config.Version {
		a.ShowVersion()
		return constants.ExitOK, nil
	}

	if err := a.Initialize(); err != nil {
		return constants.ExitUsage, err
	}

	cfg := a.Config
	mode := cfg.Mode()

	if cfg.CloseBeforeExec && !cfg.HasCommand() {
		a.Logger.Warning("--close has no effect without a command")
	}
	if cfg.NonBlocking && cfg.HasTimeout() {
		a.Logger.Warning("--timeout has no effect with --nb")
	}

	a.Logger.Verbose("%s: getting lock ", constants.ProgramName)
	start := a.now()

	target, err := a.open(mode)
	if err != nil {
		a.Logger.Verbose("\n")
		return exitcode.For(err), err
	}
	a.target = target

	deadline := lock.NoDeadline
	if cfg.HasTimeout() {
		if err := a.Deadline.Arm(cfg.TimeoutDuration()); err != nil {
			a.Logger.Verbose("\n")
			return constants.ExitOSErr, err
		}
		deadline = a.Deadline
	}

	outcome, lockErr := a.Acquirer.Acquire(target, mode, !cfg.NonBlocking, deadline)

	if a.Deadline.Armed() {
		if err := a.Deadline.Disarm(); err != nil && lockErr == nil {
			lockErr = errors.Wrap(err, "could not reset old interval timer")
			outcome = lock.OSFailure
		}
	}

	if outcome != lock.Acquired {
		a.Logger.Verbose("\n")
		a.Logger.Info("lock on %s not obtained: %s", target.Name, outcome)
		code := exitcode.Map(outcome, child.None, cfg.ConflictExitCode)
		switch outcome {
		case lock.WouldBlock:
			lockErr = errors.WithExitCode(code, errors.Wrap(errors.ErrWouldBlock, target.Name))
		case lock.TimedOut:
			lockErr = errors.WithExitCode(code, errors.Wrap(errors.ErrTimedOut, target.Name))
		}
		return code, lockErr
	}

	a.Logger.Verbose("took %d microseconds\n", elapsedMicros(start, a.now()))

	result := child.None
	if cfg.HasCommand() {
		result = a.Supervisor.Run(ctx, child.Command{
			Argv:            a.command(),
			Lock:            target.File,
			CloseBeforeExec: cfg.CloseBeforeExec,
		})
		if result.Kind == child.Failed {
			a.Logger.Error("%v", result.Err)
		}
	}

	return exitcode.Map(outcome, result, cfg.ConflictExitCode), nil
}

// isConflict reports whether err only says the lock was held elsewhere
func isConflict(err error) bool {
	return errors.Is(err, errors.ErrWouldBlock) || errors.Is(err, errors.ErrTimedOut)
}

func (a *App) open(mode lock.Mode) (*lock.Target, error) {
	if a.Config.LockPath != "" {
		return a.openTarget(a.Config.LockPath, mode)
	}
	return a.targetFromFD(a.Config.FD)
}

func (a *App) command() []string {
	if a.Config.Script != "" {
		return child.ShellCommand(a.Config.Script, a.getenv)
	}
	return a.Config.CommandArgs
}

// elapsedMicros is the whole number of microseconds between two instants,
// never negative even if the clock steps backwards.
func elapsedMicros(start, end time.Time) int64 {
	us := end.Sub(start).Microseconds()
	if us < 0 {
		return 0
	}
	return us
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.stdout, "%s %s (%s) built on %s\n",
		constants.ProgramName,
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// Close releases resources held by the App. The lock itself goes with the
// descriptor, unless a child kept a copy.
func (a *App) Close() error {
	var errs []error

	if a.target != nil {
		if err := a.target.Close(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("%v", err)
			} else {
				_, _ = fmt.Fprintf(a.stderr, "%s: %v\n", constants.ProgramName, err)
			}
			errs = append(errs, err)
		}
		a.target = nil
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.stderr, "%s: failed to close log: %v\n", constants.ProgramName, err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// trackingWriter remembers whether any write failed, so a full disk or a
// revoked descriptor still shows in the exit status. A closed pipe on stdout
// or stderr never gets here: without signal.Notify for SIGPIPE the runtime
// kills the process on EPIPE before Write returns.
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}

// Failed reports whether a write has failed
func (t *trackingWriter) Failed() bool {
	return t.err != nil
}
