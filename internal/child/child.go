package child

import (
	"context"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bashhack/flock/internal/constants"
	"github.com/bashhack/flock/internal/errors"
	"github.com/bashhack/flock/internal/logger"
)

// Kind says how the child's story ended.
type Kind int

const (
	// NotRequested means no command was given.
	NotRequested Kind = iota
	// Exited means the child exited normally with Code.
	Exited
	// Signaled means the child was killed by Signal.
	Signaled
	// Failed means the child could not be supervised.
	Failed
)

// Outcome is the normalized result of running a command.
type Outcome struct {
	Kind   Kind
	Code   int
	Signal syscall.Signal
	Err    error
}

// None is the outcome when no command was requested.
var None = Outcome{Kind: NotRequested}

// Command is what to run while the lock is held.
type Command struct {
	Argv []string

	// Lock is the locked descriptor. Unless CloseBeforeExec is set the
	// child inherits it under the same number.
	Lock            *os.File
	CloseBeforeExec bool
}

// ShellCommand runs line through the user's shell, or /bin/sh when SHELL is
// unset or empty.
func ShellCommand(line string, getenv func(string) string) []string {
	shell := getenv("SHELL")
	if shell == "" {
		shell = constants.DefaultShell
	}
	return []string{shell, "-c", line}
}

// Supervisor runs one command and reports how it ended.
type Supervisor interface {
	Run(ctx context.Context, cmd Command) Outcome
}

// ProcessSupervisor runs commands as child processes.
type ProcessSupervisor struct {
	runner CommandRunner
	logger logger.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewProcessSupervisor creates a supervisor wired to the process's standard streams.
func NewProcessSupervisor(log logger.Logger) *ProcessSupervisor {
	return NewProcessSupervisorWithDeps(log, NewExecRunner(), os.Stdin, os.Stdout, os.Stderr)
}

// NewProcessSupervisorWithDeps creates a supervisor with custom dependencies.
func NewProcessSupervisorWithDeps(log logger.Logger, runner CommandRunner, stdin io.Reader, stdout, stderr io.Writer) *ProcessSupervisor {
	return &ProcessSupervisor{
		runner: runner,
		logger: log,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run starts the command, waits for that child alone, and normalizes its status.
func (s *ProcessSupervisor) Run(ctx context.Context, c Command) Outcome {
	if len(c.Argv) == 0 {
		return failed(errors.NewChildError("", "start", errors.New("empty command")))
	}
	name := c.Argv[0]

	if c.Lock != nil && !c.CloseBeforeExec {
		restore, err := inherit(c.Lock)
		if err != nil {
			return failed(errors.NewChildError(name, "pass lock descriptor to", err))
		}
		defer restore()
	}

	s.logger.Verbose("%s: executing %s\n", constants.ProgramName, name)

	cmd := exec.CommandContext(ctx, name, c.Argv[1:]...)
	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	if err := s.runner.Start(cmd); err != nil {
		return s.startFailure(name, err)
	}
	s.logger.Info("started %s as pid %d", name, cmd.Process.Pid)

	waitErr := s.runner.Wait(cmd)
	if cmd.ProcessState == nil {
		if waitErr == nil {
			waitErr = errors.New("no status collected")
		}
		return failed(errors.NewChildError(name, "wait for", waitErr))
	}

	outcome := fromWaitStatus(cmd.ProcessState.Sys())
	s.logger.Info("%s (pid %d) finished: %s", name, cmd.Process.Pid, cmd.ProcessState)
	if outcome.Kind == Failed {
		outcome.Err = errors.NewChildError(name, "wait for", errors.Errorf("unexpected status %s", cmd.ProcessState))
	}
	return outcome
}

// startFailure reports a command that never ran the way the child would have
// exited had exec failed inside it: resource exhaustion is an OS error,
// anything else (not found, not executable) is bad input.
func (s *ProcessSupervisor) startFailure(name string, err error) Outcome {
	s.logger.Error("failed to execute command: %s: %v", name, err)

	code := constants.ExitNoInput
	if errors.Is(err, unix.ENOMEM) || errors.Is(err, unix.EIO) || errors.Is(err, unix.EAGAIN) {
		code = constants.ExitOSErr
	}
	return Outcome{Kind: Exited, Code: code, Err: errors.NewChildError(name, "execute", err)}
}

func fromWaitStatus(sys any) Outcome {
	ws, ok := sys.(syscall.WaitStatus)
	if !ok {
		return Outcome{Kind: Failed}
	}

	switch {
	case ws.Exited():
		return Outcome{Kind: Exited, Code: ws.ExitStatus()}
	case ws.Signaled():
		return Outcome{Kind: Signaled, Signal: ws.Signal()}
	default:
		return Outcome{Kind: Failed}
	}
}

func failed(err error) Outcome {
	return Outcome{Kind: Failed, Err: errors.Errorf("%w: %w", errors.ErrSupervisorFailed, err)}
}

// inherit clears FD_CLOEXEC so the descriptor survives exec under the same
// number, and returns a func that sets it again.
func inherit(f *os.File) (func(), error) {
	fd := f.Fd()
	if _, err := unix.FcntlInt(fd, unix.F_SETFD, 0); err != nil {
		return nil, err
	}
	return func() {
		_, _ = unix.FcntlInt(fd, unix.F_SETFD, unix.FD_CLOEXEC)
	}, nil
}
