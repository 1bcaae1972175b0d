package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bashhack/flock/internal/child"
	"github.com/bashhack/flock/internal/config"
	"github.com/bashhack/flock/internal/lock"
)

// MockAcquirer implements the Acquirer interface for testing
type MockAcquirer struct {
	Outcome  lock.Outcome
	Err      error
	Called   bool
	Mode     lock.Mode
	Blocking bool
	Deadline lock.Deadline
}

func (m *MockAcquirer) Acquire(t *lock.Target, mode lock.Mode, blocking bool, deadline lock.Deadline) (lock.Outcome, error) {
	m.Called = true
	m.Mode = mode
	m.Blocking = blocking
	m.Deadline = deadline
	return m.Outcome, m.Err
}

// MockSupervisor implements child.Supervisor for testing
type MockSupervisor struct {
	Outcome child.Outcome
	Called  bool
	Command child.Command
}

func (m *MockSupervisor) Run(ctx context.Context, cmd child.Command) child.Outcome {
	m.Called = true
	m.Command = cmd
	return m.Outcome
}

// MockDeadline implements the Deadline interface for testing
type MockDeadline struct {
	ArmErr    error
	DisarmErr error
	ArmedWith []time.Duration
	Disarmed  int
}

func (m *MockDeadline) Expired() bool { return false }

func (m *MockDeadline) C() <-chan struct{} { return nil }

func (m *MockDeadline) Arm(d time.Duration) error {
	m.ArmedWith = append(m.ArmedWith, d)
	return m.ArmErr
}

func (m *MockDeadline) Disarm() error {
	m.Disarmed++
	return m.DisarmErr
}

func (m *MockDeadline) Armed() bool {
	return m.ArmErr == nil && len(m.ArmedWith) > m.Disarmed
}

// failingWriter fails every write
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("no space left on device")
}

// testApp bundles an App with its captured output
type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	opened int
}

// newTestApp creates an App with buffered output and no environment. Fields
// left nil in opts get real implementations from Initialize.
func newTestApp(t *testing.T, opts AppOptions) *testApp {
	t.Helper()

	ta := &testApp{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}

	if opts.Config == nil {
		opts.Config = config.New()
	}
	if opts.Stdout == nil {
		opts.Stdout = ta.stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = ta.stderr
	}
	if opts.Exit == nil {
		opts.Exit = func(int) {}
	}
	if opts.Getenv == nil {
		opts.Getenv = func(string) string { return "" }
	}

	open := opts.OpenTarget
	if open == nil {
		open = lock.Open
	}
	opts.OpenTarget = func(path string, mode lock.Mode) (*lock.Target, error) {
		ta.opened++
		return open(path, mode)
	}

	fromFD := opts.TargetFromFD
	if fromFD == nil {
		fromFD = lock.FromFD
	}
	opts.TargetFromFD = func(fd int) (*lock.Target, error) {
		ta.opened++
		return fromFD(fd)
	}

	ta.App = NewApp(opts)
	return ta
}

// steppingClock returns the given instants in order, then repeats the last
func steppingClock(instants ...time.Time) func() time.Time {
	return func() time.Time {
		now := instants[0]
		if len(instants) > 1 {
			instants = instants[1:]
		}
		return now
	}
}
