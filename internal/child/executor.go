package child

import (
	"os/exec"
)

// CommandRunner starts and waits for a prepared command
type CommandRunner interface {
	// Start launches cmd without waiting for it
	Start(cmd *exec.Cmd) error

	// Wait blocks until cmd's process has terminated and its status is collected
	Wait(cmd *exec.Cmd) error
}

// ExecRunner is the default implementation of CommandRunner
// that delegates to the os/exec package
type ExecRunner struct{}

// Start implements CommandRunner.Start
func (r *ExecRunner) Start(cmd *exec.Cmd) error {
	return cmd.Start()
}

// Wait implements CommandRunner.Wait.
// exec.Cmd.Wait waits on this child's pid only and retries EINTR.
func (r *ExecRunner) Wait(cmd *exec.Cmd) error {
	return cmd.Wait()
}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}
