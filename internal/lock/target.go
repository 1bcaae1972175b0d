package lock

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bashhack/flock/internal/errors"
)

// Target is the open handle a lock is taken on.
type Target struct {
	File     *os.File
	Name     string
	Writable bool

	// borrowed is set when the descriptor was handed to us already open.
	borrowed bool
}

// Open opens or creates path for locking in the given mode.
//
// The file is opened read-only for shared locks and when path is not writable,
// since some systems allow exclusive locks on read-only files. A directory is
// reopened read-only without O_CREAT. Failures are returned as *errors.OpenError.
func Open(path string, mode Mode) (*Target, error) {
	writable := mode == Exclusive && unix.Access(path, unix.W_OK) == nil

	flags := os.O_RDONLY | os.O_CREATE | syscall.O_NOCTTY
	if writable {
		flags = os.O_WRONLY | os.O_CREATE | syscall.O_NOCTTY
	}

	f, err := os.OpenFile(path, flags, 0666)
	if err != nil && errors.Is(err, unix.EISDIR) {
		writable = false
		f, err = os.OpenFile(path, os.O_RDONLY|syscall.O_NOCTTY, 0)
	}
	if err != nil {
		return nil, errors.NewOpenError(path, classifyOpenError(err), unwrapErrno(err))
	}

	return &Target{File: f, Name: path, Writable: writable}, nil
}

// FromFD wraps a descriptor inherited from the caller, as in "exec 9>file; flock 9".
func FromFD(fd int) (*Target, error) {
	if fd < 0 {
		return nil, errors.Wrapf(errors.ErrUsage, "bad file descriptor: %d", fd)
	}

	fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, errors.Errorf("bad file descriptor %d: %w: %w", fd, errors.ErrUsage, err)
	}

	name := fmt.Sprintf("fd %d", fd)
	return &Target{
		File:     os.NewFile(uintptr(fd), name),
		Name:     name,
		Writable: fl&unix.O_ACCMODE != unix.O_RDONLY,
		borrowed: true,
	}, nil
}

// FD returns the descriptor number, or -1 for a nil or closed target.
func (t *Target) FD() int {
	if t == nil || t.File == nil {
		return -1
	}
	return int(t.File.Fd())
}

// Borrowed reports whether the descriptor came from the caller.
func (t *Target) Borrowed() bool {
	return t.borrowed
}

// Close closes the handle, which releases any lock taken through it
// unless another process still shares the open file description.
func (t *Target) Close() error {
	if t == nil || t.File == nil {
		return nil
	}
	err := t.File.Close()
	t.File = nil
	if err != nil {
		return errors.NewLockError(t.Name, -1, errors.Wrap(err, "failed to close lock file"))
	}
	return nil
}

// classifyOpenError sorts open(2) failures the way scripts branch on them.
func classifyOpenError(err error) errors.OpenClass {
	switch unwrapErrno(err) {
	case unix.ENOMEM, unix.EMFILE, unix.ENFILE:
		return errors.OutOfResources
	case unix.EROFS, unix.ENOSPC:
		return errors.CannotCreate
	default:
		return errors.InvalidInput
	}
}

// unwrapErrno returns the errno inside err, or err itself if there is none.
func unwrapErrno(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return err
}
