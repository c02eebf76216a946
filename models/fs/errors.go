package fs

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

var (
	ErrBadDescriptor   = errors.New("bad file descriptor")
	ErrDescriptorInUse = errors.New("file descriptor already in use")
	ErrPathEscapesJail = errors.New("path escapes jail")
	ErrNoRoot          = errors.New("no jail root configured")
	ErrNotSeekable     = errors.New("stream is not seekable")
	ErrNotTruncatable  = errors.New("stream is not truncatable")
	ErrNotStatable     = errors.New("stream cannot be stat'd")

	errIsDir  error = syscall.EISDIR
	errNotDir error = syscall.ENOTDIR
)

// IOError wraps a failure from the stream or host filesystem behind a descriptor or path.
type IOError struct {
	Op   string
	Fd   int
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s (fd %d): %v", e.Op, e.Path, e.Fd, e.Err)
	}
	return fmt.Sprintf("%s fd %d: %v", e.Op, e.Fd, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func badFd(fd int) error {
	return errors.Wrapf(ErrBadDescriptor, "fd %d", fd)
}
