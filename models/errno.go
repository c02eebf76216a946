package models

import (
	"syscall"
)

// errno names used when the host cannot name an errno itself
var fallbackErrno = map[syscall.Errno]string{
	syscall.EPERM:        "EPERM",
	syscall.ENOEXEC:      "ENOEXEC",
	syscall.ENOENT:       "ENOENT",
	syscall.EIO:          "EIO",
	syscall.EBADF:        "EBADF",
	syscall.EAGAIN:       "EAGAIN",
	syscall.EACCES:       "EACCES",
	syscall.EFAULT:       "EFAULT",
	syscall.EEXIST:       "EEXIST",
	syscall.ENOTDIR:      "ENOTDIR",
	syscall.EISDIR:       "EISDIR",
	syscall.EINVAL:       "EINVAL",
	syscall.EMFILE:       "EMFILE",
	syscall.ENOTTY:       "ENOTTY",
	syscall.ENOSPC:       "ENOSPC",
	syscall.ESPIPE:       "ESPIPE",
	syscall.EROFS:        "EROFS",
	syscall.ERANGE:       "ERANGE",
	syscall.ENAMETOOLONG: "ENAMETOOLONG",
	syscall.ENOSYS:       "ENOSYS",
	syscall.ENOTEMPTY:    "ENOTEMPTY",
}

// ErrnoName returns the symbolic name of a host errno, such as "ENOENT".
func ErrnoName(e syscall.Errno) string {
	if name := hostErrnoName(e); name != "" {
		return name
	}
	return fallbackErrno[e]
}
