//go:build linux || darwin || freebsd

package models

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func hostErrnoName(e syscall.Errno) string {
	return unix.ErrnoName(e)
}
