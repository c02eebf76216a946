//go:build !(linux || darwin || freebsd)

package models

import "syscall"

func hostErrnoName(e syscall.Errno) string {
	return ""
}
