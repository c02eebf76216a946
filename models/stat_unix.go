//go:build linux || darwin || freebsd

package models

import (
	"os"
	"syscall"
)

func hostStat(st *Stat, fi os.FileInfo) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	st.Dev = uint64(sys.Dev)
	st.Ino = uint64(sys.Ino)
	st.Nlink = uint64(sys.Nlink)
	st.Mode = uint32(sys.Mode)
	st.Uid = sys.Uid
	st.Gid = sys.Gid
	st.Rdev = uint64(sys.Rdev)
	st.Blksize = int64(sys.Blksize)
	st.Blocks = int64(sys.Blocks)
}
