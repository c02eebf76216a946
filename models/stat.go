package models

import (
	"os"
)

// Stat is a host-neutral view of file metadata, converted to a guest layout by OS.Stat.
type Stat struct {
	Dev, Ino, Nlink uint64
	Mode            uint32
	Uid, Gid        uint32
	Rdev            uint64
	Size            int64
	Blksize         int64
	Blocks          int64
	Atime, Mtime    int64
	Ctime           int64
	AtimeNsec       int64
	MtimeNsec       int64
	CtimeNsec       int64
}

// st_mode file type bits
const (
	S_IFMT   = 0170000
	S_IFSOCK = 0140000
	S_IFLNK  = 0120000
	S_IFREG  = 0100000
	S_IFBLK  = 0060000
	S_IFDIR  = 0040000
	S_IFCHR  = 0020000
	S_IFIFO  = 0010000
)

func modeBits(m os.FileMode) uint32 {
	mode := uint32(m.Perm())
	switch {
	case m&os.ModeDir != 0:
		mode |= S_IFDIR
	case m&os.ModeSymlink != 0:
		mode |= S_IFLNK
	case m&os.ModeNamedPipe != 0:
		mode |= S_IFIFO
	case m&os.ModeSocket != 0:
		mode |= S_IFSOCK
	case m&os.ModeCharDevice != 0:
		mode |= S_IFCHR
	case m&os.ModeDevice != 0:
		mode |= S_IFBLK
	default:
		mode |= S_IFREG
	}
	if m&os.ModeSetuid != 0 {
		mode |= 04000
	}
	if m&os.ModeSetgid != 0 {
		mode |= 02000
	}
	if m&os.ModeSticky != 0 {
		mode |= 01000
	}
	return mode
}

func NewStat(fi os.FileInfo) *Stat {
	mtime := fi.ModTime()
	st := &Stat{
		Nlink:     1,
		Mode:      modeBits(fi.Mode()),
		Size:      fi.Size(),
		Blksize:   4096,
		Blocks:    (fi.Size() + 511) / 512,
		Mtime:     mtime.Unix(),
		MtimeNsec: int64(mtime.Nanosecond()),
	}
	st.Atime, st.AtimeNsec = st.Mtime, st.MtimeNsec
	st.Ctime, st.CtimeNsec = st.Mtime, st.MtimeNsec
	hostStat(st, fi)
	return st
}
