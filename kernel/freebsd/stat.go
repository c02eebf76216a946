package freebsd

import (
	"github.com/lunixbochs/sandcorn/models"
)

type timespec32 struct{ Sec, Nsec int32 }
type timespec64 struct{ Sec, Nsec int64 }

// freebsd11 struct stat on i386
type Stat32 struct {
	Dev          uint32
	Ino          uint32
	Mode         uint16
	Nlink        uint16
	Uid, Gid     uint32
	Rdev         uint32
	Atim         timespec32
	Mtim         timespec32
	Ctim         timespec32
	Size         int64
	Blocks       int64
	Blksize      uint32
	Flags        uint32
	Gen          uint32
	Lspare       int32
	Birthtim     timespec32
	BirthtimePad [8]byte
}

// freebsd11 struct stat on amd64
type Stat64 struct {
	Dev      uint32
	Ino      uint32
	Mode     uint16
	Nlink    uint16
	Uid, Gid uint32
	Rdev     uint32
	Atim     timespec64
	Mtim     timespec64
	Ctim     timespec64
	Size     int64
	Blocks   int64
	Blksize  uint32
	Flags    uint32
	Gen      uint32
	Lspare   int32
	Birthtim timespec64
}

func StatLayout(st *models.Stat, bits uint, wide bool) interface{} {
	if bits == 64 {
		return &Stat64{
			Dev: uint32(st.Dev), Ino: uint32(st.Ino), Mode: uint16(st.Mode), Nlink: uint16(st.Nlink),
			Uid: st.Uid, Gid: st.Gid, Rdev: uint32(st.Rdev),
			Atim: timespec64{st.Atime, st.AtimeNsec},
			Mtim: timespec64{st.Mtime, st.MtimeNsec},
			Ctim: timespec64{st.Ctime, st.CtimeNsec},
			Size: st.Size, Blocks: st.Blocks, Blksize: uint32(st.Blksize),
			Birthtim: timespec64{st.Ctime, st.CtimeNsec},
		}
	}
	return &Stat32{
		Dev: uint32(st.Dev), Ino: uint32(st.Ino), Mode: uint16(st.Mode), Nlink: uint16(st.Nlink),
		Uid: st.Uid, Gid: st.Gid, Rdev: uint32(st.Rdev),
		Atim: timespec32{int32(st.Atime), int32(st.AtimeNsec)},
		Mtim: timespec32{int32(st.Mtime), int32(st.MtimeNsec)},
		Ctim: timespec32{int32(st.Ctime), int32(st.CtimeNsec)},
		Size: st.Size, Blocks: st.Blocks, Blksize: uint32(st.Blksize),
		Birthtim: timespec32{int32(st.Ctime), int32(st.CtimeNsec)},
	}
}
