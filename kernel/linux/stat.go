package linux

import (
	"github.com/lunixbochs/sandcorn/models"
)

// i386 struct stat
type Stat386 struct {
	Dev       uint32
	Ino       uint32
	Mode      uint16
	Nlink     uint16
	Uid, Gid  uint16
	Rdev      uint32
	Size      uint32
	Blksize   uint32
	Blocks    uint32
	Atime     uint32
	AtimeNsec uint32
	Mtime     uint32
	MtimeNsec uint32
	Ctime     uint32
	CtimeNsec uint32
	Unused    [2]uint32
}

// i386 struct stat64, packed
type Stat64_386 struct {
	Dev       uint64
	Pad0      [4]byte
	Ino32     uint32
	Mode      uint32
	Nlink     uint32
	Uid, Gid  uint32
	Rdev      uint64
	Pad3      [4]byte
	Size      int64
	Blksize   uint32
	Blocks    uint64
	Atime     uint32
	AtimeNsec uint32
	Mtime     uint32
	MtimeNsec uint32
	Ctime     uint32
	CtimeNsec uint32
	Ino       uint64
}

// ARM EABI struct stat64, with 8-byte alignment of the 64-bit fields
type Stat64Arm struct {
	Dev       uint64
	Pad0      [4]byte
	Ino32     uint32
	Mode      uint32
	Nlink     uint32
	Uid, Gid  uint32
	Rdev      uint64
	Pad3      [4]byte
	Pad4      [4]byte
	Size      int64
	Blksize   uint32
	Pad5      [4]byte
	Blocks    uint64
	Atime     uint32
	AtimeNsec uint32
	Mtime     uint32
	MtimeNsec uint32
	Ctime     uint32
	CtimeNsec uint32
	Ino       uint64
}

// x86_64 struct stat
type StatAmd64 struct {
	Dev       uint64
	Ino       uint64
	Nlink     uint64
	Mode      uint32
	Uid, Gid  uint32
	Pad0      int32
	Rdev      uint64
	Size      int64
	Blksize   int64
	Blocks    int64
	Atime     int64
	AtimeNsec int64
	Mtime     int64
	MtimeNsec int64
	Ctime     int64
	CtimeNsec int64
	Reserved  [3]int64
}

// asm-generic struct stat, used by arm64
type StatGeneric struct {
	Dev       uint64
	Ino       uint64
	Mode      uint32
	Nlink     uint32
	Uid, Gid  uint32
	Rdev      uint64
	Pad1      uint64
	Size      int64
	Blksize   int32
	Pad2      int32
	Blocks    int64
	Atime     int64
	AtimeNsec int64
	Mtime     int64
	MtimeNsec int64
	Ctime     int64
	CtimeNsec int64
	Unused    [2]uint32
}

// MIPS o32 struct stat
type StatMips struct {
	Dev       uint32
	Pad1      [3]uint32
	Ino       uint32
	Mode      uint32
	Nlink     uint32
	Uid, Gid  uint32
	Rdev      uint32
	Pad2      [2]uint32
	Size      int32
	Pad3      int32
	Atime     int32
	AtimeNsec int32
	Mtime     int32
	MtimeNsec int32
	Ctime     int32
	CtimeNsec int32
	Blksize   int32
	Blocks    int32
	Pad4      [14]int32
}

// MIPS o32 struct stat64
type Stat64Mips struct {
	Dev       uint32
	Pad0      [3]uint32
	Ino       uint64
	Mode      uint32
	Nlink     uint32
	Uid, Gid  uint32
	Rdev      uint32
	Pad1      [3]uint32
	Size      int64
	Atime     int32
	AtimeNsec uint32
	Mtime     int32
	MtimeNsec uint32
	Ctime     int32
	CtimeNsec uint32
	Blksize   uint32
	Pad2      uint32
	Blocks    int64
}

func Stat386Layout(st *models.Stat, bits uint, wide bool) interface{} {
	if wide {
		return &Stat64_386{
			Dev: st.Dev, Ino32: uint32(st.Ino), Mode: st.Mode, Nlink: uint32(st.Nlink),
			Uid: st.Uid, Gid: st.Gid, Rdev: st.Rdev, Size: st.Size,
			Blksize: uint32(st.Blksize), Blocks: uint64(st.Blocks),
			Atime: uint32(st.Atime), AtimeNsec: uint32(st.AtimeNsec),
			Mtime: uint32(st.Mtime), MtimeNsec: uint32(st.MtimeNsec),
			Ctime: uint32(st.Ctime), CtimeNsec: uint32(st.CtimeNsec),
			Ino: st.Ino,
		}
	}
	return &Stat386{
		Dev: uint32(st.Dev), Ino: uint32(st.Ino), Mode: uint16(st.Mode), Nlink: uint16(st.Nlink),
		Uid: uint16(st.Uid), Gid: uint16(st.Gid), Rdev: uint32(st.Rdev), Size: uint32(st.Size),
		Blksize: uint32(st.Blksize), Blocks: uint32(st.Blocks),
		Atime: uint32(st.Atime), AtimeNsec: uint32(st.AtimeNsec),
		Mtime: uint32(st.Mtime), MtimeNsec: uint32(st.MtimeNsec),
		Ctime: uint32(st.Ctime), CtimeNsec: uint32(st.CtimeNsec),
	}
}

func StatArmLayout(st *models.Stat, bits uint, wide bool) interface{} {
	if !wide {
		return Stat386Layout(st, bits, wide)
	}
	return &Stat64Arm{
		Dev: st.Dev, Ino32: uint32(st.Ino), Mode: st.Mode, Nlink: uint32(st.Nlink),
		Uid: st.Uid, Gid: st.Gid, Rdev: st.Rdev, Size: st.Size,
		Blksize: uint32(st.Blksize), Blocks: uint64(st.Blocks),
		Atime: uint32(st.Atime), AtimeNsec: uint32(st.AtimeNsec),
		Mtime: uint32(st.Mtime), MtimeNsec: uint32(st.MtimeNsec),
		Ctime: uint32(st.Ctime), CtimeNsec: uint32(st.CtimeNsec),
		Ino: st.Ino,
	}
}

func StatAmd64Layout(st *models.Stat, bits uint, wide bool) interface{} {
	return &StatAmd64{
		Dev: st.Dev, Ino: st.Ino, Nlink: st.Nlink, Mode: st.Mode,
		Uid: st.Uid, Gid: st.Gid, Rdev: st.Rdev, Size: st.Size,
		Blksize: st.Blksize, Blocks: st.Blocks,
		Atime: st.Atime, AtimeNsec: st.AtimeNsec,
		Mtime: st.Mtime, MtimeNsec: st.MtimeNsec,
		Ctime: st.Ctime, CtimeNsec: st.CtimeNsec,
	}
}

func StatGenericLayout(st *models.Stat, bits uint, wide bool) interface{} {
	return &StatGeneric{
		Dev: st.Dev, Ino: st.Ino, Mode: st.Mode, Nlink: uint32(st.Nlink),
		Uid: st.Uid, Gid: st.Gid, Rdev: st.Rdev, Size: st.Size,
		Blksize: int32(st.Blksize), Blocks: st.Blocks,
		Atime: st.Atime, AtimeNsec: st.AtimeNsec,
		Mtime: st.Mtime, MtimeNsec: st.MtimeNsec,
		Ctime: st.Ctime, CtimeNsec: st.CtimeNsec,
	}
}

func StatMipsLayout(st *models.Stat, bits uint, wide bool) interface{} {
	if wide {
		return &Stat64Mips{
			Dev: uint32(st.Dev), Ino: st.Ino, Mode: st.Mode, Nlink: uint32(st.Nlink),
			Uid: st.Uid, Gid: st.Gid, Rdev: uint32(st.Rdev), Size: st.Size,
			Atime: int32(st.Atime), AtimeNsec: uint32(st.AtimeNsec),
			Mtime: int32(st.Mtime), MtimeNsec: uint32(st.MtimeNsec),
			Ctime: int32(st.Ctime), CtimeNsec: uint32(st.CtimeNsec),
			Blksize: uint32(st.Blksize), Blocks: st.Blocks,
		}
	}
	return &StatMips{
		Dev: uint32(st.Dev), Ino: uint32(st.Ino), Mode: st.Mode, Nlink: uint32(st.Nlink),
		Uid: st.Uid, Gid: st.Gid, Rdev: uint32(st.Rdev), Size: int32(st.Size),
		Atime: int32(st.Atime), AtimeNsec: int32(st.AtimeNsec),
		Mtime: int32(st.Mtime), MtimeNsec: int32(st.MtimeNsec),
		Ctime: int32(st.Ctime), CtimeNsec: int32(st.CtimeNsec),
		Blksize: int32(st.Blksize), Blocks: int32(st.Blocks),
	}
}
