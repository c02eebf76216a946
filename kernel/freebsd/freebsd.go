package freebsd

import (
	"bytes"

	"github.com/lunixbochs/struc"

	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

const (
	Sysname = "FreeBSD"
	Release = "12.2-RELEASE"
	// SYS_NMLN
	utsLen = 256
)

var Errno = map[string]int{
	"EPERM":        1,
	"ENOENT":       2,
	"ESRCH":        3,
	"EINTR":        4,
	"EIO":          5,
	"ENXIO":        6,
	"E2BIG":        7,
	"ENOEXEC":      8,
	"EBADF":        9,
	"ECHILD":       10,
	"EDEADLK":      11,
	"ENOMEM":       12,
	"EACCES":       13,
	"EFAULT":       14,
	"EBUSY":        16,
	"EEXIST":       17,
	"EXDEV":        18,
	"ENODEV":       19,
	"ENOTDIR":      20,
	"EISDIR":       21,
	"EINVAL":       22,
	"ENFILE":       23,
	"EMFILE":       24,
	"ENOTTY":       25,
	"EFBIG":        27,
	"ENOSPC":       28,
	"ESPIPE":       29,
	"EROFS":        30,
	"EMLINK":       31,
	"EPIPE":        32,
	"ERANGE":       34,
	"EAGAIN":       35,
	"ELOOP":        62,
	"ENAMETOOLONG": 63,
	"ENOTEMPTY":    66,
	"ENOSYS":       78,
}

// Syscalls is shared by the i386 and amd64 ABIs.
var Syscalls = map[int]string{
	1:   "exit",
	3:   "read",
	4:   "write",
	5:   "open",
	6:   "close",
	10:  "unlink",
	12:  "chdir",
	20:  "getpid",
	24:  "getuid",
	25:  "geteuid",
	33:  "access",
	39:  "getppid",
	41:  "dup",
	43:  "getegid",
	47:  "getgid",
	54:  "ioctl",
	59:  "execve",
	73:  "munmap",
	74:  "mprotect",
	90:  "dup2",
	120: "readv",
	121: "writev",
	188: "stat",
	189: "fstat",
	190: "lstat",
	326: "getcwd",
	475: "pread64",
	476: "pwrite64",
	477: "mmap",
	478: "lseek",
	479: "truncate",
	480: "ftruncate",
	489: "faccessat",
	499: "openat",
	503: "unlinkat",
	542: "pipe2",
}

// CarryReturn reports failure through the carry bit of flagsReg, with the
// positive errno in the return register.
func CarryReturn(flagsReg int) func(u models.Usercorn, ret uint64, errno int) error {
	return func(u models.Usercorn, ret uint64, errno int) error {
		flags, err := u.RegRead(flagsReg)
		if err != nil {
			return err
		}
		if errno != 0 {
			ret = uint64(errno)
			flags |= 1
		} else {
			flags &^= 1
		}
		if err := u.RegWrite(flagsReg, flags); err != nil {
			return err
		}
		return u.RegWrite(u.OS().RetReg, ret)
	}
}

// Getcwd is __getcwd, which returns 0 rather than the length.
func Getcwd(u models.Usercorn, a *models.Args) (uint64, error) {
	_, err := posix.Getcwd(u, a)
	return 0, err
}

type auxv32 struct{ Type, Val uint32 }
type auxv64 struct{ Type, Val uint64 }

const (
	atNull   = 0
	atPagesz = 6
	atEntry  = 9
)

func auxv(u models.Usercorn) ([]byte, error) {
	table := [][2]uint64{{atPagesz, 4096}, {atEntry, u.Entry()}, {atNull, 0}}
	var buf bytes.Buffer
	for _, a := range table {
		var v interface{} = &auxv64{a[0], a[1]}
		if u.Bits() == 32 {
			v = &auxv32{uint32(a[0]), uint32(a[1])}
		}
		if err := struc.PackWithOrder(&buf, v, u.ByteOrder()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func StackInit(u models.Usercorn, argv, env []string) error {
	if err := posix.MapStack(u); err != nil {
		return err
	}
	return posix.StackInit(u, argv, env, func() ([]byte, error) { return auxv(u) })
}

// NewOS builds a FreeBSD descriptor. Callers set registers and SetReturn.
func NewOS() *models.OS {
	kernel := posix.Kernel()
	kernel["getcwd"] = models.Sys("getcwd", Getcwd, models.INT, models.OBUF, models.LEN)
	return &models.OS{
		Name:      "freebsd",
		Syscalls:  Syscalls,
		Kernel:    kernel,
		Errno:     Errno,
		OpenFlags: fs.FreeBSDFlags,
		MapAnon:   0x1000,
		Sysname:   Sysname,
		Release:   Release,
		UtsLen:    utsLen,
		Init:      StackInit,
		Stat:      StatLayout,
	}
}
