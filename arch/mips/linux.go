package mips

import (
	sysnum "github.com/lunixbochs/ghostrace/ghost/sys/num"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var LinuxRegs = []int{uc.MIPS_REG_A0, uc.MIPS_REG_A1, uc.MIPS_REG_A2, uc.MIPS_REG_A3}

// o32 numbers, offset by 4000 when installed
var linuxSyscalls = map[int]string{
	1:   "exit",
	3:   "read",
	4:   "write",
	5:   "open",
	6:   "close",
	8:   "creat",
	10:  "unlink",
	11:  "execve",
	12:  "chdir",
	19:  "lseek",
	20:  "getpid",
	24:  "getuid",
	33:  "access",
	41:  "dup",
	42:  "pipe",
	45:  "brk",
	47:  "getgid",
	49:  "geteuid",
	50:  "getegid",
	54:  "ioctl",
	63:  "dup2",
	64:  "getppid",
	90:  "mmap",
	91:  "munmap",
	92:  "truncate",
	93:  "ftruncate",
	106: "stat",
	107: "lstat",
	108: "fstat",
	122: "uname",
	125: "mprotect",
	140: "_llseek",
	145: "readv",
	146: "writev",
	194: "rt_sigaction",
	195: "rt_sigprocmask",
	200: "pread64",
	201: "pwrite64",
	203: "getcwd",
	210: "mmap2",
	213: "stat64",
	214: "lstat64",
	215: "fstat64",
	218: "madvise",
	222: "gettid",
	246: "exit_group",
	252: "set_tid_address",
	283: "set_thread_area",
	288: "openat",
	294: "unlinkat",
	300: "faccessat",
	327: "dup3",
	328: "pipe2",
}

func o32(table map[int]string) map[int]string {
	ret := make(map[int]string, len(table))
	for n, name := range table {
		ret[4000+n] = name
	}
	return ret
}

// SetReturn reports failure in a3, with the positive errno in v0.
func SetReturn(u models.Usercorn, ret uint64, errno int) error {
	var flag uint64
	if errno != 0 {
		ret, flag = uint64(errno), 1
	}
	if err := u.RegWrite(uc.MIPS_REG_A3, flag); err != nil {
		return err
	}
	return u.RegWrite(uc.MIPS_REG_V0, ret)
}

// Pipe returns the read end in v0 and the write end in v1.
func Pipe(u models.Usercorn, a *models.Args) (uint64, error) {
	r, w, err := u.Files().Pipe()
	if err != nil {
		return 0, err
	}
	if err := u.RegWrite(uc.MIPS_REG_V1, uint64(w)); err != nil {
		return 0, err
	}
	return uint64(r), nil
}

func LinuxInterrupt(u models.Usercorn, cause uint32) error {
	// EXCP_SYSCALL
	if intno := (cause >> 1) & 15; intno == 8 {
		return u.Syscall()
	}
	return models.UnhandledInterrupt(cause)
}

func newLinux() *models.OS {
	os := linux.NewOS(o32(linuxSyscalls))
	os.Names = sysnum.Linux_mips
	os.SyscallReg = uc.MIPS_REG_V0
	os.ArgRegs = LinuxRegs
	// arguments 5 and up sit above the 16-byte register save area
	os.StackArgs = true
	os.StackSkip = 16
	os.RetReg = uc.MIPS_REG_V0
	os.Errno = linux.MipsErrno
	os.OpenFlags = fs.MipsFlags
	os.MapAnon = 0x800
	os.Stat = linux.StatMipsLayout
	os.SetReturn = SetReturn
	os.Interrupt = LinuxInterrupt
	os.Kernel["pipe"] = models.Sys("pipe", Pipe, models.FD)
	os.Kernel["pread64"] = posix.DropArg(3, os.Kernel["pread64"])
	os.Kernel["pwrite64"] = posix.DropArg(3, os.Kernel["pwrite64"])
	return os
}

func init() {
	Arch.RegisterOS(newLinux())
	ArchLE.RegisterOS(newLinux())
}
