package x86_64

import (
	"syscall"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var linuxSyscalls = map[int]string{
	0:   "read",
	1:   "write",
	2:   "open",
	3:   "close",
	4:   "stat",
	5:   "fstat",
	6:   "lstat",
	8:   "lseek",
	9:   "mmap",
	10:  "mprotect",
	11:  "munmap",
	12:  "brk",
	13:  "rt_sigaction",
	14:  "rt_sigprocmask",
	16:  "ioctl",
	17:  "pread64",
	18:  "pwrite64",
	19:  "readv",
	20:  "writev",
	21:  "access",
	22:  "pipe",
	28:  "madvise",
	32:  "dup",
	33:  "dup2",
	39:  "getpid",
	59:  "execve",
	60:  "exit",
	63:  "uname",
	76:  "truncate",
	77:  "ftruncate",
	79:  "getcwd",
	80:  "chdir",
	85:  "creat",
	87:  "unlink",
	102: "getuid",
	104: "getgid",
	107: "geteuid",
	108: "getegid",
	110: "getppid",
	158: "arch_prctl",
	186: "gettid",
	218: "set_tid_address",
	231: "exit_group",
	257: "openat",
	263: "unlinkat",
	269: "faccessat",
	292: "dup3",
	293: "pipe2",
}

const (
	ARCH_SET_GS = 0x1001
	ARCH_SET_FS = 0x1002
	ARCH_GET_FS = 0x1003
	ARCH_GET_GS = 0x1004
)

// ArchPrctl handles the thread pointer codes used by libc startup.
func ArchPrctl(u models.Usercorn, a *models.Args) (uint64, error) {
	code, addr := a.Uint(0), a.Uint(1)
	switch code {
	case ARCH_SET_FS:
		return 0, u.RegWrite(uc.X86_REG_FS_BASE, addr)
	case ARCH_SET_GS:
		return 0, u.RegWrite(uc.X86_REG_GS_BASE, addr)
	case ARCH_GET_FS, ARCH_GET_GS:
		reg := uc.X86_REG_FS_BASE
		if code == ARCH_GET_GS {
			reg = uc.X86_REG_GS_BASE
		}
		val, err := u.RegRead(reg)
		if err != nil {
			return 0, err
		}
		buf, err := u.PackAddr(make([]byte, 8), val)
		if err != nil {
			return 0, err
		}
		return 0, u.MemWrite(addr, buf)
	}
	return 0, syscall.EINVAL
}

func init() {
	os := linux.NewOS(linuxSyscalls)
	os.Kernel["arch_prctl"] = models.Sys("arch_prctl", ArchPrctl, models.INT, models.ENUM, models.PTR)
	os.SyscallReg = uc.X86_REG_RAX
	os.ArgRegs = AbiRegs
	os.RetReg = uc.X86_REG_RAX
	os.OpenFlags = fs.LinuxFlags
	os.Stat = linux.StatAmd64Layout
	os.Setup = hookSyscall
	Arch.RegisterOS(os)
}
