package arm64

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var LinuxRegs = []int{uc.ARM64_REG_X0, uc.ARM64_REG_X1, uc.ARM64_REG_X2, uc.ARM64_REG_X3, uc.ARM64_REG_X4, uc.ARM64_REG_X5}

// asm-generic numbering
var linuxSyscalls = map[int]string{
	17:  "getcwd",
	23:  "dup",
	24:  "dup3",
	29:  "ioctl",
	35:  "unlinkat",
	45:  "truncate",
	46:  "ftruncate",
	48:  "faccessat",
	49:  "chdir",
	56:  "openat",
	57:  "close",
	59:  "pipe2",
	62:  "lseek",
	63:  "read",
	64:  "write",
	65:  "readv",
	66:  "writev",
	67:  "pread64",
	68:  "pwrite64",
	80:  "fstat",
	93:  "exit",
	94:  "exit_group",
	96:  "set_tid_address",
	134: "rt_sigaction",
	135: "rt_sigprocmask",
	160: "uname",
	172: "getpid",
	173: "getppid",
	174: "getuid",
	175: "geteuid",
	176: "getgid",
	177: "getegid",
	178: "gettid",
	214: "brk",
	215: "munmap",
	221: "execve",
	222: "mmap",
	226: "mprotect",
	233: "madvise",
}

func LinuxInterrupt(u models.Usercorn, intno uint32) error {
	// EXCP_SWI
	if intno == 2 {
		return u.Syscall()
	}
	return models.UnhandledInterrupt(intno)
}

func init() {
	os := linux.NewOS(linuxSyscalls)
	os.SyscallReg = uc.ARM64_REG_X8
	os.ArgRegs = LinuxRegs
	os.RetReg = uc.ARM64_REG_X0
	// arm64 uses the generic O_DIRECTORY/O_NOFOLLOW bits, which match arm
	os.OpenFlags = fs.ArmFlags
	os.Stat = linux.StatGenericLayout
	os.Interrupt = LinuxInterrupt
	Arch.RegisterOS(os)
}
