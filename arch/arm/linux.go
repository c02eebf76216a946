package arm

import (
	sysnum "github.com/lunixbochs/ghostrace/ghost/sys/num"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var LinuxRegs = []int{uc.ARM_REG_R0, uc.ARM_REG_R1, uc.ARM_REG_R2, uc.ARM_REG_R3, uc.ARM_REG_R4, uc.ARM_REG_R5, uc.ARM_REG_R6}

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
	33:  "access",
	41:  "dup",
	42:  "pipe",
	45:  "brk",
	54:  "ioctl",
	63:  "dup2",
	64:  "getppid",
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
	174: "rt_sigaction",
	175: "rt_sigprocmask",
	180: "pread64",
	181: "pwrite64",
	183: "getcwd",
	192: "mmap2",
	195: "stat64",
	196: "lstat64",
	197: "fstat64",
	199: "getuid",
	200: "getgid",
	201: "geteuid",
	202: "getegid",
	220: "madvise",
	224: "gettid",
	248: "exit_group",
	256: "set_tid_address",
	322: "openat",
	328: "unlinkat",
	334: "faccessat",
	358: "dup3",
	359: "pipe2",
}

// OABI binaries encode the number as 0x900000+n
func syscallNum(u models.Usercorn, raw uint64) int {
	if raw >= 0x900000 {
		raw -= 0x900000
	}
	return int(raw)
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
	os.Names = sysnum.Linux_arm
	os.SyscallReg = uc.ARM_REG_R7
	os.ArgRegs = LinuxRegs
	os.RetReg = uc.ARM_REG_R0
	os.OpenFlags = fs.ArmFlags
	os.Stat = linux.StatArmLayout
	os.SyscallNum = syscallNum
	os.Interrupt = LinuxInterrupt
	// EABI passes 64-bit offsets in an aligned register pair
	os.Kernel["pread64"] = posix.DropArg(3, os.Kernel["pread64"])
	os.Kernel["pwrite64"] = posix.DropArg(3, os.Kernel["pwrite64"])
	Arch.RegisterOS(os)
}
