package x86

import (
	sysnum "github.com/lunixbochs/ghostrace/ghost/sys/num"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var LinuxRegs = []int{uc.X86_REG_EBX, uc.X86_REG_ECX, uc.X86_REG_EDX, uc.X86_REG_ESI, uc.X86_REG_EDI, uc.X86_REG_EBP}

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
	67:  "sigaction",
	91:  "munmap",
	92:  "truncate",
	93:  "ftruncate",
	106: "stat",
	107: "lstat",
	108: "fstat",
	122: "uname",
	125: "mprotect",
	126: "sigprocmask",
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
	219: "madvise",
	224: "gettid",
	243: "set_thread_area",
	252: "exit_group",
	258: "set_tid_address",
	295: "openat",
	301: "unlinkat",
	307: "faccessat",
	330: "dup3",
	331: "pipe2",
}

func LinuxInterrupt(u models.Usercorn, intno uint32) error {
	if intno == 0x80 {
		return u.Syscall()
	}
	return models.UnhandledInterrupt(intno)
}

func init() {
	os := linux.NewOS(linuxSyscalls)
	os.Names = sysnum.Linux_x86
	os.SyscallReg = uc.X86_REG_EAX
	os.ArgRegs = LinuxRegs
	os.RetReg = uc.X86_REG_EAX
	os.OpenFlags = fs.LinuxFlags
	os.Stat = linux.Stat386Layout
	os.Interrupt = LinuxInterrupt
	Arch.RegisterOS(os)
}
