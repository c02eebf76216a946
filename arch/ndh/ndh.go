package ndh

import (
	"github.com/lunixbochs/sandcorn/cpu/ndh"
	"github.com/lunixbochs/sandcorn/kernel/linux"
	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
)

var NdhRegs = []int{ndh.R1, ndh.R2, ndh.R3, ndh.R4, ndh.R5, ndh.R6}

var sysNums = map[int]string{
	0x01: "exit",
	0x02: "open",
	0x03: "read",
	0x04: "write",
	0x05: "close",
	0x06: "setuid",
	0x07: "setgid",
	0x08: "dup2",
	0x0f: "chdir",
	0x11: "lseek",
	0x12: "getpid",
	0x13: "getuid",
}

// names of the calls ndh defines but sandcorn leaves unimplemented
var names = map[int]string{
	0x09: "send",
	0x0a: "recv",
	0x0b: "socket",
	0x0c: "listen",
	0x0d: "bind",
	0x0e: "accept",
	0x10: "chmod",
	0x14: "pause",
}

const (
	stackBase = 0x0
	stackSize = 0x8000
)

// NdhInit maps the fixed low stack; ndh programs take no argv.
func NdhInit(u models.Usercorn, args, env []string) error {
	if _, err := u.Mmap(stackBase, stackSize, cpu.PROT_READ|cpu.PROT_WRITE, true, "stack", nil); err != nil {
		return err
	}
	if err := u.RegWrite(ndh.SP, stackBase+stackSize); err != nil {
		return err
	}
	return u.RegWrite(ndh.BP, stackBase+stackSize)
}

func NdhInterrupt(u models.Usercorn, intno uint32) error {
	return u.Syscall()
}

func init() {
	kernel := posix.Kernel()
	kernel["setuid"] = models.Sys("setuid", posix.Nop, models.INT, models.INT)
	kernel["setgid"] = models.Sys("setgid", posix.Nop, models.INT, models.INT)
	Arch.RegisterOS(&models.OS{
		Name:       "ndh",
		SyscallReg: ndh.R0,
		ArgRegs:    NdhRegs,
		RetReg:     ndh.R0,
		Syscalls:   sysNums,
		Names:      names,
		Kernel:     kernel,
		Errno:      linux.Errno,
		OpenFlags:  fs.LinuxFlags,
		Sysname:    "ndh",
		Release:    "1.0",
		SetReturn:  linux.SetReturn,
		Init:       NdhInit,
		Interrupt:  NdhInterrupt,
	})
}
