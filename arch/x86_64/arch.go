package x86_64

import (
	"encoding/binary"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/cpu/unicorn"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

var Arch = &models.Arch{
	Name:  "x86_64",
	Bits:  64,
	Order: binary.LittleEndian,

	Cpu: &unicorn.Builder{Arch: uc.ARCH_X86, Mode: uc.MODE_64},

	PC: uc.X86_REG_RIP,
	SP: uc.X86_REG_RSP,
	Regs: map[string]int{
		"rip": uc.X86_REG_RIP,
		"rsp": uc.X86_REG_RSP,
		"rbp": uc.X86_REG_RBP,
		"rax": uc.X86_REG_RAX,
		"rbx": uc.X86_REG_RBX,
		"rcx": uc.X86_REG_RCX,
		"rdx": uc.X86_REG_RDX,
		"rsi": uc.X86_REG_RSI,
		"rdi": uc.X86_REG_RDI,
		"r8":  uc.X86_REG_R8,
		"r9":  uc.X86_REG_R9,
		"r10": uc.X86_REG_R10,
		"r11": uc.X86_REG_R11,
		"r12": uc.X86_REG_R12,
		"r13": uc.X86_REG_R13,
		"r14": uc.X86_REG_R14,
		"r15": uc.X86_REG_R15,

		"eflags": uc.X86_REG_EFLAGS,
	},
	DefaultRegs: []string{
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	},
}

// AbiRegs is the argument order of the syscall instruction on Linux and FreeBSD.
var AbiRegs = []int{uc.X86_REG_RDI, uc.X86_REG_RSI, uc.X86_REG_RDX, uc.X86_REG_R10, uc.X86_REG_R8, uc.X86_REG_R9}

// hookSyscall routes the syscall instruction to the session dispatcher.
func hookSyscall(u models.Usercorn) error {
	_, err := u.Cpu().HookAdd(cpu.HOOK_INSN, func(cpu.Cpu) {
		u.Syscall()
	}, 1, 0, uc.X86_INS_SYSCALL)
	return err
}
