package x86_64

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/freebsd"
)

func init() {
	os := freebsd.NewOS()
	os.SyscallReg = uc.X86_REG_RAX
	os.ArgRegs = AbiRegs
	os.RetReg = uc.X86_REG_RAX
	os.SetReturn = freebsd.CarryReturn(uc.X86_REG_EFLAGS)
	os.Setup = hookSyscall
	Arch.RegisterOS(os)
}
