package x86

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/freebsd"
	"github.com/lunixbochs/sandcorn/models"
)

func FreeBSDInterrupt(u models.Usercorn, intno uint32) error {
	if intno == 0x80 {
		return u.Syscall()
	}
	return models.UnhandledInterrupt(intno)
}

func init() {
	os := freebsd.NewOS()
	os.SyscallReg = uc.X86_REG_EAX
	// cdecl: every argument is on the stack, above the libc return address
	os.StackArgs = true
	os.StackSkip = 4
	os.RetReg = uc.X86_REG_EAX
	os.SetReturn = freebsd.CarryReturn(uc.X86_REG_EFLAGS)
	os.Interrupt = FreeBSDInterrupt
	Arch.RegisterOS(os)
}
