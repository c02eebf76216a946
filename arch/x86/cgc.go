package x86

import (
	"crypto/rand"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

// DECREE, the CGC challenge kernel: seven syscalls, results stored through
// out-pointers and a positive errno in eax.
var cgcSyscalls = map[int]string{
	1: "_terminate",
	2: "transmit",
	3: "receive",
	4: "fdwait",
	5: "allocate",
	6: "deallocate",
	7: "random",
}

var cgcErrno = map[string]int{
	"EBADF":  1,
	"EFAULT": 2,
	"EINVAL": 3,
	"ENOMEM": 4,
	"ENOSYS": 5,
	"EPIPE":  6,
}

func writeAddr(u models.Usercorn, addr, val uint64) error {
	if addr == 0 {
		return nil
	}
	buf, err := u.PackAddr(make([]byte, 4), val)
	if err != nil {
		return err
	}
	return u.MemWrite(addr, buf)
}

func cgcTransmit(u models.Usercorn, a *models.Args) (uint64, error) {
	n, err := posix.Write(u, a)
	if err != nil {
		return 0, err
	}
	return 0, writeAddr(u, a.Uint(3), n)
}

func cgcReceive(u models.Usercorn, a *models.Args) (uint64, error) {
	n, err := posix.Read(u, a)
	if err != nil {
		return 0, err
	}
	return 0, writeAddr(u, a.Uint(3), n)
}

func cgcAllocate(u models.Usercorn, a *models.Args) (uint64, error) {
	prot := cpu.PROT_READ | cpu.PROT_WRITE
	if a.Uint(1) != 0 {
		prot |= cpu.PROT_EXEC
	}
	addr, err := u.Mmap(0, a.Uint(0), prot, false, "allocate", nil)
	if err != nil {
		return 0, err
	}
	return 0, writeAddr(u, a.Uint(2), addr)
}

func cgcDeallocate(u models.Usercorn, a *models.Args) (uint64, error) {
	return 0, u.MemUnmap(a.Uint(0), a.Uint(1))
}

func cgcRandom(u models.Usercorn, a *models.Args) (uint64, error) {
	tmp := make([]byte, a.Uint(1))
	if _, err := rand.Read(tmp); err != nil {
		return 0, err
	}
	if err := u.MemWrite(a.Uint(0), tmp); err != nil {
		return 0, err
	}
	return 0, writeAddr(u, a.Uint(2), uint64(len(tmp)))
}

func cgcKernel() map[string]*models.Syscall {
	list := []*models.Syscall{
		models.Sys("_terminate", posix.Exit, models.INT, models.INT),
		models.Sys("transmit", cgcTransmit, models.INT, models.FD, models.BUF, models.LEN, models.PTR),
		models.Sys("receive", cgcReceive, models.INT, models.FD, models.OBUF, models.LEN, models.PTR),
		models.Sys("fdwait", posix.Nop, models.INT, models.INT, models.PTR, models.PTR, models.PTR, models.PTR),
		models.Sys("allocate", cgcAllocate, models.INT, models.LEN, models.INT, models.PTR),
		models.Sys("deallocate", cgcDeallocate, models.INT, models.PTR, models.LEN),
		models.Sys("random", cgcRandom, models.INT, models.PTR, models.LEN, models.PTR),
	}
	ret := make(map[string]*models.Syscall, len(list))
	for _, s := range list {
		ret[s.Name] = s
	}
	return ret
}

func cgcSetReturn(u models.Usercorn, ret uint64, errno int) error {
	if errno != 0 {
		ret = uint64(errno)
	}
	return u.RegWrite(uc.X86_REG_EAX, ret)
}

// cgcInit maps the fixed DECREE stack and the magic page.
func cgcInit(u models.Usercorn, argv, env []string) error {
	const stackTop, magic = 0xbaaab000, 0x4347c000
	size := u.Config().StackSize
	if _, err := u.Mmap(stackTop-size, size, cpu.PROT_READ|cpu.PROT_WRITE, true, "stack", nil); err != nil {
		return err
	}
	if err := u.RegWrite(uc.X86_REG_ESP, stackTop); err != nil {
		return err
	}
	if _, err := u.Mmap(magic, 0x1000, cpu.PROT_READ, true, "magic", nil); err != nil {
		return err
	}
	page := make([]byte, 0x1000)
	if _, err := rand.Read(page); err != nil {
		return err
	}
	if err := u.MemWriteRaw(magic, page); err != nil {
		return err
	}
	return u.RegWrite(uc.X86_REG_ECX, magic)
}

func init() {
	Arch.RegisterOS(&models.OS{
		Name:       "cgc",
		SyscallReg: uc.X86_REG_EAX,
		ArgRegs:    LinuxRegs,
		RetReg:     uc.X86_REG_EAX,
		Syscalls:   cgcSyscalls,
		Kernel:     cgcKernel(),
		Errno:      cgcErrno,
		Sysname:    "DECREE",
		Release:    "1.0",
		SetReturn:  cgcSetReturn,
		Init:       cgcInit,
		Interrupt:  LinuxInterrupt,
	})
}
