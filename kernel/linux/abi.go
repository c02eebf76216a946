package linux

import (
	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
)

const (
	Sysname = "Linux"
	Release = "4.19.0-sandcorn"
)

// SetReturn writes ret, or -errno on failure, to the OS return register.
func SetReturn(u models.Usercorn, ret uint64, errno int) error {
	if errno != 0 {
		ret = uint64(-int64(errno))
	}
	return u.RegWrite(u.OS().RetReg, ret)
}

// StackInit maps the stack and builds the initial process stack with an ELF auxv.
func StackInit(u models.Usercorn, argv, env []string) error {
	if err := posix.MapStack(u); err != nil {
		return err
	}
	return posix.StackInit(u, argv, env, func() ([]byte, error) {
		return SetupElfAuxv(u)
	})
}

// NewOS builds a Linux descriptor with the shared kernel and errno tables.
// Callers fill in registers, numbering and arch-specific hooks.
func NewOS(syscalls map[int]string) *models.OS {
	return &models.OS{
		Name:      "linux",
		Syscalls:  syscalls,
		Kernel:    posix.Kernel(),
		Errno:     Errno,
		Sysname:   Sysname,
		Release:   Release,
		SetReturn: SetReturn,
		Init:      StackInit,
	}
}
