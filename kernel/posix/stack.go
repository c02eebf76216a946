package posix

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

// default top of the guest stack when Config.StackBase is unset
const stackTop = 0x7fff0000

// MapStack maps the configured stack and points SP at its top.
func MapStack(u models.Usercorn) error {
	size := u.Config().StackSize
	base := u.Config().StackBase
	if base == 0 {
		base = stackTop - size
		if u.Bits() == 64 {
			base = 0x7ff000000000 - size
		}
	}
	addr, err := u.Mmap(base, size, cpu.PROT_READ|cpu.PROT_WRITE, false, "stack", nil)
	if err != nil {
		return errors.Wrap(err, "mapping stack")
	}
	return u.RegWrite(u.Arch().SP, addr+size)
}

// pushStrings copies strs onto the stack and returns their guest addresses in order.
func pushStrings(u models.Usercorn, strs []string) ([]uint64, error) {
	addrs := make([]uint64, len(strs))
	for i := len(strs) - 1; i >= 0; i-- {
		addr, err := u.PushBytes(append([]byte(strs[i]), 0))
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// StackInit lays out argc, argv, envp and an optional auxv blob below the string area:
//
//	sp -> argc, argv[0..n], NULL, envp[0..m], NULL, auxv...
func StackInit(u models.Usercorn, argv, env []string, auxv func() ([]byte, error)) error {
	envAddrs, err := pushStrings(u, env)
	if err != nil {
		return err
	}
	argAddrs, err := pushStrings(u, argv)
	if err != nil {
		return err
	}
	var aux []byte
	if auxv != nil {
		if aux, err = auxv(); err != nil {
			return err
		}
	}
	width := uint64(u.Bits() / 8)
	// keep sp 16-byte aligned once argc is pushed
	sp, err := u.RegRead(u.Arch().SP)
	if err != nil {
		return err
	}
	words := uint64(len(argAddrs)+len(envAddrs)+3) * width
	sp -= uint64(len(aux)) + words
	sp &^= 15
	sp += words
	if err := u.RegWrite(u.Arch().SP, sp+uint64(len(aux))); err != nil {
		return err
	}
	if len(aux) > 0 {
		if _, err := u.PushBytes(aux); err != nil {
			return err
		}
	}
	push := func(vals ...uint64) error {
		for _, v := range vals {
			if _, err := u.Push(v); err != nil {
				return err
			}
		}
		return nil
	}
	if err := push(0); err != nil {
		return err
	}
	for i := len(envAddrs) - 1; i >= 0; i-- {
		if err := push(envAddrs[i]); err != nil {
			return err
		}
	}
	if err := push(0); err != nil {
		return err
	}
	for i := len(argAddrs) - 1; i >= 0; i-- {
		if err := push(argAddrs[i]); err != nil {
			return err
		}
	}
	return push(uint64(len(argAddrs)))
}
