package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/sandcorn/models/cpu"
)

type Builder struct {
	Arch, Mode int
}

func (b *Builder) New() (cpu.Cpu, error) {
	u, err := uc.NewUnicorn(b.Arch, b.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{u}, nil
}

// UnicornCpu adapts a Unicorn engine to cpu.Cpu.
type UnicornCpu struct {
	uc.Unicorn
}

func (u *UnicornCpu) ContextSave(reuse interface{}) (interface{}, error) {
	ctx, _ := reuse.(uc.Context)
	return u.Unicorn.ContextSave(ctx)
}

func (u *UnicornCpu) ContextRestore(ctx interface{}) error {
	c, ok := ctx.(uc.Context)
	if !ok {
		return errors.Errorf("not a unicorn context: %T", ctx)
	}
	return u.Unicorn.ContextRestore(c)
}

const memFaults = uc.HOOK_MEM_READ_UNMAPPED | uc.HOOK_MEM_WRITE_UNMAPPED | uc.HOOK_MEM_FETCH_UNMAPPED |
	uc.HOOK_MEM_READ_PROT | uc.HOOK_MEM_WRITE_PROT | uc.HOOK_MEM_FETCH_PROT

func (u *UnicornCpu) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (cpu.Hook, error) {
	// callbacks take cpu.Cpu, so each one is wrapped to hide the uc.Unicorn argument
	var wrap interface{}
	switch htype {
	case cpu.HOOK_BLOCK, cpu.HOOK_CODE:
		cbc, ok := cb.(cpu.CodeCb)
		if !ok {
			return nil, errors.Errorf("bad callback type %T for hook type %d", cb, htype)
		}
		wrap = func(_ uc.Unicorn, addr uint64, size uint32) { cbc(u, addr, size) }

	case cpu.HOOK_MEM_READ, cpu.HOOK_MEM_WRITE, cpu.HOOK_MEM_READ | cpu.HOOK_MEM_WRITE:
		cbc, ok := cb.(cpu.MemCb)
		if !ok {
			return nil, errors.Errorf("bad callback type %T for hook type %d", cb, htype)
		}
		wrap = func(_ uc.Unicorn, access int, addr uint64, size int, val int64) { cbc(u, access, addr, size, val) }

	case cpu.HOOK_INTR:
		cbc, ok := cb.(cpu.IntrCb)
		if !ok {
			return nil, errors.Errorf("bad callback type %T for hook type %d", cb, htype)
		}
		wrap = func(_ uc.Unicorn, intno uint32) { cbc(u, intno) }

	case cpu.HOOK_INSN:
		// only arch-aware callers use HOOK_INSN, so their callback takes cpu.Cpu directly
		cbc, ok := cb.(func(cpu.Cpu))
		if !ok {
			return nil, errors.Errorf("bad callback type %T for HOOK_INSN", cb)
		}
		wrap = func(_ uc.Unicorn) { cbc(u) }

	default:
		if htype&memFaults == 0 {
			return nil, errors.Wrapf(cpu.ErrHookType, "hook type %d", htype)
		}
		cbc, ok := cb.(cpu.MemFaultCb)
		if !ok {
			return nil, errors.Errorf("bad callback type %T for hook type %d", cb, htype)
		}
		wrap = func(_ uc.Unicorn, access int, addr uint64, size int, val int64) bool {
			return cbc(u, access, addr, size, val)
		}
	}
	return u.Unicorn.HookAdd(htype, wrap, start, end, extra...)
}

func (u *UnicornCpu) HookDel(hh cpu.Hook) error {
	h, ok := hh.(uc.Hook)
	if !ok {
		return errors.Errorf("not a unicorn hook: %T", hh)
	}
	return u.Unicorn.HookDel(h)
}

func (u *UnicornCpu) MemProt(addr, size uint64, prot int) error {
	return u.Unicorn.MemProtect(addr, size, prot)
}
