package ndh

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

func rbool(i bool) uint64 {
	if i {
		return 1
	}
	return 0
}

type Builder struct{}

func (b *Builder) New() (cpu.Cpu, error) {
	c := &NdhCpu{
		Regs: cpu.NewRegs(16, []int{
			R0, R1, R2, R3, R4, R5, R6, R7,
			BP, SP, PC,
			ZF, AF, BF,
		}),
		Mem: cpu.NewMem(16, binary.LittleEndian),
	}
	c.Hooks = cpu.NewHooks(c, c.Mem)
	return c, nil
}

// NdhCpu interprets the 16-bit ndh instruction set.
type NdhCpu struct {
	*cpu.Hooks
	*cpu.Regs
	*cpu.Mem

	exitRequest bool
	err         error
}

func (n *NdhCpu) set(a Arg, val uint64) {
	switch v := a.(type) {
	case *reg:
		n.RegWrite(int(v.num), val)
	case *indirect:
		addr := n.get(v.reg)
		if err := n.WriteUint(addr, 1, cpu.PROT_WRITE, val); err != nil && n.err == nil {
			n.err = err
		}
	default:
		n.err = errors.Errorf("unsupported destination: %s", a)
	}
}

func (n *NdhCpu) get(a Arg) uint64 {
	switch v := a.(type) {
	case *u8:
		return uint64(v.val)
	case *u16:
		return uint64(v.val)
	case *reg:
		val, _ := n.RegRead(int(v.num))
		return val
	case *indirect:
		val, err := n.ReadUint(n.get(v.reg), 1, cpu.PROT_READ)
		if err != nil && n.err == nil {
			n.err = err
		}
		return val
	}
	n.err = errors.Errorf("unsupported source: %s", a)
	return 0
}

// step executes one decoded instruction and returns the next pc.
func (n *NdhCpu) step(ins *Ins) (uint64, error) {
	var a, b Arg
	switch len(ins.Args) {
	case 2:
		a, b = ins.Args[0], ins.Args[1]
	case 1:
		a = ins.Args[0]
	}
	next := ins.Addr + uint64(len(ins.Bytes))
	jmpoff := int32(-1)
	afr, _ := n.RegRead(AF)
	bfr, _ := n.RegRead(BF)
	zfr, _ := n.RegRead(ZF)
	sp, _ := n.RegRead(SP)
	af, bf, zf := afr == 1, bfr == 1, zfr == 1

	zfcheck := func(val uint64) uint64 {
		zf = val&0xffff == 0
		return val
	}

	switch ins.Op {
	case OP_DEC:
		n.set(a, n.get(a)-1)
	case OP_INC:
		n.set(a, n.get(a)+1)
	case OP_XCHG:
		xa, xb := n.get(a), n.get(b)
		n.set(a, xb)
		n.set(b, xa)
	case OP_MOV:
		n.set(a, n.get(b))

	case OP_ADD:
		n.set(a, zfcheck(n.get(a)+n.get(b)))
	case OP_AND:
		n.set(a, zfcheck(n.get(a)&n.get(b)))
	case OP_DIV:
		div := n.get(b)
		if div == 0 {
			return 0, errors.Errorf("division by zero at %#x", ins.Addr)
		}
		n.set(a, zfcheck(n.get(a)/div))
	case OP_MUL:
		n.set(a, zfcheck(n.get(a)*n.get(b)))
	case OP_NOT:
		n.set(a, zfcheck(^n.get(a)))
	case OP_OR:
		n.set(a, zfcheck(n.get(a)|n.get(b)))
	case OP_SUB:
		n.set(a, zfcheck(n.get(a)-n.get(b)))
	case OP_XOR:
		n.set(a, zfcheck(n.get(a)^n.get(b)))

	case OP_CMP:
		va, vb := n.get(a), n.get(b)
		af, bf, zf = va < vb, va > vb, va == vb
	case OP_TEST:
		zf = n.get(a) == 0 && n.get(b) == 0

	case OP_SYSCALL:
		// the handler sees pc past the syscall, so a stop inside it resumes cleanly
		n.RegWrite(PC, next)
		n.OnIntr(0)
		sp, _ = n.RegRead(SP)
	case OP_NOP:
	case OP_END:
		return next, models.ExitStatus(0)
	case OP_JA:
		if af {
			jmpoff = int32(n.get(a))
		}
	case OP_JB:
		if bf {
			jmpoff = int32(n.get(a))
		}
	case OP_JMPL, OP_JMPS:
		jmpoff = int32(n.get(a))
	case OP_JNZ:
		if !zf {
			jmpoff = int32(n.get(a))
		}
	case OP_JZ:
		if zf {
			jmpoff = int32(n.get(a))
		}

	case OP_CALL:
		jmpoff = int32(n.get(a))
		sp -= 2
		if err := n.WriteUint(sp, 2, cpu.PROT_WRITE, next); err != nil {
			return 0, err
		}
	case OP_RET:
		ret, err := n.ReadUint(sp, 2, cpu.PROT_READ)
		if err != nil {
			return 0, err
		}
		next = ret
		n.OnBlock(next, 0)
		sp += 2

	case OP_PUSH:
		size := 2
		if _, ok := a.(*u8); ok {
			size = 1
		}
		sp -= uint64(size)
		if err := n.WriteUint(sp, size, cpu.PROT_WRITE, n.get(a)); err != nil {
			return 0, err
		}
	case OP_POP:
		val, err := n.ReadUint(sp, 2, cpu.PROT_READ)
		if err != nil {
			return 0, err
		}
		n.set(a, val)
		sp += 2

	default:
		return 0, errors.Wrapf(ErrBadOpcode, "%#x", ins.Op)
	}
	n.RegWrite(AF, rbool(af))
	n.RegWrite(BF, rbool(bf))
	n.RegWrite(ZF, rbool(zf))
	n.RegWrite(SP, sp)

	if jmpoff >= 0 {
		next = (next + uint64(jmpoff)) & 0xffff
		n.OnBlock(next, 0)
	}
	return next, n.err
}

func (n *NdhCpu) Start(begin, until uint64) error {
	n.exitRequest = false
	n.err = nil
	pc := begin
	n.RegWrite(PC, pc)
	n.OnBlock(pc, 0)

	for pc != until && !n.exitRequest {
		mem, err := n.Fetch(pc, MaxInsSize)
		if err != nil {
			return err
		}
		ins, err := Decode(mem, pc)
		if err != nil {
			return err
		}
		n.OnCode(pc, uint32(len(ins.Bytes)))
		// a code hook may stop the emulator before the instruction runs
		if n.exitRequest {
			break
		}
		next, err := n.step(ins)
		if err != nil {
			return err
		}
		// a syscall handler may have moved pc, e.g. on exec
		if ins.Op == OP_SYSCALL {
			if cur, _ := n.RegRead(PC); cur != next {
				next = cur
			}
		}
		pc = next
		n.RegWrite(PC, pc)
	}
	return nil
}

func (n *NdhCpu) Stop() error {
	n.exitRequest = true
	return nil
}

func (n *NdhCpu) Close() error {
	return nil
}

func (n *NdhCpu) String() string {
	pc, _ := n.RegRead(PC)
	return fmt.Sprintf("<ndh pc=%#x>", pc)
}
