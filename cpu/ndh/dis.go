package ndh

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrBadOpcode = errors.New("invalid opcode")

type Ins struct {
	Addr  uint64
	Op    byte
	Name  string
	Args  []Arg
	Bytes []byte
}

func (i *Ins) String() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	return i.Name + " " + i.OpStr()
}

func (i *Ins) OpStr() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.String()
	}
	return strings.Join(args, ", ")
}

type Arg interface {
	String() string
}

type (
	u8       struct{ val uint8 }
	u16      struct{ val uint16 }
	reg      struct{ num uint8 }
	indirect struct{ reg *reg }
)

func (a *u8) String() string  { return fmt.Sprintf("%#x", a.val) }
func (a *u16) String() string { return fmt.Sprintf("%#x", a.val) }
func (a *reg) String() string {
	switch a.num {
	case PC:
		return "pc"
	case SP:
		return "sp"
	case BP:
		return "bp"
	default:
		return fmt.Sprintf("r%d", a.num)
	}
}

func (a *indirect) String() string { return "[" + a.reg.String() + "]" }

type decoder struct {
	mem []byte
	pos int
	err error
}

func (d *decoder) r8() uint8 {
	if d.pos >= len(d.mem) {
		d.err = errors.New("truncated instruction")
		return 0
	}
	b := d.mem[d.pos]
	d.pos++
	return b
}

func (d *decoder) r16() uint16 {
	if d.pos+2 > len(d.mem) {
		d.err = errors.New("truncated instruction")
		return 0
	}
	v := binary.LittleEndian.Uint16(d.mem[d.pos:])
	d.pos += 2
	return v
}

func (d *decoder) reg() *reg { return &reg{d.r8()} }

func (d *decoder) flag() []Arg {
	switch d.r8() {
	case OP_FLAG_REG_REG:
		return []Arg{d.reg(), d.reg()}
	case OP_FLAG_REG_DIRECT08:
		return []Arg{d.reg(), &u8{d.r8()}}
	case OP_FLAG_REG_DIRECT16:
		return []Arg{d.reg(), &u16{d.r16()}}
	case OP_FLAG_REG:
		return []Arg{d.reg()}
	case OP_FLAG_DIRECT16:
		return []Arg{&u16{d.r16()}}
	case OP_FLAG_DIRECT08:
		return []Arg{&u8{d.r8()}}
	case OP_FLAG_REGINDIRECT_REG:
		return []Arg{&indirect{d.reg()}, d.reg()}
	case OP_FLAG_REGINDIRECT_DIRECT08:
		return []Arg{&indirect{d.reg()}, &u8{d.r8()}}
	case OP_FLAG_REGINDIRECT_DIRECT16:
		return []Arg{&indirect{d.reg()}, &u16{d.r16()}}
	case OP_FLAG_REGINDIRECT_REGINDIRECT:
		return []Arg{&indirect{d.reg()}, &indirect{d.reg()}}
	case OP_FLAG_REG_REGINDIRECT:
		return []Arg{d.reg(), &indirect{d.reg()}}
	}
	d.err = errors.New("invalid operand flag")
	return nil
}

// Decode reads one instruction from the start of mem.
func Decode(mem []byte, addr uint64) (*Ins, error) {
	d := &decoder{mem: mem}
	b := d.r8()
	data, ok := opData[b]
	if d.err != nil {
		return nil, d.err
	} else if !ok {
		return nil, errors.Wrapf(ErrBadOpcode, "%#x at %#x", b, addr)
	}
	var args []Arg
	switch data.arg {
	case A_1REG:
		args = []Arg{d.reg()}
	case A_2REG:
		args = []Arg{d.reg(), d.reg()}
	case A_U8:
		args = []Arg{&u8{d.r8()}}
	case A_U16:
		args = []Arg{&u16{d.r16()}}
	case A_FLAG:
		args = d.flag()
	}
	if d.err != nil {
		return nil, errors.Wrapf(d.err, "%s at %#x", data.name, addr)
	}
	return &Ins{
		Addr:  addr,
		Op:    b,
		Name:  data.name,
		Args:  args,
		Bytes: mem[:d.pos:d.pos],
	}, nil
}

// Dis decodes every instruction in mem, stopping at the first invalid one.
func Dis(mem []byte, addr uint64) []*Ins {
	var ret []*Ins
	for len(mem) > 0 {
		ins, err := Decode(mem, addr)
		if err != nil {
			break
		}
		ret = append(ret, ins)
		mem = mem[len(ins.Bytes):]
		addr += uint64(len(ins.Bytes))
	}
	return ret
}
