package cpu

import (
	"github.com/pkg/errors"
)

var ErrBadRegister = errors.New("invalid register")

// Regs is a register file implementing the register and context methods of Cpu.
type Regs struct {
	mask uint64
	vals map[int]uint64
}

func NewRegs(bits uint, enums []int) *Regs {
	r := &Regs{
		mask: ^uint64(0) >> (64 - bits),
		vals: make(map[int]uint64),
	}
	for _, e := range enums {
		r.vals[e] = 0
	}
	return r
}

func (r *Regs) RegRead(enum int) (uint64, error) {
	val, ok := r.vals[enum]
	if !ok {
		return 0, errors.Wrapf(ErrBadRegister, "read %d", enum)
	}
	return val, nil
}

func (r *Regs) RegWrite(enum int, val uint64) error {
	if _, ok := r.vals[enum]; !ok {
		return errors.Wrapf(ErrBadRegister, "write %d", enum)
	}
	r.vals[enum] = val & r.mask
	return nil
}

// flags must live in registers for ContextSave to capture them
func (r *Regs) ContextSave(reuse interface{}) (interface{}, error) {
	var m map[int]uint64
	if reuse != nil {
		var ok bool
		if m, ok = reuse.(map[int]uint64); !ok {
			return nil, errors.New("incorrect context type")
		}
	} else {
		m = make(map[int]uint64, len(r.vals))
	}
	for k, v := range r.vals {
		m[k] = v
	}
	return m, nil
}

func (r *Regs) ContextRestore(ctx interface{}) error {
	m, ok := ctx.(map[int]uint64)
	if !ok {
		return errors.New("incorrect context type")
	}
	for k, v := range m {
		r.vals[k] = v
	}
	return nil
}
