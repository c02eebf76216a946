package ndh

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

func newCpu(t *testing.T, code []byte) *NdhCpu {
	c, err := (&Builder{}).New()
	if err != nil {
		t.Fatal(err)
	}
	n := c.(*NdhCpu)
	if err := n.MemMapProt(0x8000, 0x1000, cpu.PROT_READ|cpu.PROT_EXEC); err != nil {
		t.Fatal(err)
	}
	if err := n.MemMapProt(0x0, 0x1000, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		t.Fatal(err)
	}
	if err := n.MemWrite(0x8000, code); err != nil {
		t.Fatal(err)
	}
	n.RegWrite(SP, 0x800)
	return n
}

func TestDecode(t *testing.T) {
	cases := []struct {
		code []byte
		text string
	}{
		{[]byte{OP_NOP}, "nop"},
		{[]byte{OP_MOV, OP_FLAG_REG_DIRECT16, 0, 0x34, 0x12}, "mov r0, 0x1234"},
		{[]byte{OP_MOV, OP_FLAG_REG_DIRECT08, 1, 7}, "mov r1, 0x7"},
		{[]byte{OP_MOV, OP_FLAG_REG_REG, SP, BP}, "mov sp, bp"},
		{[]byte{OP_INC, 2}, "inc r2"},
		{[]byte{OP_SYSCALL}, "syscall"},
		{[]byte{OP_JMPL, 0x10, 0}, "jmpl 0x10"},
	}
	for _, c := range cases {
		ins, err := Decode(c.code, 0x8000)
		if err != nil {
			t.Errorf("%x: %v", c.code, err)
			continue
		}
		if ins.String() != c.text || len(ins.Bytes) != len(c.code) {
			t.Errorf("%x decoded as %q (%d bytes)", c.code, ins, len(ins.Bytes))
		}
	}
	if _, err := Decode([]byte{0xff}, 0); !errors.Is(err, ErrBadOpcode) {
		t.Errorf("bad opcode: %v", err)
	}
	if _, err := Decode([]byte{OP_MOV, OP_FLAG_REG_DIRECT16, 0}, 0); err == nil {
		t.Error("truncated instruction decoded")
	}
	if n := len(Dis([]byte{OP_NOP, OP_NOP, OP_INC, 1, 0xff, OP_NOP}, 0)); n != 3 {
		t.Errorf("Dis returned %d instructions", n)
	}
}

func TestRun(t *testing.T) {
	code := []byte{
		OP_MOV, OP_FLAG_REG_DIRECT16, R0, 0xfe, 0xff,
		OP_INC, R0,
		OP_INC, R0,
		OP_PUSH, OP_FLAG_REG, R0,
		OP_POP, R1,
		OP_SYSCALL,
		OP_END,
	}
	n := newCpu(t, code)
	var count, intr int
	n.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) { count++ }, 1, 0)
	n.HookAdd(cpu.HOOK_INTR, func(_ cpu.Cpu, intno uint32) { intr++ }, 1, 0)
	err := n.Start(0x8000, 0xffff)
	if _, ok := err.(models.ExitStatus); !ok {
		t.Fatalf("expected exit, got %v", err)
	}
	if count != 7 || intr != 1 {
		t.Fatalf("code hooks %d, interrupts %d", count, intr)
	}
	r0, _ := n.RegRead(R0)
	r1, _ := n.RegRead(R1)
	zf, _ := n.RegRead(ZF)
	if r0 != 0 || r1 != 0 || zf != 0 {
		t.Fatalf("r0=%#x r1=%#x zf=%d", r0, r1, zf)
	}
	if sp, _ := n.RegRead(SP); sp != 0x800 {
		t.Fatalf("sp = %#x after push/pop", sp)
	}
}

func TestStopFromHook(t *testing.T) {
	n := newCpu(t, []byte{OP_NOP, OP_NOP, OP_NOP, OP_END})
	count := 0
	n.HookAdd(cpu.HOOK_CODE, func(c cpu.Cpu, addr uint64, size uint32) {
		count++
		if count == 2 {
			c.Stop()
		}
	}, 1, 0)
	if err := n.Start(0x8000, 0xffff); err != nil {
		t.Fatal(err)
	}
	if pc, _ := n.RegRead(PC); pc != 0x8001 {
		t.Fatalf("stopped at %#x", pc)
	}
}

func TestFetchFault(t *testing.T) {
	n := newCpu(t, []byte{OP_JMPL, 0x00, 0x10})
	err := n.Start(0x8000, 0xffff)
	if !errors.Is(err, cpu.ErrAccessViolation) {
		t.Fatalf("jump to unmapped memory: %v", err)
	}
	// the stack page is mapped but not executable
	err = n.Start(0x0, 0xffff)
	var merr *cpu.MemError
	if !errors.As(err, &merr) || merr.Enum != cpu.MEM_FETCH_PROT {
		t.Fatalf("exec of data page: %v", err)
	}
}
