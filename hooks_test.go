package sandcorn

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/cpu/ndh"
	"github.com/lunixbochs/sandcorn/loader"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

func TestHookRemoveDuringDispatch(t *testing.T) {
	s := newSession(t, prog(nops(3), exitCall(0)), nil)
	var order []string
	var first *Hook
	first, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		order = append(order, "first")
		return first.Remove()
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var count int
	if _, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		order = append(order, "second")
		count++
		return nil
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	// 3 nops, 2 movs, syscall
	if count != 6 {
		t.Errorf("second hook fired %d times", count)
	}
	if len(order) < 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("hook order %v", order)
	}
	if first.Enabled() {
		t.Error("removed hook reports enabled")
	}
	if err := first.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestHookRemovesLaterHook(t *testing.T) {
	s := newSession(t, prog(nops(2), exitCall(0)), nil)
	var later *Hook
	var laterCalls int
	if _, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		return later.Remove()
	}, nil); err != nil {
		t.Fatal(err)
	}
	later, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		laterCalls++
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if laterCalls != 0 {
		t.Errorf("hook removed earlier in the same dispatch fired %d times", laterCalls)
	}
}

func TestHookRangeAndDisable(t *testing.T) {
	s := newSession(t, prog(nops(4), exitCall(0)), nil)
	var addrs []uint64
	h, err := s.HookCode(func(_ *Session, addr uint64, _ uint32, _ interface{}) error {
		addrs = append(addrs, addr)
		return nil
	}, nil, loader.NdhBase+1, loader.NdhBase+2)
	if err != nil {
		t.Fatal(err)
	}
	var disabled int
	d, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		disabled++
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.Disable()
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 2 || addrs[0] != loader.NdhBase+1 || addrs[1] != loader.NdhBase+2 {
		t.Errorf("ranged hook saw %#x", addrs)
	}
	if disabled != 0 {
		t.Errorf("disabled hook fired %d times", disabled)
	}
	if h.Id() == d.Id() {
		t.Error("hook ids are not unique")
	}
}

func TestHookContext(t *testing.T) {
	s := newSession(t, prog(nops(1), exitCall(0)), nil)
	type counter struct{ n int }
	ctx := &counter{}
	if _, err := s.HookBlock(func(_ *Session, _ uint64, _ uint32, c interface{}) error {
		c.(*counter).n++
		return nil
	}, ctx, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if ctx.n == 0 {
		t.Error("block hook never fired")
	}
}

func TestHookMem(t *testing.T) {
	// push r1 writes the stack, pop r2 reads it back
	code := prog(
		movImm(ndh.R1, 0x4142),
		[]byte{ndh.OP_PUSH, ndh.OP_FLAG_REG, byte(ndh.R1)},
		[]byte{ndh.OP_POP, byte(ndh.R2)},
		exitCall(0),
	)
	s := newSession(t, code, nil)
	var reads, writes int
	if _, err := s.HookMem(cpu.HOOK_MEM_WRITE, func(_ *Session, access int, addr uint64, size int, val int64, _ interface{}) error {
		if access != cpu.MEM_WRITE {
			t.Errorf("write hook saw access %d", access)
		}
		writes++
		return nil
	}, nil, 0, 0x7fff); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HookMem(cpu.HOOK_MEM_READ, func(_ *Session, access int, addr uint64, size int, val int64, _ interface{}) error {
		if access != cpu.MEM_READ {
			t.Errorf("read hook saw access %d", access)
		}
		reads++
		return nil
	}, nil, 0, 0x7fff); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HookMem(0, func(*Session, int, uint64, int, int64, interface{}) error { return nil }, nil, 1, 0); err == nil {
		t.Error("HookMem accepted an empty access mask")
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if writes == 0 || reads == 0 {
		t.Errorf("reads %d, writes %d", reads, writes)
	}
}

func TestHookNil(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if _, err := s.HookCode(nil, nil, 1, 0); err == nil {
		t.Error("HookCode accepted nil")
	}
	if _, err := s.HookSyscall(nil, nil); err == nil {
		t.Error("HookSyscall accepted nil")
	}
	if _, err := s.HookExec(nil, nil); err == nil {
		t.Error("HookExec accepted nil")
	}
}

func TestSyscallHookSkip(t *testing.T) {
	code := prog(
		movImm(ndh.R0, 4), movImm(ndh.R1, 1), movImm(ndh.R2, dataAddr), movImm(ndh.R3, 5), sys,
		movReg(ndh.R5, ndh.R0),
		exitCall(0),
	)
	s := newSession(t, withData(code, []byte("hello")), nil)
	var names []string
	if _, err := s.HookSyscall(func(_ *Session, ev *SyscallEvent, _ interface{}) error {
		names = append(names, ev.Name)
		return nil
	}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HookSyscall(func(_ *Session, ev *SyscallEvent, _ interface{}) error {
		ev.Skip(42)
		return nil
	}, nil, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if s.stdout.Len() != 0 {
		t.Errorf("skipped write produced %q", s.stdout.String())
	}
	if r5 := s.reg(t, ndh.R5); r5 != 42 {
		t.Errorf("r5 = %d, want 42", r5)
	}
	if len(names) != 2 || names[0] != "write" || names[1] != "exit" {
		t.Errorf("syscall hook saw %v", names)
	}
}

func TestHookFailure(t *testing.T) {
	code := prog(nops(2), exitCall(0))
	panicky := func(*Session, uint64, uint32, interface{}) error {
		panic("boom")
	}

	s := newSession(t, code, nil)
	if _, err := s.HookCodeAll(panicky, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("hook panic stopped the guest: %v", err)
	}
	if _, exited := s.ExitCode(); !exited {
		t.Error("guest did not exit")
	}

	s = newSession(t, code, &models.Config{FatalErrors: true})
	if _, err := s.HookCodeAll(func(*Session, uint64, uint32, interface{}) error {
		return errors.New("hook error")
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err == nil || s.State() != Faulted {
		t.Errorf("Run() = %v, state %s", err, s.State())
	}
	if pc := s.reg(t, ndh.PC); pc != loader.NdhBase {
		t.Errorf("faulting hook let pc reach %#x", pc)
	}
}
