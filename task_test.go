package sandcorn

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/cpu/ndh"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

const rw = cpu.PROT_READ | cpu.PROT_WRITE

func TestMemMapOverlap(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if err := s.MemMap(0xc000, 0x1000, cpu.PROT_READ); err != nil {
		t.Fatal(err)
	}
	var overlap *cpu.OverlapError
	if err := s.MemMap(0xc800, 0x1000, rw); !errors.As(err, &overlap) {
		t.Fatalf("overlapping MemMap() = %v", err)
	}
	if err := s.MemMap(0xe000, 0, rw); err == nil {
		t.Error("zero-length mapping succeeded")
	}
	// the failed map left nothing behind
	if _, err := s.MemRead(0xd000, 1); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Errorf("read past mapping: %v", err)
	}
}

func TestMemProtections(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if err := s.MemMap(0xc000, 0x1000, cpu.PROT_READ); err != nil {
		t.Fatal(err)
	}
	if err := s.MemWrite(0xc000, []byte("x")); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Fatalf("write to read-only page: %v", err)
	}
	if err := s.MemWriteRaw(0xc000, []byte("raw")); err != nil {
		t.Fatal(err)
	}
	mem, err := s.MemRead(0xc000, 3)
	if err != nil || string(mem) != "raw" {
		t.Fatalf("MemRead() = %q, %v", mem, err)
	}
	if err := s.MemProt(0xc000, 0x1000, rw); err != nil {
		t.Fatal(err)
	}
	if err := s.MemWrite(0xc000, []byte("ok")); err != nil {
		t.Errorf("write after MemProt: %v", err)
	}
	if err := s.MemProt(0xe000, 0x1000, rw); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Errorf("MemProt on unmapped range: %v", err)
	}
	// a range straddling the end of a mapping fails as a whole
	if err := s.MemWriteRaw(0xcfff, []byte("ab")); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Errorf("straddling write: %v", err)
	}
	if mem, err := s.MemRead(0xcfff, 1); err != nil || mem[0] != 0 {
		t.Errorf("straddling write left %x, %v", mem, err)
	}
	if mem, err := s.MemRead(0xe000, 0); err != nil || len(mem) != 0 {
		t.Errorf("zero-length read: %x, %v", mem, err)
	}
	if err := s.MemWrite(0xe000, nil); err != nil {
		t.Errorf("zero-length write: %v", err)
	}
}

func TestMemUnmapSplits(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if err := s.MemMapDesc(0xc000, 0x3000, rw, "heap", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.MemUnmap(0xd000, 0x1000); err != nil {
		t.Fatal(err)
	}
	var got []uint64
	for _, pg := range s.Mappings() {
		if pg.Desc == "heap" {
			got = append(got, pg.Addr, pg.Size)
		}
	}
	want := []uint64{0xc000, 0x1000, 0xe000, 0x1000}
	if len(got) != len(want) {
		t.Fatalf("heap mappings %#x", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heap mappings %#x, want %#x", got, want)
		}
	}
	if _, err := s.MemRead(0xd000, 1); err == nil {
		t.Error("hole is readable")
	}
	if err := s.MemUnmap(0xd000, 0x1000); err != nil {
		t.Errorf("unmapping a hole: %v", err)
	}

	if err := s.MemProt(0xe000, 0x1000, cpu.PROT_READ); err != nil {
		t.Fatal(err)
	}
	for _, pg := range s.Mappings() {
		if pg.Addr == 0xe000 && pg.Prot != cpu.PROT_READ {
			t.Errorf("prot not applied: %s", pg)
		}
	}
}

func TestMappingsSnapshot(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	pages := s.Mappings()
	pages[0].Prot = 0
	pages[0].Desc = "changed"
	if again := s.Mappings(); again[0].Prot == 0 || again[0].Desc == "changed" {
		t.Error("Mappings() exposed internal pages")
	}
	for i := 1; i < len(pages); i++ {
		if pages[i-1].Addr >= pages[i].Addr {
			t.Errorf("mappings not sorted: %v", pages)
		}
	}
}

func TestMmap(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	// 16-bit guests search from the first page up, past the image
	addr, err := s.Mmap(0, 0x1000, rw, false, "anon", nil)
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x9000 {
		t.Errorf("Mmap(0) = %#x, want 0x9000", addr)
	}
	// an occupied hint moves
	next, err := s.Mmap(addr, 0x1000, rw, false, "anon", nil)
	if err != nil {
		t.Fatal(err)
	}
	if next == addr {
		t.Errorf("Mmap() reused %#x", addr)
	}
	if err := s.MemWrite(addr, []byte("keep")); err != nil {
		t.Fatal(err)
	}
	// fixed replaces
	fixed, err := s.Mmap(addr, 0x1000, cpu.PROT_READ, true, "fixed", nil)
	if err != nil {
		t.Fatal(err)
	}
	if fixed != addr {
		t.Fatalf("fixed Mmap() = %#x", fixed)
	}
	mem, err := s.MemRead(addr, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mem, make([]byte, 4)) {
		t.Errorf("fixed mapping kept old contents %q", mem)
	}
	if _, err := s.Mmap(0, 0x20000, rw, false, "", nil); err == nil {
		t.Error("Mmap larger than the address space succeeded")
	}
}

func TestReadCString(t *testing.T) {
	s := newSession(t, exitCall(0), &models.Config{MaxStrLen: 16})
	if err := s.MemMap(0xc000, 0x1000, rw); err != nil {
		t.Fatal(err)
	}
	if err := s.MemWrite(0xc000, []byte("abc\x00def")); err != nil {
		t.Fatal(err)
	}
	if str, err := s.ReadCString(0xc000); err != nil || str != "abc" {
		t.Errorf("ReadCString() = %q, %v", str, err)
	}
	// a string ending on the last byte of a mapping
	if err := s.MemWrite(0xcffd, []byte("hi\x00")); err != nil {
		t.Fatal(err)
	}
	if str, err := s.ReadCString(0xcffd); err != nil || str != "hi" {
		t.Errorf("string at page end = %q, %v", str, err)
	}
	if err := s.MemWrite(0xc100, bytes.Repeat([]byte("A"), 32)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReadCString(0xc100); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Errorf("unterminated string: %v", err)
	}
	// overwrite the terminated string so nothing stops the scan before 0xd000
	if err := s.MemWrite(0xcff8, bytes.Repeat([]byte("B"), 8)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReadCString(0xcff8); !errors.Is(err, cpu.ErrAccessViolation) {
		t.Errorf("string running off the mapping: %v", err)
	}
}

func TestBrk(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	cur, err := s.Brk(0)
	if err != nil {
		t.Fatal(err)
	}
	if cur != 0x9000 {
		t.Fatalf("initial break %#x", cur)
	}
	if cur, err = s.Brk(0x9800); err != nil || cur != 0x9800 {
		t.Fatalf("Brk(0x9800) = %#x, %v", cur, err)
	}
	if err := s.MemWrite(0x9fff, []byte{1}); err != nil {
		t.Errorf("new break page not writable: %v", err)
	}
	if cur, _ = s.Brk(0xa800); cur != 0xa800 {
		t.Fatalf("Brk(0xa800) = %#x", cur)
	}
	if cur, _ = s.Brk(0x9100); cur != 0x9100 {
		t.Fatalf("shrinking Brk = %#x", cur)
	}
	if _, err := s.MemRead(0xa000, 1); err == nil {
		t.Error("page above the shrunk break is still mapped")
	}
	if cur, _ = s.Brk(0x10); cur != 0x9100 {
		t.Errorf("Brk below the initial break = %#x", cur)
	}
	// growing into a mapping fails and keeps the old break
	if err := s.MemMap(0xc000, 0x1000, rw); err != nil {
		t.Fatal(err)
	}
	if cur, _ = s.Brk(0xd000); cur != 0x9100 {
		t.Errorf("blocked Brk = %#x", cur)
	}
}

func TestStackPushPop(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	sp := s.reg(t, ndh.SP)
	if _, err := s.Push(0x1234); err != nil {
		t.Fatal(err)
	}
	if got := s.reg(t, ndh.SP); got != sp-2 {
		t.Errorf("sp after push %#x", got)
	}
	mem, err := s.MemRead(sp-2, 2)
	if err != nil || !bytes.Equal(mem, []byte{0x34, 0x12}) {
		t.Errorf("pushed bytes %x, %v", mem, err)
	}
	val, err := s.Pop()
	if err != nil || val != 0x1234 {
		t.Errorf("Pop() = %#x, %v", val, err)
	}
	if got := s.reg(t, ndh.SP); got != sp {
		t.Errorf("sp after pop %#x", got)
	}
	addr, err := s.PushBytes([]byte("abc"))
	if err != nil || addr != sp-3 {
		t.Errorf("PushBytes() = %#x, %v", addr, err)
	}
}

func TestRegs(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if err := s.RegWrite(ndh.R3, 0x1ffff); err != nil {
		t.Fatal(err)
	}
	regs, err := s.Regs()
	if err != nil {
		t.Fatal(err)
	}
	if regs["r3"] != 0xffff {
		t.Errorf("r3 = %#x, want the 16-bit truncation", regs["r3"])
	}
	if regs["pc"] != s.Entry() {
		t.Errorf("pc = %#x", regs["pc"])
	}
	status, err := s.Status(false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains([]byte(status), []byte("r3")) {
		t.Errorf("status %q", status)
	}
}
