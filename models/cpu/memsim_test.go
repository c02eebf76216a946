package cpu

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func pattern(len int) []byte {
	p := make([]byte, len)
	width := 8
	for i := range p {
		cycle := i / width
		p[i] = byte(cycle*width*i + i)
	}
	return p
}

// table of overlap tests for an 0x1100-0x1200 region
// {start, end, should_error}
var overlapTable = [][]uint64{
	{0x1000, 0x1100, 0},
	{0x1000, 0x1050, 0},
	{0x1000, 0x1200, 1},
	{0x1000, 0x1250, 1},
	{0x1100, 0x1150, 1},
	{0x1100, 0x1200, 1},
	{0x1100, 0x1250, 1},
	{0x1150, 0x1200, 1},
	{0x1150, 0x1250, 1},
	{0x1200, 0x1250, 0},
}

func BenchmarkMemSimRead(b *testing.B) {
	m := &MemSim{}
	m.Map(0x1000, 0x100000, 0, true)
	p := make([]byte, 4)
	for i := 0; i < b.N; i++ {
		m.Read(0x1000+uint64(i*4)&0xfffff, p, 0)
	}
}

func TestMemSim(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x1000, 0, false)

	b := pattern(0x1000)
	c := make([]byte, len(b))
	if err := m.Write(0x1000, b, 0); err != nil {
		t.Fatal(err, "write failed")
	} else if err := m.Read(0x1000, c, 0); err != nil {
		t.Fatal(err, "read failed")
	} else if !bytes.Equal(b, c) {
		t.Fatal("read/write inconsistent")
	}

	m.Unmap(0x1100, 0x100)

	// memory around the hole keeps its contents
	if err := m.Read(0x1000, c[:0x100], 0); err != nil {
		t.Error("failed to read left-adjacent memory after unmap")
	} else if !bytes.Equal(b[:0x100], c[:0x100]) {
		t.Error("left-adjacent memory corruption after unmap")
	}
	if err := m.Read(0x1200, c[:0x100], 0); err != nil {
		t.Error("failed to read right-adjacent memory after unmap")
	} else if !bytes.Equal(b[0x200:0x300], c[:0x100]) {
		t.Error("right-adjacent memory corruption after unmap")
	}

	for _, region := range overlapTable {
		p := make([]byte, region[1]-region[0])
		if err := m.Read(region[0], p, 0); err == nil && region[2] == 1 || err != nil && region[2] == 0 {
			t.Errorf("read_unmapped(%#x, %#x) bad error value: %v", region[0], region[1], err)
		}
		if err := m.Write(region[0], p, 0); err == nil && region[2] == 1 || err != nil && region[2] == 0 {
			t.Errorf("write_unmapped(%#x, %#x) bad error value: %v", region[0], region[1], err)
		}
	}

	// io across multiple adjacent maps
	m = &MemSim{}
	m.Map(0x1000, 0x1000, 0, false)
	m.Map(0x2000, 0x1000, 0, false)
	m.Map(0x3000, 0x1000, 0, false)
	b = pattern(0x3000)
	c = make([]byte, len(b))
	if err := m.Write(0x1000, b, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Read(0x1000, c, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, c) {
		t.Fatal("cross-page read/write inconsistent")
	}
}

func TestMemSimProt(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x3000, PROT_READ|PROT_WRITE, true)
	m.Prot(0x2000, 0x1000, PROT_READ)
	if len(m.Mem) != 3 {
		t.Fatalf("expected 3 pages after prot split, got:\n%s", m.Mem)
	}
	if err := m.Write(0x1ffe, []byte{1, 2, 3, 4}, PROT_WRITE); err == nil {
		t.Fatal("write into read-only page succeeded")
	} else {
		var merr *MemError
		if !errors.As(err, &merr) || merr.Enum != MEM_WRITE_PROT {
			t.Fatalf("expected protected write, got %v", err)
		}
	}
	if err := m.Read(0x1ffe, make([]byte, 4), PROT_READ); err != nil {
		t.Fatal(err)
	}
}

// every access outside a mapping, or without the needed protection, is an access violation
func TestAccessViolation(t *testing.T) {
	m := &MemSim{}
	m.Map(0x1000, 0x1000, PROT_READ, true)
	m.Map(0x2000, 0x1000, PROT_READ|PROT_WRITE, true)
	m.Map(0x4000, 0x1000, PROT_EXEC, true)

	cases := []struct {
		addr, size uint64
		prot       int
		write      bool
		ok         bool
	}{
		{0x1000, 0x10, PROT_READ, false, true},
		{0x1000, 0x10, PROT_WRITE, true, false},
		{0x1ff0, 0x20, PROT_READ, false, true},
		{0x1ff0, 0x20, PROT_WRITE, true, false},
		{0x2000, 0x1000, PROT_WRITE, true, true},
		{0x2ff0, 0x20, PROT_READ, false, false},
		{0x3000, 0x10, PROT_READ, false, false},
		{0x4000, 0x10, PROT_EXEC, false, true},
		{0x4000, 0x10, PROT_READ, false, false},
		{0x0, 0x10, PROT_READ, false, false},
	}
	for _, c := range cases {
		p := make([]byte, c.size)
		var err error
		if c.write {
			err = m.Write(c.addr, p, c.prot)
		} else {
			err = m.Read(c.addr, p, c.prot)
		}
		if c.ok && err != nil {
			t.Errorf("%#x+%#x prot=%d: unexpected error %v", c.addr, c.size, c.prot, err)
		} else if !c.ok && !errors.Is(err, ErrAccessViolation) {
			t.Errorf("%#x+%#x prot=%d: expected access violation, got %v", c.addr, c.size, c.prot, err)
		}
	}
}

func TestMemSimNoData(t *testing.T) {
	m := &MemSim{NoData: true}
	m.Map(0x1000, 0x2000, PROT_READ, true)
	m.Unmap(0x1800, 0x100)
	m.Prot(0x1000, 0x100, PROT_ALL)
	for _, pg := range m.Mem {
		if pg.Data != nil {
			t.Fatalf("bookkeeping page has data: %s", pg)
		}
	}
	if ok, _ := m.RangeValid(0x1700, 0x200, 0); ok {
		t.Fatal("range spanning hole reported as mapped")
	}
	if err := m.Read(0x1000, make([]byte, 0x100), PROT_EXEC); err != nil {
		t.Fatal(err)
	}
}

func TestMemSimFindFree(t *testing.T) {
	m := &MemSim{NoData: true}
	m.Map(0x1000, 0x1000, PROT_READ, true)
	m.Map(0x3000, 0x1000, PROT_READ, true)
	cases := []struct{ hint, size, want uint64 }{
		{0x0, 0x1000, 0x0},
		{0x1000, 0x1000, 0x2000},
		{0x1000, 0x2000, 0x4000},
		{0x2800, 0x100, 0x2800},
	}
	for _, c := range cases {
		addr, ok := m.FindFree(c.hint, c.size, 0x10000, 0x100)
		if !ok || addr != c.want {
			t.Errorf("FindFree(%#x, %#x) = %#x, %v; want %#x", c.hint, c.size, addr, ok, c.want)
		}
	}
	if _, ok := m.FindFree(0xf000, 0x2000, 0x10000, 0x1000); ok {
		t.Error("FindFree returned a range past the limit")
	}
}

func TestMemOverlap(t *testing.T) {
	mem := NewMem(32, nil)
	if err := mem.MemMapProt(0x1000, 0x1000, PROT_ALL); err != nil {
		t.Fatal(err)
	}
	err := mem.MemMapProt(0x1800, 0x1000, PROT_ALL)
	var oerr *OverlapError
	if !errors.As(err, &oerr) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	if oerr.Existing.Addr != 0x1000 {
		t.Fatalf("wrong overlapped page: %s", oerr.Existing)
	}
}

func TestMemSimCheck(t *testing.T) {
	m := &MemSim{NoData: true}
	m.Map(0x1000, 0x1000, PROT_READ, true)
	m.Map(0x2000, 0x1000, PROT_READ|PROT_WRITE, true)
	if err := m.Check(0x1800, 0x1000, PROT_READ, false); err != nil {
		t.Fatalf("read across pages: %v", err)
	}
	var merr *MemError
	if err := m.Check(0x1800, 0x1000, PROT_WRITE, true); !errors.As(err, &merr) || merr.Enum != MEM_WRITE_PROT {
		t.Fatalf("write to read-only page: %v", err)
	}
	if err := m.Check(0x2800, 0x1000, PROT_READ, false); !errors.Is(err, ErrAccessViolation) {
		t.Fatalf("read past end: %v", err)
	}
	if err := m.Check(^uint64(0)-4, 0x10, PROT_READ, false); err == nil {
		t.Fatal("wrapping range passed")
	}
}
