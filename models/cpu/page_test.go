package cpu

import (
	"testing"
)

func TestPageFind(t *testing.T) {
	mem := Pages{
		&Page{Addr: 0x1000, Size: 0x1000},
		&Page{Addr: 0x2000, Size: 0x1000},
		&Page{Addr: 0x4000, Size: 0x2000},
		&Page{Addr: 0x6000, Size: 0x2000},
	}
	if mem.Find(0x1000) != mem[0] ||
		mem.Find(0x1001) != mem[0] ||
		mem.Find(0x1fff) != mem[0] ||
		mem.Find(0x7fff) != mem[3] {
		t.Error("Find() failed")
	}
	if mem.Find(0x3000) != nil ||
		mem.Find(0x1) != nil ||
		mem.Find(0x10000) != nil {
		t.Error("Find() negative failed")
	}
	if mem.FirstOverlap(0x2800, 0x2000) != mem[1] || mem.FirstOverlap(0x3000, 0x1000) != nil {
		t.Error("FirstOverlap() failed")
	}
}

func TestPageSplit(t *testing.T) {
	data := pattern(0x3000)
	pg := &Page{Addr: 0x1000, Size: 0x3000, Prot: PROT_READ, Data: data,
		File: &FileDesc{Name: "bin", Off: 0, Len: 0x3000}}
	left, right := pg.Split(0x2000, 0x1000)
	if left == nil || right == nil {
		t.Fatal("expected both sides of split")
	}
	if left.Addr != 0x1000 || left.Size != 0x1000 || pg.Addr != 0x2000 || pg.Size != 0x1000 ||
		right.Addr != 0x3000 || right.Size != 0x1000 {
		t.Fatalf("bad split: %s | %s | %s", left, pg, right)
	}
	if pg.Data[0] != data[0x1000] || right.Data[0] != data[0x2000] {
		t.Fatal("split data misaligned")
	}
	if pg.File == nil || pg.File.Off != 0x1000 || right.File.Off != 0x2000 {
		t.Fatal("split file offsets wrong")
	}

	// bookkeeping pages have no data to slice
	meta := &Page{Addr: 0x1000, Size: 0x3000}
	left, right = meta.Split(0x0, 0x2000)
	if left != nil || right == nil || right.Data != nil || meta.Size != 0x1000 {
		t.Fatalf("bad metadata split: %v %s %s", left, meta, right)
	}
}

func TestPageString(t *testing.T) {
	pg := &Page{Addr: 0x1000, Size: 0x1000, Prot: PROT_READ | PROT_EXEC, Desc: "exe"}
	if s := pg.String(); s != "0x1000-0x2000 r-x [exe]" {
		t.Fatalf("unexpected page string: %q", s)
	}
}
