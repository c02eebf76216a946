package models

import (
	"bytes"
	"testing"
)

func pageAlign(addr, size uint64) (uint64, uint64) {
	end := (addr + size + 0xfff) &^ 0xfff
	addr &^= 0xfff
	return addr, end - addr
}

func TestMergeSegments(t *testing.T) {
	segs := []SegmentData{
		{Addr: 0x3000, Size: 0x10, Prot: 1},
		{Addr: 0x1000, Size: 0x800, Prot: 4},
		{Addr: 0x1800, Size: 0x1000, Prot: 2},
		{Addr: 0x8000, Size: 0},
	}
	got := MergeSegments(segs, pageAlign)
	want := []Segment{
		{Start: 0x1000, End: 0x3000, Prot: 6},
		{Start: 0x3000, End: 0x4000, Prot: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("merged %d segments, want %d", len(got), len(want))
	}
	for i, w := range want {
		if *got[i] != w {
			t.Errorf("segment %d = %+v, want %+v", i, *got[i], w)
		}
	}
	// a later segment can bridge two earlier ones
	segs = append(segs, SegmentData{Addr: 0x2800, Size: 0x1000, Prot: 1})
	if got := MergeSegments(segs, pageAlign); len(got) != 1 || got[0].Start != 0x1000 || got[0].End != 0x4000 {
		t.Errorf("bridged merge %+v", got)
	}
}

func TestUnameBytes(t *testing.T) {
	u := &Uname{Sysname: "Linux", Nodename: "a-very-long-host", Machine: "x86_64", Domain: "lan"}
	linux := u.Bytes(8, true)
	if len(linux) != 48 {
		t.Fatalf("linux utsname is %d bytes", len(linux))
	}
	if !bytes.Equal(linux[:8], []byte("Linux\x00\x00\x00")) {
		t.Errorf("sysname %q", linux[:8])
	}
	// truncated, still NUL-terminated
	if !bytes.Equal(linux[8:16], []byte("a-very-\x00")) {
		t.Errorf("nodename %q", linux[8:16])
	}
	if !bytes.HasPrefix(linux[40:], []byte("lan\x00")) {
		t.Errorf("domainname %q", linux[40:])
	}
	if bsd := u.Bytes(8, false); len(bsd) != 40 {
		t.Errorf("bsd utsname is %d bytes", len(bsd))
	}
}
