package models

import (
	"testing"
)

func TestRepr(t *testing.T) {
	cases := []struct {
		in      string
		strsize int
		out     string
	}{
		{"hello", 30, `"hello"`},
		{"a\nb", 30, `"a\nb"`},
		{"\x00\xff", 30, `"\x00\xff"`},
		{"abcdefgh", 4, `"abcd"...`},
		{`q"`, 0, `"q\""`},
	}
	for _, c := range cases {
		if got := Repr([]byte(c.in), c.strsize); got != c.out {
			t.Errorf("Repr(%q, %d) = %s, want %s", c.in, c.strsize, got, c.out)
		}
	}
}

func TestPrintable(t *testing.T) {
	if !Printable([]byte("hello world\n")) {
		t.Error("text reported as binary")
	}
	if Printable([]byte{0, 1, 2, 3, 'a'}) {
		t.Error("binary reported as text")
	}
}

func TestHexDump(t *testing.T) {
	lines := HexDump(0x1000, []byte("0123456789abcdefXY"), 32)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	want := "0x00001010: 5859                             [XY]"
	if lines[1] != want {
		t.Fatalf("got %q\nwant %q", lines[1], want)
	}
}
