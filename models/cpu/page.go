package cpu

import (
	"fmt"
	"strings"
)

type FileDesc struct {
	Name string
	Off  uint64
	Len  uint64
}

// Page is one contiguous mapped region. Data is nil for bookkeeping-only pages.
type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte

	Desc string
	File *FileDesc
}

func (p *Page) String() string {
	desc := fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.Addr+p.Size, ProtString(p.Prot))
	if p.Desc != "" {
		desc += fmt.Sprintf(" [%s]", p.Desc)
	}
	if p.File != nil {
		desc += fmt.Sprintf(" %s", p.File.Name)
	}
	return desc
}

func (p *Page) End() uint64 {
	return p.Addr + p.Size
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (p *Page) Intersect(addr, size uint64) (uint64, uint64, bool) {
	start := p.Addr
	end := p.Addr + p.Size
	e2 := addr + size
	if end > e2 {
		end = e2
	}
	if start < addr {
		start = addr
	}
	return start, end - start, end > start
}

func (p *Page) Overlaps(addr, size uint64) bool {
	_, _, ok := p.Intersect(addr, size)
	return ok
}

// slice returns a copy of the page header for [addr, addr+size), sharing Data.
func (p *Page) slice(addr, size uint64) *Page {
	o := addr - p.Addr
	var file *FileDesc
	if p.File != nil && o < p.File.Len {
		file = &FileDesc{
			Name: p.File.Name,
			Len:  p.File.Len - o,
			Off:  p.File.Off + o,
		}
	}
	var data []byte
	if p.Data != nil {
		data = p.Data[o : o+size]
	}
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: data, Desc: p.Desc, File: file}
}

// Split cuts the page down to the part intersecting [addr, addr+size).
// The pieces outside that range are returned as left and right.
func (p *Page) Split(addr, size uint64) (left, right *Page) {
	start, length, ok := p.Intersect(addr, size)
	if !ok {
		return nil, nil
	}
	if end := start + length; end < p.End() {
		right = p.slice(end, p.End()-end)
	}
	if start > p.Addr {
		left = p.slice(p.Addr, start-p.Addr)
	}
	mid := p.slice(start, length)
	p.Addr, p.Size, p.Data, p.File = mid.Addr, mid.Size, mid.Data, mid.File
	return left, right
}

func (pg *Page) Write(addr uint64, p []byte) {
	copy(pg.Data[addr-pg.Addr:], p)
}

type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// binary search to find index of first region containing addr, if any, else -1
func (p Pages) bsearch(addr uint64) int {
	l := 0
	r := len(p) - 1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr >= e.Addr {
			if addr < e.Addr+e.Size {
				return mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	i := p.bsearch(addr)
	if i >= 0 {
		return p[i]
	}
	return nil
}

// FirstOverlap returns the lowest page intersecting [addr, addr+size), or nil.
func (p Pages) FirstOverlap(addr, size uint64) *Page {
	for _, pg := range p {
		if pg.Overlaps(addr, size) {
			return pg
		}
	}
	return nil
}
