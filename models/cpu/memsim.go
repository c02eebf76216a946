package cpu

import (
	"sort"
)

// MemSim is a sorted list of non-overlapping pages.
// With NoData set, pages only track address ranges and protections.
type MemSim struct {
	Mem    Pages
	NoData bool
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if !mm.Contains(addr) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		addr = mm.Addr + mm.Size
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Check validates an access against the page list without touching data.
func (m *MemSim) Check(addr, size uint64, prot int, write bool) error {
	if addr+size < addr {
		return accessError(addr, int(size), prot, write, false)
	}
	if gmap, gprot := m.RangeValid(addr, size, prot); !gmap || !gprot {
		return accessError(addr, int(size), prot, write, gmap)
	}
	return nil
}

// Overlap returns the first page intersecting the range, or nil if the range is free.
func (m *MemSim) Overlap(addr, size uint64) *Page {
	return m.Mem.FirstOverlap(addr, size)
}

// Maps <addr> - <addr>+<size> and protects with prot.
// If zero is false, it first copies any existing data in this range to the new mapping.
// Any overlapping regions are unmapped first.
func (m *MemSim) Map(addr, size uint64, prot int, zero bool) *Page {
	var data []byte
	if !m.NoData {
		data = make([]byte, size)
		if !zero {
			m.readPartial(addr, data)
		}
	}
	m.Unmap(addr, size)
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: data}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page
}

// Prot splits any page crossing the range edges and re-protects the middle.
func (m *MemSim) Prot(addr, size uint64, prot int) {
	tmp := make(Pages, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if mm.Overlaps(addr, size) {
			left, right := mm.Split(addr, size)
			if left != nil {
				tmp = append(tmp, left)
			}
			mm.Prot = prot
			tmp = append(tmp, mm)
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Unmap(addr, size uint64) {
	tmp := make(Pages, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if mm.Overlaps(addr, size) {
			left, right := mm.Split(addr, size)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

// FindFree returns the lowest address >= hint where size bytes fit without overlap,
// staying below limit.
func (m *MemSim) FindFree(hint, size, limit, align uint64) (uint64, bool) {
	if align == 0 {
		align = 1
	}
	addr := (hint + align - 1) &^ (align - 1)
	for _, mm := range m.Mem {
		if mm.End() <= addr {
			continue
		}
		if mm.Addr >= addr+size {
			break
		}
		addr = (mm.End() + align - 1) &^ (align - 1)
	}
	if addr+size < addr || addr+size > limit {
		return 0, false
	}
	return addr, true
}

// readPartial copies whatever mapped bytes exist in range into p, skipping holes.
func (m *MemSim) readPartial(addr uint64, p []byte) {
	for _, mm := range m.Mem {
		if start, size, ok := mm.Intersect(addr, uint64(len(p))); ok && mm.Data != nil {
			copy(p[start-addr:start-addr+size], mm.Data[start-mm.Addr:])
		}
	}
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap || !gprot {
		return accessError(addr, len(p), prot, false, gmap)
	}
	if m.NoData {
		return nil
	}
	i := m.Mem.bsearch(addr)
	if i >= 0 {
		for _, mm := range m.Mem[i:] {
			if len(p) == 0 || !mm.Contains(addr) {
				break
			}
			o := addr - mm.Addr
			n := copy(p, mm.Data[o:])
			addr, p = addr+uint64(n), p[n:]
		}
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap || !gprot {
		return accessError(addr, len(p), prot, true, gmap)
	}
	if m.NoData {
		return nil
	}
	i := m.Mem.bsearch(addr)
	if i >= 0 {
		for _, mm := range m.Mem[i:] {
			if len(p) == 0 || !mm.Contains(addr) {
				break
			}
			o := addr - mm.Addr
			n := copy(mm.Data[o:], p)
			addr, p = addr+uint64(n), p[n:]
		}
	}
	return nil
}
