package sandcorn

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

// Task owns the engine and the permission-checked view of guest memory.
// Every region is tracked in memsim, so accesses are validated before the engine sees them.
type Task struct {
	engine cpu.Cpu

	arch   *models.Arch
	os     *models.OS
	bits   int
	bsz    int
	order  binary.ByteOrder
	memsim cpu.MemSim
	maxStr int

	brkInit, brk uint64
	closed       bool
}

func NewTask(c cpu.Cpu, arch *models.Arch, os *models.OS, order binary.ByteOrder) *Task {
	return &Task{
		engine: c,
		arch:   arch,
		os:     os,
		bits:   arch.Bits,
		bsz:    arch.Bits / 8,
		order:  order,
		memsim: cpu.MemSim{NoData: true},
		maxStr: models.DefaultMaxStrLen,
	}
}

func (t *Task) check() error {
	if t.closed {
		return models.ErrSessionClosed
	}
	return nil
}

func (t *Task) Arch() *models.Arch {
	return t.arch
}

func (t *Task) OS() *models.OS {
	return t.os
}

func (t *Task) Bits() uint {
	return uint(t.bits)
}

func (t *Task) ByteOrder() binary.ByteOrder {
	return t.order
}

func (t *Task) Cpu() cpu.Cpu {
	return t.engine
}

func (t *Task) addrLimit() uint64 {
	if t.bits >= 64 {
		return ^uint64(0)
	}
	return 1 << uint(t.bits)
}

// small guests have no room above BASE
func (t *Task) mmapBase() uint64 {
	if t.bits < 32 {
		return PAGE_SIZE
	}
	return BASE
}

func (t *Task) MemMap(addr, size uint64, prot int) error {
	return t.MemMapDesc(addr, size, prot, "", nil)
}

// MemMapDesc maps a new page-aligned region. It never replaces existing memory.
func (t *Task) MemMapDesc(addr, size uint64, prot int, desc string, file *cpu.FileDesc) error {
	if err := t.check(); err != nil {
		return err
	}
	if size == 0 {
		return errors.Errorf("zero-length mapping at %#x", addr)
	}
	addr, size = align(addr, size)
	if pg := t.memsim.Overlap(addr, size); pg != nil {
		return &cpu.OverlapError{Addr: addr, Size: size, Existing: pg}
	}
	if err := t.engine.MemMapProt(addr, size, prot); err != nil {
		return errors.Wrap(err, "MemMapProt() failed")
	}
	page := t.memsim.Map(addr, size, prot, true)
	page.Desc, page.File = desc, file
	return nil
}

// Mmap allocates a region near addr. With fixed set, anything already in the way is replaced.
func (t *Task) Mmap(addr, size uint64, prot int, fixed bool, desc string, file *cpu.FileDesc) (uint64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, errors.New("zero-length mmap")
	}
	aligned, size := align(addr, size)
	if file != nil && file.Off >= addr-aligned {
		file.Off -= addr - aligned
	}
	if fixed {
		if err := t.MemUnmap(aligned, size); err != nil {
			return 0, err
		}
	} else if aligned == 0 || t.memsim.Overlap(aligned, size) != nil {
		hint := aligned
		if hint == 0 {
			hint = t.mmapBase()
		}
		var ok bool
		if aligned, ok = t.memsim.FindFree(hint, size, t.addrLimit(), PAGE_SIZE); !ok {
			if aligned, ok = t.memsim.FindFree(PAGE_SIZE, size, t.addrLimit(), PAGE_SIZE); !ok {
				return 0, errors.Errorf("no free range for %#x bytes", size)
			}
		}
	}
	return aligned, t.MemMapDesc(aligned, size, prot, desc, file)
}

// MemUnmap removes any mapped pages in range, splitting regions at the edges.
func (t *Task) MemUnmap(addr, size uint64) error {
	if err := t.check(); err != nil {
		return err
	}
	addr, size = align(addr, size)
	for _, pg := range t.memsim.Mem {
		if start, n, ok := pg.Intersect(addr, size); ok {
			if err := t.engine.MemUnmap(start, n); err != nil {
				return errors.Wrap(err, "MemUnmap() failed")
			}
		}
	}
	t.memsim.Unmap(addr, size)
	return nil
}

func (t *Task) MemProt(addr, size uint64, prot int) error {
	if err := t.check(); err != nil {
		return err
	}
	addr, size = align(addr, size)
	if err := t.memsim.Check(addr, size, 0, false); err != nil {
		return err
	}
	if err := t.engine.MemProt(addr, size, prot); err != nil {
		return errors.Wrap(err, "MemProt() failed")
	}
	t.memsim.Prot(addr, size, prot)
	return nil
}

// Mappings returns a snapshot of the region list, sorted by address.
func (t *Task) Mappings() cpu.Pages {
	out := make(cpu.Pages, len(t.memsim.Mem))
	for i, pg := range t.memsim.Mem {
		cp := *pg
		if pg.File != nil {
			file := *pg.File
			cp.File = &file
		}
		out[i] = &cp
	}
	return out
}

func (t *Task) readInto(p []byte, addr uint64, prot int) error {
	if err := t.check(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if err := t.memsim.Check(addr, uint64(len(p)), prot, false); err != nil {
		return err
	}
	return errors.Wrap(t.engine.MemReadInto(p, addr), "MemReadInto() failed")
}

func (t *Task) write(addr uint64, p []byte, prot int) error {
	if err := t.check(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if err := t.memsim.Check(addr, uint64(len(p)), prot, true); err != nil {
		return err
	}
	return errors.Wrap(t.engine.MemWrite(addr, p), "MemWrite() failed")
}

func (t *Task) read(addr, size uint64, prot int) ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	// check before allocating
	if size > 0 {
		if err := t.memsim.Check(addr, size, prot, false); err != nil {
			return nil, err
		}
	}
	p := make([]byte, size)
	return p, t.readInto(p, addr, prot)
}

func (t *Task) MemReadInto(p []byte, addr uint64) error {
	return t.readInto(p, addr, cpu.PROT_READ)
}

func (t *Task) MemRead(addr, size uint64) ([]byte, error) {
	return t.read(addr, size, cpu.PROT_READ)
}

func (t *Task) MemWrite(addr uint64, p []byte) error {
	return t.write(addr, p, cpu.PROT_WRITE)
}

// MemReadRaw ignores protections, but the range must be mapped.
func (t *Task) MemReadRaw(addr, size uint64) ([]byte, error) {
	return t.read(addr, size, 0)
}

func (t *Task) MemWriteRaw(addr uint64, p []byte) error {
	return t.write(addr, p, 0)
}

func (t *Task) MemCheck(addr, size uint64, prot int) error {
	if err := t.check(); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	return t.memsim.Check(addr, size, prot, prot&cpu.PROT_WRITE != 0)
}

// ReadCString scans for a NUL terminator, at most maxStr bytes.
func (t *Task) ReadCString(addr uint64) (string, error) {
	const chunk = 64
	var buf []byte
	start := addr
	for len(buf) < t.maxStr {
		// stay inside one page so a string ending before unmapped memory still reads
		n := alignDown(addr, PAGE_SIZE) + PAGE_SIZE - addr
		if n > chunk {
			n = chunk
		}
		if rem := uint64(t.maxStr - len(buf)); n > rem {
			n = rem
		}
		p, err := t.MemRead(addr, n)
		if err != nil {
			return "", err
		}
		if i := bytes.IndexByte(p, 0); i >= 0 {
			return string(append(buf, p[:i]...)), nil
		}
		buf = append(buf, p...)
		addr += n
	}
	return "", errors.Wrapf(cpu.ErrAccessViolation, "unterminated string at %#x", start)
}

func (t *Task) StrucAt(addr uint64) *models.StrucStream {
	return &models.StrucStream{
		Stream: &models.MemStream{Mem: t, Addr: addr},
		Order:  t.order,
	}
}

func (t *Task) PackAddr(buf []byte, n uint64) ([]byte, error) {
	return cpu.PackUint(t.order, t.bsz, buf, n)
}

func (t *Task) UnpackAddr(buf []byte) uint64 {
	n, err := cpu.UnpackUint(t.order, t.bsz, buf)
	if err != nil {
		panic(err)
	}
	return n
}

func (t *Task) PushBytes(p []byte) (uint64, error) {
	sp, err := t.RegRead(t.arch.SP)
	if err != nil {
		return 0, err
	}
	sp -= uint64(len(p))
	if err := t.MemWrite(sp, p); err != nil {
		return 0, err
	}
	return sp, t.RegWrite(t.arch.SP, sp)
}

func (t *Task) Push(n uint64) (uint64, error) {
	var tmp [8]byte
	buf, err := t.PackAddr(tmp[:], n)
	if err != nil {
		return 0, err
	}
	return t.PushBytes(buf)
}

func (t *Task) Pop() (uint64, error) {
	sp, err := t.RegRead(t.arch.SP)
	if err != nil {
		return 0, err
	}
	buf, err := t.MemRead(sp, uint64(t.bsz))
	if err != nil {
		return 0, err
	}
	return t.UnpackAddr(buf), t.RegWrite(t.arch.SP, sp+uint64(t.bsz))
}

// initBrk places the program break on the page after end.
func (t *Task) initBrk(end uint64) {
	t.brkInit = alignUp(end, PAGE_SIZE)
	t.brk = t.brkInit
}

// Brk moves the program break, mapping or unmapping whole pages.
// It never drops below the initial break, and a failed grow reports the old one.
func (t *Task) Brk(addr uint64) (uint64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	if addr < t.brkInit {
		return t.brk, nil
	}
	cur, next := alignUp(t.brk, PAGE_SIZE), alignUp(addr, PAGE_SIZE)
	switch {
	case next > cur:
		if err := t.MemMapDesc(cur, next-cur, cpu.PROT_READ|cpu.PROT_WRITE, "brk", nil); err != nil {
			return t.brk, nil
		}
	case next < cur:
		if err := t.MemUnmap(next, cur-next); err != nil {
			return t.brk, err
		}
	}
	t.brk = addr
	return t.brk, nil
}

func (t *Task) RegRead(enum int) (uint64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	val, err := t.engine.RegRead(enum)
	return val, errors.Wrap(err, "RegRead() failed")
}

func (t *Task) RegWrite(enum int, val uint64) error {
	if err := t.check(); err != nil {
		return err
	}
	return errors.Wrap(t.engine.RegWrite(enum, val), "RegWrite() failed")
}

func (t *Task) ReadRegs(regs []int) ([]uint64, error) {
	vals := make([]uint64, len(regs))
	for i, enum := range regs {
		val, err := t.RegRead(enum)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

func (t *Task) RegDump() ([]models.RegVal, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.arch.RegDump(t)
}

// Regs returns every named register by name.
func (t *Task) Regs() (map[string]uint64, error) {
	dump, err := t.RegDump()
	if err != nil {
		return nil, err
	}
	regs := make(map[string]uint64, len(dump))
	for _, r := range dump {
		regs[r.Name] = r.Val
	}
	return regs, nil
}
