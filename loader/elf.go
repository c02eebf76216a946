package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

var machineMap = map[elf.Machine]string{
	elf.EM_386:     "x86",
	elf.EM_X86_64:  "x86_64",
	elf.EM_ARM:     "arm",
	elf.EM_AARCH64: "arm64",
	elf.EM_MIPS:    "mips",
}

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

func MatchElf(r io.ReaderAt) bool {
	return bytes.Equal(getMagic(r), elfMagic)
}

type ElfLoader struct {
	LoaderBase
	file *elf.File
	src  io.ReaderAt
}

func NewElfLoader(r io.ReaderAt, osHint string) (models.Loader, error) {
	file, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(err, "elf.NewFile() failed")
	}
	var bits int
	switch file.Class {
	case elf.ELFCLASS32:
		bits = 32
	case elf.ELFCLASS64:
		bits = 64
	default:
		return nil, errors.New("Unknown ELF class.")
	}
	machineName, ok := machineMap[file.Machine]
	if !ok {
		return nil, errors.Errorf("Unsupported machine: %s", file.Machine)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if file.Data == elf.ELFDATA2MSB {
		order = binary.BigEndian
	} else if machineName == "mips" {
		machineName = "mipsel"
	}
	os := "linux"
	if file.OSABI == elf.ELFOSABI_FREEBSD {
		os = "freebsd"
	}
	if osHint != NoOSHint {
		os = osHint
	}
	return &ElfLoader{
		LoaderBase: LoaderBase{
			arch:      machineName,
			bits:      bits,
			byteOrder: order,
			os:        os,
			entry:     file.Entry,
		},
		file: file,
		src:  r,
	}, nil
}

func (e *ElfLoader) Interp() string {
	for _, prog := range e.file.Progs {
		if prog.Type == elf.PT_INTERP {
			data, _ := io.ReadAll(prog.Open())
			return strings.TrimRight(string(data), "\x00")
		}
	}
	return ""
}

func (e *ElfLoader) Type() int {
	switch e.file.Type {
	case elf.ET_EXEC:
		return models.EXEC
	case elf.ET_DYN:
		return models.DYN
	default:
		return models.UNKNOWN
	}
}

// Header returns the program header table's file offset, raw bytes and entry count.
func (e *ElfLoader) Header() (uint64, []byte, int) {
	// e_phoff follows the ident, type, machine, version and entry fields
	at, width, entsize := int64(0x1c), 4, 32
	if e.bits == 64 {
		at, width, entsize = 0x20, 8, 56
	}
	var buf [8]byte
	if _, err := e.src.ReadAt(buf[:width], at); err != nil {
		return 0, nil, 0
	}
	var off uint64
	if width == 4 {
		off = uint64(e.ByteOrder().Uint32(buf[:4]))
	} else {
		off = e.ByteOrder().Uint64(buf[:8])
	}
	count := len(e.file.Progs)
	raw := make([]byte, count*entsize)
	if _, err := e.src.ReadAt(raw, int64(off)); err != nil {
		return off, nil, count
	}
	return off, raw, count
}

func (e *ElfLoader) DataSegment() (start, end uint64) {
	sec := e.file.Section(".data")
	if sec != nil {
		return sec.Addr, sec.Addr + sec.Size
	}
	return 0, 0
}

func progProt(flags elf.ProgFlag) int {
	var prot int
	if flags&elf.PF_R != 0 {
		prot |= cpu.PROT_READ
	}
	if flags&elf.PF_W != 0 {
		prot |= cpu.PROT_WRITE
	}
	if flags&elf.PF_X != 0 {
		prot |= cpu.PROT_EXEC
	}
	return prot
}

func (e *ElfLoader) Segments() ([]models.SegmentData, error) {
	ret := make([]models.SegmentData, 0, len(e.file.Progs))
	for _, prog := range e.file.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		prog := prog
		ret = append(ret, models.SegmentData{
			Off:  prog.Off,
			Addr: prog.Vaddr,
			Size: prog.Memsz,
			Prot: progProt(prog.Flags),
			DataFunc: func() ([]byte, error) {
				data := make([]byte, prog.Filesz)
				if _, err := io.ReadFull(prog.Open(), data); err != nil {
					return nil, errors.Wrapf(err, "reading segment at %#x", prog.Vaddr)
				}
				return data, nil
			},
		})
	}
	return ret, nil
}
