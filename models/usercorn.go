package models

import (
	"encoding/binary"

	"github.com/hashicorp/go-hclog"
	"github.com/lunixbochs/argjoy"

	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
)

// Usercorn is the view of a running session given to arch, kernel and loader code.
type Usercorn interface {
	Arch() *Arch
	OS() *OS
	Bits() uint
	ByteOrder() binary.ByteOrder
	Config() *Config
	Log() hclog.Logger
	Cpu() cpu.Cpu

	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error
	ReadRegs(regs []int) ([]uint64, error)

	// permission-checked guest memory access
	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error
	// MemCheck validates an access without performing it
	MemCheck(addr, size uint64, prot int) error
	ReadCString(addr uint64) (string, error)
	// loader and kernel access, ignoring protections
	MemReadRaw(addr, size uint64) ([]byte, error)
	MemWriteRaw(addr uint64, p []byte) error

	MemMap(addr, size uint64, prot int) error
	MemUnmap(addr, size uint64) error
	MemProt(addr, size uint64, prot int) error
	Mmap(addr, size uint64, prot int, fixed bool, desc string, file *cpu.FileDesc) (uint64, error)
	Mappings() cpu.Pages
	Brk(addr uint64) (uint64, error)
	StrucAt(addr uint64) *StrucStream

	PackAddr(buf []byte, n uint64) ([]byte, error)
	UnpackAddr(buf []byte) uint64
	Push(n uint64) (uint64, error)
	PushBytes(p []byte) (uint64, error)
	Pop() (uint64, error)

	Files() *fs.Table
	Argjoy() *argjoy.Argjoy

	Exe() string
	Loader() Loader
	Base() uint64
	// load address of the program interpreter, 0 without one
	InterpBase() uint64
	Entry() uint64

	Syscall() error
	Exit(code int)
	Exec(path string, argv, envp []string) error
	Stop() error
}
