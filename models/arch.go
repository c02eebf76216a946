package models

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

type RegReader interface {
	RegRead(reg int) (uint64, error)
}

type Arch struct {
	Name  string
	Bits  int
	Order binary.ByteOrder
	PC    int
	SP    int
	Regs  map[string]int
	// shown first by status output
	DefaultRegs []string

	Cpu cpu.Builder
	OS  map[string]*OS

	// sorted for RegDump, built once on first use
	regOnce sync.Once
	regList regList
}

func (a *Arch) RegisterOS(os *OS) {
	if a.OS == nil {
		a.OS = make(map[string]*OS)
	}
	if _, ok := a.OS[os.Name]; ok {
		panic("Duplicate OS " + os.Name)
	}
	a.OS[os.Name] = os
}

// RegEnums lists every named register, in dump order.
func (a *Arch) RegEnums() []int {
	a.sortRegs()
	ret := make([]int, len(a.regList))
	for i, r := range a.regList {
		ret[i] = r.Enum
	}
	return ret
}

func (a *Arch) sortRegs() {
	a.regOnce.Do(func() {
		rl := make(regList, 0, len(a.Regs))
		for name, enum := range a.Regs {
			rl = append(rl, Reg{enum, name})
		}
		sort.Sort(rl)
		a.regList = rl
	})
}

func (a *Arch) RegDump(u RegReader) ([]RegVal, error) {
	a.sortRegs()
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := u.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}

// SmokeTest checks the engine builds and round-trips the stack pointer.
func (a *Arch) SmokeTest(t *testing.T) {
	c, err := a.Cpu.New()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.RegWrite(a.SP, 0x1000); err != nil {
		t.Fatal(err)
	}
	val, err := c.RegRead(a.SP)
	if err != nil {
		t.Fatal(err)
	}
	if val != 0x1000 {
		t.Fatal(a.Name + " failed to read/write stack pointer")
	}
}

func (a *Arch) String() string {
	return fmt.Sprintf("<Arch %s>", a.Name)
}

// OS describes how a guest kernel ABI looks on one architecture.
type OS struct {
	Name string

	SyscallReg int
	ArgRegs    []int
	// arguments past ArgRegs are read from SP+StackSkip
	StackArgs bool
	StackSkip uint64
	RetReg    int

	// numbers this layer implements, by canonical name
	Syscalls map[int]string
	// wider naming table for diagnostics
	Names  map[int]string
	Kernel map[string]*Syscall
	// errno name to guest value
	Errno     map[string]int
	OpenFlags *fs.FlagMap
	// MAP_ANONYMOUS bit; 0 means Linux's 0x20
	MapAnon uint64
	// kernel name and release reported by uname
	Sysname, Release string
	// utsname field width; 0 means Linux's 65 with a domainname field
	UtsLen int

	SetReturn  func(u Usercorn, ret uint64, errno int) error
	Setup      func(u Usercorn) error
	Init       func(u Usercorn, argv, env []string) error
	Interrupt  func(u Usercorn, intno uint32) error
	SyscallNum func(u Usercorn, raw uint64) int
	// builds the guest stat layout
	Stat func(st *Stat, bits uint, wide bool) interface{}
}

// Lookup returns the canonical name and default handler for a syscall number.
// The handler is nil when the number is unknown or has no implementation.
func (o *OS) Lookup(num int) (string, *Syscall) {
	name, ok := o.Syscalls[num]
	if !ok {
		return o.SyscallName(num), nil
	}
	return name, o.Kernel[name]
}

func (o *OS) SyscallName(num int) string {
	if name, ok := o.Syscalls[num]; ok {
		return name
	}
	if name, ok := o.Names[num]; ok {
		return name
	}
	return fmt.Sprintf("sys_%d", num)
}

func (o *OS) String() string {
	return fmt.Sprintf("<OS %s>", o.Name)
}
