package models

import (
	"reflect"

	"github.com/lunixbochs/argjoy"
	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models/cpu"
)

// argument kinds, used to decode and print syscall arguments
const (
	INT = iota
	ENUM
	FD
	STR
	BUF
	OBUF
	LEN
	OFF
	PTR
	PID
)

var kindNames = []string{"int", "enum", "fd", "str", "buf", "obuf", "len", "off", "ptr", "pid"}

func KindName(kind int) string {
	if kind >= 0 && kind < len(kindNames) {
		return kindNames[kind]
	}
	return "?"
}

var (
	ErrUnimplementedSyscall = errors.New("unimplemented syscall")
	ErrSessionClosed        = errors.New("session closed")
	ErrUnhandledInterrupt   = errors.New("unhandled interrupt")
)

func UnhandledInterrupt(intno uint32) error {
	return errors.Wrapf(ErrUnhandledInterrupt, "intno %d", intno)
}

type SyscallFunc func(u Usercorn, a *Args) (uint64, error)

type Syscall struct {
	Name string
	Args []int
	Ret  int
	Func SyscallFunc
}

func Sys(name string, fn SyscallFunc, ret int, args ...int) *Syscall {
	return &Syscall{Name: name, Args: args, Ret: ret, Func: fn}
}

type (
	Buf struct {
		Addr uint64
		U    Usercorn
	}
	// output buffer, filled by the kernel
	Obuf struct{ Buf }
	Len  uint64
	Off  int64
	Fd   int32
	Ptr  uint64
)

func (b Buf) Struc() *StrucStream {
	return b.U.StrucAt(b.Addr)
}

func (b Buf) Pack(i interface{}) error {
	return errors.Wrap(b.Struc().Pack(i), "struc.Pack() failed")
}

func (b Buf) Unpack(i interface{}) error {
	return errors.Wrap(b.Struc().Unpack(i), "struc.Unpack() failed")
}

func (b Buf) Read(n uint64) ([]byte, error) {
	return b.U.MemRead(b.Addr, n)
}

func (b Buf) Write(p []byte) error {
	return b.U.MemWrite(b.Addr, p)
}

// Writable fails if n bytes at the buffer cannot be written.
func (b Obuf) Writable(n uint64) error {
	return b.U.MemCheck(b.Addr, n, cpu.PROT_WRITE)
}

// Args holds one decoded syscall invocation.
type Args struct {
	Num   int
	Name  string
	Raw   []uint64
	Kinds []int
	U     Usercorn
}

func (a *Args) Uint(i int) uint64 {
	if i < len(a.Raw) {
		return a.Raw[i]
	}
	return 0
}

// Int sign-extends from the guest word size.
func (a *Args) Int(i int) int64 {
	return cpu.SignExtend(a.Uint(i), a.U.Bits())
}

func (a *Args) Fd(i int) int {
	return int(int32(a.Uint(i)))
}

func (a *Args) Str(i int) (string, error) {
	return a.U.ReadCString(a.Uint(i))
}

func (a *Args) Buf(i int) Buf {
	return Buf{Addr: a.Uint(i), U: a.U}
}

// Unpack converts the leading raw arguments into the types pointed to by dst.
func (a *Args) Unpack(dst ...interface{}) error {
	if len(dst) > len(a.Raw) {
		return errors.Errorf("%s: wanted %d args, have %d", a.Name, len(dst), len(a.Raw))
	}
	types := make([]reflect.Type, len(dst))
	for i, d := range dst {
		v := reflect.ValueOf(d)
		if v.Kind() != reflect.Ptr || v.IsNil() {
			return errors.Errorf("%s: Unpack target %d is %T, not a pointer", a.Name, i, d)
		}
		types[i] = v.Elem().Type()
	}
	vals, err := a.U.Argjoy().Convert(types, false, a.Raw[:len(dst)])
	if err != nil {
		return errors.Wrapf(err, "%s: unpacking args", a.Name)
	}
	for i, v := range vals {
		reflect.ValueOf(dst[i]).Elem().Set(v)
	}
	return nil
}

// ArgCodec converts raw syscall words into handler types for argjoy.
func ArgCodec(u Usercorn) func(arg interface{}, vals []interface{}) error {
	return func(arg interface{}, vals []interface{}) error {
		reg, ok := vals[0].(uint64)
		if !ok {
			return argjoy.NoMatch
		}
		switch v := arg.(type) {
		case *Buf:
			*v = Buf{Addr: reg, U: u}
		case *Obuf:
			*v = Obuf{Buf{Addr: reg, U: u}}
		case *Len:
			*v = Len(reg)
		case *Off:
			*v = Off(cpu.SignExtend(reg, u.Bits()))
		case *Fd:
			*v = Fd(int32(reg))
		case *Ptr:
			*v = Ptr(reg)
		case *string:
			s, err := u.ReadCString(reg)
			if err != nil {
				return err
			}
			*v = s
		case *int:
			*v = int(cpu.SignExtend(reg, u.Bits()))
		case *uint64:
			*v = reg
		default:
			return argjoy.NoMatch
		}
		return nil
	}
}
