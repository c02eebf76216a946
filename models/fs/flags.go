package fs

import (
	"os"
	"syscall"
)

type flagBit struct {
	guest uint64
	host  int
}

// FlagMap translates a guest ABI's open(2) flags into host os.O_* flags.
// The access mode in the low two bits is shared by every supported ABI.
type FlagMap struct {
	Name string
	bits []flagBit
}

func (f *FlagMap) Host(guest uint64) int {
	var out int
	switch guest & 3 {
	case 0:
		out = os.O_RDONLY
	case 1:
		out = os.O_WRONLY
	default:
		out = os.O_RDWR
	}
	for _, b := range f.bits {
		if guest&b.guest == b.guest {
			out |= b.host
		}
	}
	return out
}

// Creates reports whether the guest flags ask for file creation.
func (f *FlagMap) Creates(guest uint64) bool {
	return f.Host(guest)&os.O_CREATE != 0
}

// asm-generic values, used by x86 and x86_64
var LinuxFlags = &FlagMap{"linux", []flagBit{
	{0100, os.O_CREATE},
	{0200, os.O_EXCL},
	{0400, syscall.O_NOCTTY},
	{01000, os.O_TRUNC},
	{02000, os.O_APPEND},
	{04000, syscall.O_NONBLOCK},
	{010000, syscall.O_DSYNC},
	{04010000, os.O_SYNC},
	{0200000, syscall.O_DIRECTORY},
	{0400000, syscall.O_NOFOLLOW},
	{02000000, syscall.O_CLOEXEC},
}}

// arm and arm64 swap in their own directory/nofollow bits
var ArmFlags = &FlagMap{"linux-arm", []flagBit{
	{0100, os.O_CREATE},
	{0200, os.O_EXCL},
	{0400, syscall.O_NOCTTY},
	{01000, os.O_TRUNC},
	{02000, os.O_APPEND},
	{04000, syscall.O_NONBLOCK},
	{010000, syscall.O_DSYNC},
	{04010000, os.O_SYNC},
	{040000, syscall.O_DIRECTORY},
	{0100000, syscall.O_NOFOLLOW},
	{02000000, syscall.O_CLOEXEC},
}}

var MipsFlags = &FlagMap{"linux-mips", []flagBit{
	{0x0008, os.O_APPEND},
	{0x0010, syscall.O_DSYNC},
	{0x0080, syscall.O_NONBLOCK},
	{0x0100, os.O_CREATE},
	{0x0200, os.O_TRUNC},
	{0x0400, os.O_EXCL},
	{0x0800, syscall.O_NOCTTY},
	{0x4010, os.O_SYNC},
	{0x10000, syscall.O_DIRECTORY},
	{0x20000, syscall.O_NOFOLLOW},
	{0x80000, syscall.O_CLOEXEC},
}}

var FreeBSDFlags = &FlagMap{"freebsd", []flagBit{
	{0x4, syscall.O_NONBLOCK},
	{0x8, os.O_APPEND},
	{0x80, os.O_SYNC},
	{0x100, syscall.O_NOFOLLOW},
	{0x200, os.O_CREATE},
	{0x400, os.O_TRUNC},
	{0x800, os.O_EXCL},
	{0x8000, syscall.O_NOCTTY},
	{0x20000, syscall.O_DIRECTORY},
	{0x100000, syscall.O_CLOEXEC},
	{0x1000000, syscall.O_DSYNC},
}}
