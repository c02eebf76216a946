package sandcorn

import (
	"strings"
	"syscall"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/cpu/ndh"
	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
)

func TestErrnoName(t *testing.T) {
	cases := []struct {
		err  error
		name string
	}{
		{&cpu.MemError{Addr: 0x10, Size: 1, Enum: cpu.MEM_READ_UNMAPPED}, "EFAULT"},
		{errors.Wrap(fs.ErrBadDescriptor, "fd 9"), "EBADF"},
		{fs.ErrDescriptorInUse, "EBADF"},
		{fs.ErrPathEscapesJail, "EACCES"},
		{fs.ErrNotSeekable, "ESPIPE"},
		{models.ErrUnimplementedSyscall, "ENOSYS"},
		{errors.Wrap(syscall.ENOENT, "open"), "ENOENT"},
		{errors.New("something else"), "EIO"},
	}
	for _, c := range cases {
		if got := errnoName(c.err); got != c.name {
			t.Errorf("errnoName(%v) = %s, want %s", c.err, got, c.name)
		}
	}
}

func TestSyscallName(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if name := s.SyscallName(4); name != "write" {
		t.Errorf("SyscallName(4) = %q", name)
	}
	if name := s.SyscallName(9); name != "send" {
		t.Errorf("SyscallName(9) = %q", name)
	}
	if s.DefaultSyscall(9) != nil {
		t.Error("unimplemented call has a default handler")
	}
	nop := func(models.Usercorn, *models.Args) (uint64, error) { return 0, nil }
	prev, err := s.SetSyscall(9, nop)
	if err != nil || prev != nil {
		t.Fatalf("SetSyscall(9) = %v, %v", prev, err)
	}
	if _, sys := s.lookup(9); sys == nil || sys.Name != "send" || len(sys.Args) != 6 {
		t.Errorf("override entry %+v", sys)
	}
	if _, err := s.SetSyscallEntry(9, &models.Syscall{}); err == nil {
		t.Error("SetSyscallEntry accepted a nil handler")
	}
}

func TestSyscallArgs(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	for i, r := range []int{ndh.R1, ndh.R2, ndh.R3} {
		if err := s.RegWrite(r, uint64(i+1)); err != nil {
			t.Fatal(err)
		}
	}
	args, err := s.syscallArgs(8)
	if err != nil {
		t.Fatal(err)
	}
	// ndh passes six register arguments and nothing on the stack
	want := []uint64{1, 2, 3, 0, 0, 0, 0, 0}
	if len(args) != len(want) {
		t.Fatalf("args %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args %v, want %v", args, want)
		}
	}
}

func TestStraceFormat(t *testing.T) {
	s := newSession(t, exitCall(0), nil)
	if err := s.MemMap(0xc000, 0x1000, rw); err != nil {
		t.Fatal(err)
	}
	if err := s.MemWrite(0xc000, []byte("/etc/passwd\x00line\n")); err != nil {
		t.Fatal(err)
	}
	open := s.DefaultSyscall(2)
	a := &models.Args{Name: "open", Kinds: open.Args, Raw: []uint64{0xc000, 0, 0}, U: s}
	if got := s.strace(a, open.Ret, 3, "", false, false); got != `open("/etc/passwd", 0x0, 0) = 3` {
		t.Errorf("open trace %q", got)
	}
	if got := s.strace(a, open.Ret, 0, "ENOENT", false, false); !strings.HasSuffix(got, "= -1 ENOENT") {
		t.Errorf("failed open trace %q", got)
	}

	write := s.DefaultSyscall(4)
	a = &models.Args{Name: "write", Kinds: write.Args, Raw: []uint64{1, 0xc00c, 5}, U: s}
	if got := s.strace(a, write.Ret, 5, "", false, false); got != `write(1, "line\n", 5) = 5` {
		t.Errorf("write trace %q", got)
	}

	read := s.DefaultSyscall(3)
	a = &models.Args{Name: "read", Kinds: read.Args, Raw: []uint64{0, 0xc00c, 16}, U: s}
	if got := s.strace(a, read.Ret, 2, "", false, false); got != `read(0, "li", 16) = 2` {
		t.Errorf("read trace %q", got)
	}
	if got := s.strace(a, read.Ret, 0, "EBADF", false, false); got != `read(0, 0xc00c, 16) = -1 EBADF` {
		t.Errorf("failed read trace %q", got)
	}

	exit := s.DefaultSyscall(1)
	a = &models.Args{Name: "exit", Kinds: exit.Args, Raw: []uint64{0xffff}, U: s}
	if got := s.strace(a, exit.Ret, 0, "", true, false); got != "exit(-1) = ?" {
		t.Errorf("exit trace %q", got)
	}
	if got := s.strace(a, exit.Ret, 0, "", true, true); !strings.Contains(got, "\x1b[") {
		t.Errorf("coloured trace %q", got)
	}
}
