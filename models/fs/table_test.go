package fs

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func makeTable(t *testing.T) (*Table, string) {
	root := t.TempDir()
	jail, err := NewJail(root)
	if err != nil {
		t.Fatal(err)
	}
	return NewTable(jail, nil, nil, nil), root
}

func TestTableStdio(t *testing.T) {
	var out bytes.Buffer
	jail, _ := NewJail(t.TempDir())
	table := NewTable(jail, ReadOnly(bytes.NewReader([]byte("input"))), WriteOnly(&out), nil)
	p := make([]byte, 16)
	if n, err := table.Read(0, p); err != nil || string(p[:n]) != "input" {
		t.Fatalf("stdin read = %q, %v", p[:n], err)
	}
	if n, err := table.Read(0, p); err != nil || n != 0 {
		t.Fatalf("stdin read at EOF = %d, %v", n, err)
	}
	if _, err := table.Write(1, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello" {
		t.Fatalf("stdout captured %q", out.String())
	}
	if n, err := table.Write(2, []byte("dropped")); err != nil || n != 7 {
		t.Fatalf("null stderr write = %d, %v", n, err)
	}
	if e, _ := table.Get(1); e.Path != "<stdout>" {
		t.Fatalf("fd 1 tagged %q", e.Path)
	}
}

func TestTableOpenWriteClose(t *testing.T) {
	table, root := makeTable(t)
	fd, err := table.Open("a.txt", os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if fd != 3 {
		t.Fatalf("first open returned fd %d, want 3", fd)
	}
	if n, err := table.Write(fd, []byte("12345")); err != nil || n != 5 {
		t.Fatalf("write = %d, %v", n, err)
	}
	if err := table.Close(fd); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 5 {
		t.Fatalf("host file is %d bytes, want 5", fi.Size())
	}
}

func TestTableBadDescriptor(t *testing.T) {
	table, _ := makeTable(t)
	if err := table.Close(3); !errors.Is(err, ErrBadDescriptor) {
		t.Errorf("close of unallocated fd: %v", err)
	}
	if _, err := table.Read(42, make([]byte, 1)); !errors.Is(err, ErrBadDescriptor) {
		t.Errorf("read of unallocated fd: %v", err)
	}
	if _, err := table.Write(-1, nil); !errors.Is(err, ErrBadDescriptor) {
		t.Errorf("write of negative fd: %v", err)
	}
	if err := table.Ftruncate(9, 0); !errors.Is(err, ErrBadDescriptor) {
		t.Errorf("ftruncate of unallocated fd: %v", err)
	}
	if err := table.InstallAt(1, Null, "x", 0); !errors.Is(err, ErrDescriptorInUse) {
		t.Errorf("InstallAt over stdout: %v", err)
	}
	// closing twice must fail the second time
	if err := table.Close(1); err != nil {
		t.Fatal(err)
	}
	if err := table.Close(1); !errors.Is(err, ErrBadDescriptor) {
		t.Errorf("double close: %v", err)
	}
}

func TestTableIOError(t *testing.T) {
	table, _ := makeTable(t)
	_, err := table.Open("missing/file", os.O_RDONLY, 0)
	var ioerr *IOError
	if !errors.As(err, &ioerr) || !os.IsNotExist(ioerr.Err) {
		t.Fatalf("expected IOError wrapping ENOENT, got %v", err)
	}
}

// open ids never alias while open, and the lowest free id is always reused
func TestTableNoAlias(t *testing.T) {
	table, _ := makeTable(t)
	r := rand.New(rand.NewSource(1))
	open := map[int]bool{0: true, 1: true, 2: true}
	for i := 0; i < 500; i++ {
		if r.Intn(3) > 0 || len(open) == 3 {
			fd, err := table.Open("f", os.O_CREATE|os.O_RDWR, 0644)
			if err != nil {
				t.Fatal(err)
			}
			if open[fd] {
				t.Fatalf("fd %d handed out while still open", fd)
			}
			for low := 0; low < fd; low++ {
				if !open[low] {
					t.Fatalf("fd %d handed out while %d was free", fd, low)
				}
			}
			open[fd] = true
		} else {
			for fd := range open {
				if fd > 2 {
					if err := table.Close(fd); err != nil {
						t.Fatal(err)
					}
					delete(open, fd)
					break
				}
			}
		}
		if table.Len() != len(open) {
			t.Fatalf("table has %d entries, expected %d", table.Len(), len(open))
		}
	}
}

func TestTableDup(t *testing.T) {
	table, root := makeTable(t)
	fd, err := table.Open("dup.txt", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	dup, err := table.Dup(fd)
	if err != nil || dup != fd+1 {
		t.Fatalf("dup = %d, %v", dup, err)
	}
	if _, err := table.Write(fd, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := table.Close(fd); err != nil {
		t.Fatal(err)
	}
	// the shared file stays open through the duplicate
	if _, err := table.Write(dup, []byte("def")); err != nil {
		t.Fatal(err)
	}
	if e, _ := table.Get(dup); e.Pos != 6 {
		t.Fatalf("shared cursor at %d, want 6", e.Pos)
	}
	if fd2, err := table.Dup2(dup, 1); err != nil || fd2 != 1 {
		t.Fatalf("dup2 = %d, %v", fd2, err)
	}
	if _, err := table.Write(1, []byte("g")); err != nil {
		t.Fatal(err)
	}
	table.CloseAll()
	data, _ := os.ReadFile(filepath.Join(root, "dup.txt"))
	if string(data) != "abcdefg" {
		t.Fatalf("file contains %q", data)
	}
	if table.Len() != 0 {
		t.Fatalf("CloseAll left %d entries", table.Len())
	}
}

type failClose struct{ Stream }

func (failClose) Close() error { return errors.New("close failed") }

func TestTableDup2CloseError(t *testing.T) {
	table, _ := makeTable(t)
	if err := table.InstallAt(5, failClose{Null}, "<broken>", os.O_RDWR); err != nil {
		t.Fatal(err)
	}
	if fd, err := table.Dup2(1, 5); err != nil || fd != 5 {
		t.Fatalf("dup2 over a failing close = %d, %v", fd, err)
	}
	e, err := table.Get(5)
	if err != nil {
		t.Fatal(err)
	}
	if e.Path != "<stdout>" {
		t.Errorf("fd 5 tagged %q after dup2", e.Path)
	}
}

func TestTableSeekTruncate(t *testing.T) {
	table, _ := makeTable(t)
	fd, err := table.Open("seek.txt", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	table.Write(fd, []byte("0123456789"))
	if pos, err := table.Seek(fd, 2, io.SeekStart); err != nil || pos != 2 {
		t.Fatalf("seek = %d, %v", pos, err)
	}
	p := make([]byte, 3)
	if n, _ := table.Read(fd, p); string(p[:n]) != "234" {
		t.Fatalf("read after seek = %q", p[:n])
	}
	if err := table.Ftruncate(fd, 4); err != nil {
		t.Fatal(err)
	}
	if fi, err := table.Fstat(fd); err != nil || fi.Size() != 4 {
		t.Fatalf("fstat after ftruncate = %v, %v", fi, err)
	}
	if err := table.Truncate("/seek.txt", 1); err != nil {
		t.Fatal(err)
	}
	if fi, _ := table.Stat("seek.txt", true); fi.Size() != 1 {
		t.Fatalf("size after truncate = %d", fi.Size())
	}
	if _, err := table.Seek(0, 0, io.SeekStart); !errors.Is(err, ErrNotSeekable) {
		t.Fatalf("seek on null stdin: %v", err)
	}
	if err := table.Unlink("seek.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Stat("seek.txt", false); err == nil {
		t.Fatal("stat succeeded after unlink")
	}
}

func TestTablePipe(t *testing.T) {
	table, _ := makeTable(t)
	r, w, err := table.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if r != 3 || w != 4 {
		t.Fatalf("pipe fds %d, %d", r, w)
	}
	table.Write(w, []byte("ping"))
	table.Close(w)
	p := make([]byte, 8)
	n, err := table.Read(r, p)
	if err != nil || string(p[:n]) != "ping" {
		t.Fatalf("pipe read = %q, %v", p[:n], err)
	}
	table.Close(r)
}

func TestTableOpenAt(t *testing.T) {
	table, root := makeTable(t)
	os.Mkdir(filepath.Join(root, "sub"), 0755)
	os.WriteFile(filepath.Join(root, "sub", "f"), []byte("x"), 0644)
	dirfd, err := table.Open("/sub", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	fd, err := table.OpenAt(dirfd, "f", os.O_RDONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e, _ := table.Get(fd); e.Path != "/sub/f" {
		t.Fatalf("openat path = %q", e.Path)
	}
	if _, err := table.OpenAt(99, "f", os.O_RDONLY, 0); !errors.Is(err, ErrBadDescriptor) {
		t.Fatalf("openat on bad dirfd: %v", err)
	}
	if _, err := table.OpenAt(AtFdCwd, "sub/f", os.O_RDONLY, 0); err != nil {
		t.Fatal(err)
	}
	entries := table.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Fd >= entries[i].Fd {
			t.Fatal("Entries() not sorted by fd")
		}
	}
}
