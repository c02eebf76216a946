package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestJailResolve(t *testing.T) {
	root := t.TempDir()
	jail, err := NewJail(root)
	if err != nil {
		t.Fatal(err)
	}
	root = jail.Root()
	os.MkdirAll(filepath.Join(root, "etc"), 0755)
	cases := []struct {
		guest, host string
	}{
		{"/etc/passwd", filepath.Join(root, "etc", "passwd")},
		{"etc/../etc/./hosts", filepath.Join(root, "etc", "hosts")},
		{"/", root},
		{"a.txt", filepath.Join(root, "a.txt")},
	}
	for _, c := range cases {
		host, err := jail.Resolve(c.guest)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", c.guest, err)
		} else if host != c.host {
			t.Errorf("Resolve(%q) = %q, want %q", c.guest, host, c.host)
		}
	}
	for _, guest := range []string{"../x", "/..", "/etc/../../x", "a/../../b"} {
		if _, err := jail.Resolve(guest); !errors.Is(err, ErrPathEscapesJail) {
			t.Errorf("Resolve(%q) should escape, got %v", guest, err)
		}
	}
}

func TestHostJail(t *testing.T) {
	if _, err := NewJail(""); !errors.Is(err, ErrNoRoot) {
		t.Fatalf("NewJail(\"\") = %v", err)
	}
	jail := NewHostJail()
	if jail.Root() != "" {
		t.Errorf("host jail root %q", jail.Root())
	}
	if host, err := jail.Resolve("/etc/../etc/hosts"); err != nil || host != "/etc/hosts" {
		t.Errorf("Resolve() = %q, %v", host, err)
	}
	for _, guest := range []string{"/../etc/passwd", "/tmp/../../x"} {
		if _, err := jail.Resolve(guest); !errors.Is(err, ErrPathEscapesJail) {
			t.Errorf("Resolve(%q) = %v", guest, err)
		}
	}
}

func TestJailSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	jail, _ := NewJail(root)
	if err := os.Symlink(outside, filepath.Join(jail.Root(), "out")); err != nil {
		t.Skip("symlinks unsupported:", err)
	}
	if err := os.Symlink("etc", filepath.Join(jail.Root(), "in")); err != nil {
		t.Fatal(err)
	}
	os.Mkdir(filepath.Join(jail.Root(), "etc"), 0755)
	if _, err := jail.Resolve("/out/secret"); !errors.Is(err, ErrPathEscapesJail) {
		t.Errorf("symlink to outside dir should escape, got %v", err)
	}
	if _, err := jail.Resolve("/in/file"); err != nil {
		t.Errorf("symlink inside jail rejected: %v", err)
	}
}

func TestJailChdir(t *testing.T) {
	jail, _ := NewJail(t.TempDir())
	os.MkdirAll(filepath.Join(jail.Root(), "home", "user"), 0755)
	if err := jail.Chdir("/home/user"); err != nil {
		t.Fatal(err)
	}
	if jail.Getcwd() != "/home/user" {
		t.Fatalf("cwd = %q", jail.Getcwd())
	}
	host, err := jail.Resolve("f")
	if err != nil || host != filepath.Join(jail.Root(), "home", "user", "f") {
		t.Fatalf("relative resolve = %q, %v", host, err)
	}
	if err := jail.Chdir("/nope"); err == nil {
		t.Fatal("chdir to missing dir succeeded")
	}
	if _, err := jail.Resolve("../../.."); !errors.Is(err, ErrPathEscapesJail) {
		t.Fatalf("relative escape from cwd: %v", err)
	}
}

func TestFlagMap(t *testing.T) {
	cases := []struct {
		m     *FlagMap
		guest uint64
		host  int
	}{
		{LinuxFlags, 0101, os.O_WRONLY | os.O_CREATE},
		{LinuxFlags, 01102, os.O_RDWR | os.O_CREATE | os.O_TRUNC},
		{MipsFlags, 0x301, os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
		{FreeBSDFlags, 0x601, os.O_WRONLY | os.O_CREATE | os.O_TRUNC},
		{ArmFlags, 02, os.O_RDWR},
	}
	for _, c := range cases {
		if got := c.m.Host(c.guest); got != c.host {
			t.Errorf("%s: Host(%#o) = %#o, want %#o", c.m.Name, c.guest, got, c.host)
		}
	}
	if !MipsFlags.Creates(0x100) || LinuxFlags.Creates(0x100) {
		t.Error("Creates() mismatch")
	}
}
