package arch

import (
	"testing"
)

func TestSmoke(t *testing.T) {
	for _, name := range Names() {
		a, _ := GetArch(name)
		t.Run(name, a.SmokeTest)
	}
}

func TestSyscallTables(t *testing.T) {
	for _, name := range Names() {
		a, _ := GetArch(name)
		for osName, os := range a.OS {
			for num, sys := range os.Syscalls {
				entry, ok := os.Kernel[sys]
				if !ok || entry.Func == nil {
					t.Errorf("%s/%s: %d (%s) has no handler", name, osName, num, sys)
				}
			}
			if os.SetReturn == nil || os.Init == nil {
				t.Errorf("%s/%s: missing SetReturn or Init", name, osName)
			}
			if os.Interrupt == nil && os.Setup == nil {
				t.Errorf("%s/%s: no syscall entry point", name, osName)
			}
		}
	}
}

func TestGetOS(t *testing.T) {
	a, os, err := GetOS("x86", "linux")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "x86" || os.Name != "linux" {
		t.Fatalf("got %s/%s", a.Name, os.Name)
	}
	if name, _ := os.Lookup(4); name != "write" {
		t.Fatalf("x86 linux 4 = %q", name)
	}
	_, mips, err := GetOS("mips", "linux")
	if err != nil {
		t.Fatal(err)
	}
	if name, sys := mips.Lookup(4004); name != "write" || sys == nil {
		t.Fatalf("mips 4004 = %q", name)
	}
	if _, _, err := GetOS("x86", "plan9"); err == nil {
		t.Fatal("unknown OS accepted")
	}
	if _, err := GetArch("vax"); err == nil {
		t.Fatal("unknown arch accepted")
	}
}
