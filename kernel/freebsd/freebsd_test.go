package freebsd

import (
	"testing"

	"github.com/lunixbochs/struc"

	"github.com/lunixbochs/sandcorn/models"
)

func TestStatSizes(t *testing.T) {
	if size, _ := struc.Sizeof(&Stat64{}); size != 120 {
		t.Errorf("amd64 stat size %d, want 120", size)
	}
	if size, _ := struc.Sizeof(&Stat32{}); size != 96 {
		t.Errorf("i386 stat size %d, want 96", size)
	}
}

func TestNewOS(t *testing.T) {
	os := NewOS()
	name, sys := os.Lookup(4)
	if name != "write" || sys == nil {
		t.Fatalf("Lookup(4) = %q, %v", name, sys)
	}
	if _, sys := os.Lookup(326); sys == nil || sys.Func == nil {
		t.Fatal("getcwd missing")
	}
	if os.Errno["ENOSYS"] != 78 {
		t.Fatal("wrong ENOSYS")
	}
	if os.Stat(&models.Stat{}, 64, false) == nil {
		t.Fatal("no stat layout")
	}
}
