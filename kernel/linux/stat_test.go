package linux

import (
	"testing"

	"github.com/lunixbochs/struc"
)

func TestStatSizes(t *testing.T) {
	cases := []struct {
		name string
		v    interface{}
		size int
	}{
		{"i386 stat", &Stat386{}, 64},
		{"i386 stat64", &Stat64_386{}, 96},
		{"arm stat64", &Stat64Arm{}, 104},
		{"x86_64 stat", &StatAmd64{}, 144},
		{"generic stat", &StatGeneric{}, 128},
		{"mips stat", &StatMips{}, 144},
		{"mips stat64", &Stat64Mips{}, 104},
	}
	for _, c := range cases {
		size, err := struc.Sizeof(c.v)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
		} else if size != c.size {
			t.Errorf("%s: size %d, want %d", c.name, size, c.size)
		}
	}
}

func TestMipsErrno(t *testing.T) {
	if Errno["ENOSYS"] != 38 || MipsErrno["ENOSYS"] != 89 {
		t.Fatalf("ENOSYS: generic %d, mips %d", Errno["ENOSYS"], MipsErrno["ENOSYS"])
	}
	if MipsErrno["EBADF"] != Errno["EBADF"] {
		t.Fatal("MIPS table lost shared entries")
	}
}
