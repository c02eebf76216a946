package linux

import (
	"bytes"
	"crypto/rand"

	"github.com/lunixbochs/struc"

	"github.com/lunixbochs/sandcorn/kernel/posix"
	"github.com/lunixbochs/sandcorn/models"
)

const (
	AT_NULL     = 0
	AT_PHDR     = 3
	AT_PHENT    = 4
	AT_PHNUM    = 5
	AT_PAGESZ   = 6
	AT_BASE     = 7
	AT_FLAGS    = 8
	AT_ENTRY    = 9
	AT_UID      = 11
	AT_EUID     = 12
	AT_GID      = 13
	AT_EGID     = 14
	AT_PLATFORM = 15
	AT_CLKTCK   = 17
	AT_RANDOM   = 25
)

type auxv32 struct {
	Type, Val uint32
}

type auxv64 struct {
	Type, Val uint64
}

func auxvTable(u models.Usercorn) ([]auxv64, error) {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	randAddr, err := u.PushBytes(seed[:])
	if err != nil {
		return nil, err
	}
	platform, err := u.PushBytes([]byte(u.Arch().Name + "\x00"))
	if err != nil {
		return nil, err
	}
	var table []auxv64
	if u.Loader() != nil {
		phOff, _, phCount := u.Loader().Header()
		segments, _ := u.Loader().Segments()
		for _, s := range segments {
			if phOff > 0 && s.ContainsPhys(phOff) {
				phent := uint64(56)
				if u.Bits() == 32 {
					phent = 32
				}
				table = append(table,
					auxv64{AT_PHDR, u.Base() + s.Addr + phOff - s.Off},
					auxv64{AT_PHENT, phent},
					auxv64{AT_PHNUM, uint64(phCount)},
				)
				break
			}
		}
	}
	return append(table,
		auxv64{AT_PAGESZ, 4096},
		auxv64{AT_BASE, u.InterpBase()},
		auxv64{AT_FLAGS, 0},
		auxv64{AT_ENTRY, u.Entry()},
		auxv64{AT_UID, posix.Uid},
		auxv64{AT_EUID, posix.Uid},
		auxv64{AT_GID, posix.Gid},
		auxv64{AT_EGID, posix.Gid},
		auxv64{AT_PLATFORM, platform},
		auxv64{AT_CLKTCK, 100},
		auxv64{AT_RANDOM, randAddr},
		auxv64{AT_NULL, 0},
	), nil
}

// SetupElfAuxv pushes the auxv payloads and returns the packed vector in guest layout.
func SetupElfAuxv(u models.Usercorn) ([]byte, error) {
	table, err := auxvTable(u)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, a := range table {
		var v interface{} = &a
		if u.Bits() == 32 {
			v = &auxv32{uint32(a.Type), uint32(a.Val)}
		}
		if err := struc.PackWithOrder(&buf, v, u.ByteOrder()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
