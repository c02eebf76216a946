package posix

import (
	"syscall"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
)

const (
	MAP_FIXED     = 0x10
	MAP_ANONYMOUS = 0x20
	pageSize      = 0x1000
)

func mapAnon(u models.Usercorn, flags uint64) bool {
	bit := u.OS().MapAnon
	if bit == 0 {
		bit = MAP_ANONYMOUS
	}
	return flags&bit != 0
}

func Brk(u models.Usercorn, a *models.Args) (uint64, error) {
	return u.Brk(a.Uint(0))
}

func mmap(u models.Usercorn, a *models.Args, off int64) (uint64, error) {
	addr, size := a.Uint(0), a.Uint(1)
	prot, flags := int(a.Uint(2))&cpu.PROT_ALL, a.Uint(3)
	fd := a.Fd(4)
	if size == 0 || off < 0 || off&(pageSize-1) != 0 {
		return 0, syscall.EINVAL
	}
	var file *cpu.FileDesc
	var data []byte
	desc := "mmap"
	if fd >= 0 && !mapAnon(u, flags) {
		f, err := u.Files().Get(fd)
		if err != nil {
			return 0, err
		}
		data = make([]byte, clampLen(models.Len(size)))
		n, err := u.Files().ReadAt(fd, data, off)
		if err != nil {
			return 0, err
		}
		data = data[:n]
		file = &cpu.FileDesc{Name: f.Path, Off: uint64(off), Len: uint64(n)}
	}
	addr, err := u.Mmap(addr, size, prot, flags&MAP_FIXED != 0, desc, file)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		if err := u.MemWriteRaw(addr, data); err != nil {
			return 0, err
		}
	}
	return addr, nil
}

func Mmap(u models.Usercorn, a *models.Args) (uint64, error) {
	return mmap(u, a, a.Int(5))
}

// Mmap2 takes its offset in 4096-byte units.
func Mmap2(u models.Usercorn, a *models.Args) (uint64, error) {
	return mmap(u, a, int64(a.Uint(5))*pageSize)
}

func Munmap(u models.Usercorn, a *models.Args) (uint64, error) {
	addr, size := a.Uint(0), a.Uint(1)
	if addr&(pageSize-1) != 0 || size == 0 {
		return 0, syscall.EINVAL
	}
	return 0, u.MemUnmap(addr, size)
}

func Mprotect(u models.Usercorn, a *models.Args) (uint64, error) {
	addr, size := a.Uint(0), a.Uint(1)
	if addr&(pageSize-1) != 0 {
		return 0, syscall.EINVAL
	}
	return 0, u.MemProt(addr, size, int(a.Uint(2))&cpu.PROT_ALL)
}
