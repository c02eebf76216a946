package posix

import (
	"syscall"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
)

// identity reported to the guest, fixed so runs are reproducible
const (
	Pid  = 1000
	Ppid = 999
	Uid  = 1000
	Gid  = 1000
)

func Exit(u models.Usercorn, a *models.Args) (uint64, error) {
	code := int(a.Int(0))
	u.Exit(code)
	return 0, models.ExitStatus(code)
}

func Getpid(u models.Usercorn, a *models.Args) (uint64, error)  { return Pid, nil }
func Getppid(u models.Usercorn, a *models.Args) (uint64, error) { return Ppid, nil }
func Getuid(u models.Usercorn, a *models.Args) (uint64, error)  { return Uid, nil }
func Geteuid(u models.Usercorn, a *models.Args) (uint64, error) { return Uid, nil }
func Getgid(u models.Usercorn, a *models.Args) (uint64, error)  { return Gid, nil }
func Getegid(u models.Usercorn, a *models.Args) (uint64, error) { return Gid, nil }

func SetTidAddress(u models.Usercorn, a *models.Args) (uint64, error) {
	return Pid, nil
}

// maximum entries read from an argv or envp array
const maxStrArray = 4096

// ReadStrArray reads a NULL-terminated array of guest string pointers.
func ReadStrArray(u models.Usercorn, addr uint64) ([]string, error) {
	if addr == 0 {
		return nil, nil
	}
	width := uint64(u.Bits() / 8)
	var ret []string
	for i := 0; i < maxStrArray; i++ {
		buf, err := u.MemRead(addr, width)
		if err != nil {
			return nil, err
		}
		ptr := u.UnpackAddr(buf)
		if ptr == 0 {
			return ret, nil
		}
		s, err := u.ReadCString(ptr)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
		addr += width
	}
	return nil, errors.Errorf("string array at %#x has no terminator", addr)
}

func Execve(u models.Usercorn, a *models.Args) (uint64, error) {
	path, err := a.Str(0)
	if err != nil {
		return 0, err
	}
	argv, err := ReadStrArray(u, a.Uint(1))
	if err != nil {
		return 0, err
	}
	envp, err := ReadStrArray(u, a.Uint(2))
	if err != nil {
		return 0, err
	}
	fi, err := u.Files().Stat(path, true)
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, syscall.EACCES
	}
	host, err := u.Files().Jail().Resolve(path)
	if err != nil {
		return 0, err
	}
	return 0, u.Exec(host, argv, envp)
}
