package posix

import (
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
)

const (
	AT_REMOVEDIR        = 0x200
	AT_SYMLINK_NOFOLLOW = 0x100
)

func openFlags(u models.Usercorn, guest uint64) int {
	if u.OS().OpenFlags == nil {
		return int(guest)
	}
	return u.OS().OpenFlags.Host(guest)
}

func Open(u models.Usercorn, a *models.Args) (uint64, error) {
	var path string
	var flags uint64
	var mode int
	if err := a.Unpack(&path, &flags, &mode); err != nil {
		return 0, err
	}
	fd, err := u.Files().Open(path, openFlags(u, flags), os.FileMode(mode&0777))
	return uint64(fd), err
}

func Openat(u models.Usercorn, a *models.Args) (uint64, error) {
	var dirfd models.Fd
	var path string
	var flags uint64
	var mode int
	if err := a.Unpack(&dirfd, &path, &flags, &mode); err != nil {
		return 0, err
	}
	fd, err := u.Files().OpenAt(int(dirfd), path, openFlags(u, flags), os.FileMode(mode&0777))
	return uint64(fd), err
}

func Creat(u models.Usercorn, a *models.Args) (uint64, error) {
	var path string
	var mode int
	if err := a.Unpack(&path, &mode); err != nil {
		return 0, err
	}
	fd, err := u.Files().Open(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(mode&0777))
	return uint64(fd), err
}

func Close(u models.Usercorn, a *models.Args) (uint64, error) {
	return 0, u.Files().Close(a.Fd(0))
}

func Unlink(u models.Usercorn, a *models.Args) (uint64, error) {
	path, err := a.Str(0)
	if err != nil {
		return 0, err
	}
	return 0, u.Files().Unlink(path)
}

func Unlinkat(u models.Usercorn, a *models.Args) (uint64, error) {
	var dirfd models.Fd
	var path string
	var flags int
	if err := a.Unpack(&dirfd, &path, &flags); err != nil {
		return 0, err
	}
	path, err := u.Files().PathAt(int(dirfd), path)
	if err != nil {
		return 0, err
	}
	if flags&AT_REMOVEDIR != 0 {
		return 0, u.Files().Rmdir(path)
	}
	return 0, u.Files().Unlink(path)
}

func Truncate(u models.Usercorn, a *models.Args) (uint64, error) {
	var path string
	var size models.Off
	if err := a.Unpack(&path, &size); err != nil {
		return 0, err
	}
	return 0, u.Files().Truncate(path, int64(size))
}

func Ftruncate(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var size models.Off
	if err := a.Unpack(&fd, &size); err != nil {
		return 0, err
	}
	return 0, u.Files().Ftruncate(int(fd), int64(size))
}

// access mode bits
const (
	R_OK = 4
	W_OK = 2
	X_OK = 1
)

func access(u models.Usercorn, path string, mode int) error {
	fi, err := u.Files().Stat(path, true)
	if err != nil {
		return err
	}
	perm := int(fi.Mode().Perm())
	// any of user, group or other granting the bit is enough
	for _, bit := range []int{R_OK, W_OK, X_OK} {
		if mode&bit != 0 && perm&(bit|bit<<3|bit<<6) == 0 {
			return syscall.EACCES
		}
	}
	return nil
}

func Access(u models.Usercorn, a *models.Args) (uint64, error) {
	var path string
	var mode int
	if err := a.Unpack(&path, &mode); err != nil {
		return 0, err
	}
	return 0, access(u, path, mode)
}

func Faccessat(u models.Usercorn, a *models.Args) (uint64, error) {
	var dirfd models.Fd
	var path string
	var mode int
	if err := a.Unpack(&dirfd, &path, &mode); err != nil {
		return 0, err
	}
	path, err := u.Files().PathAt(int(dirfd), path)
	if err != nil {
		return 0, err
	}
	return 0, access(u, path, mode)
}

func Dup(u models.Usercorn, a *models.Args) (uint64, error) {
	fd, err := u.Files().Dup(a.Fd(0))
	return uint64(fd), err
}

func Dup2(u models.Usercorn, a *models.Args) (uint64, error) {
	fd, err := u.Files().Dup2(a.Fd(0), a.Fd(1))
	return uint64(fd), err
}

func Dup3(u models.Usercorn, a *models.Args) (uint64, error) {
	if a.Fd(0) == a.Fd(1) {
		return 0, syscall.EINVAL
	}
	return Dup2(u, a)
}

// Pipe stores the read and write descriptors as two 32-bit ints.
func Pipe(u models.Usercorn, a *models.Args) (uint64, error) {
	r, w, err := u.Files().Pipe()
	if err != nil {
		return 0, err
	}
	fds := [2]int32{int32(r), int32(w)}
	if err := u.StrucAt(a.Uint(0)).Pack(&fds); err != nil {
		u.Files().Close(r)
		u.Files().Close(w)
		return 0, err
	}
	return 0, nil
}

func packStat(u models.Usercorn, addr uint64, fi os.FileInfo, wide bool) error {
	if u.OS().Stat == nil {
		return errors.Wrap(models.ErrUnimplementedSyscall, "no stat layout for "+u.OS().Name)
	}
	st := u.OS().Stat(models.NewStat(fi), u.Bits(), wide)
	return u.StrucAt(addr).Pack(st)
}

func fstat(u models.Usercorn, a *models.Args, wide bool) (uint64, error) {
	fi, err := u.Files().Fstat(a.Fd(0))
	if err != nil {
		return 0, err
	}
	return 0, packStat(u, a.Uint(1), fi, wide)
}

func stat(u models.Usercorn, a *models.Args, follow, wide bool) (uint64, error) {
	path, err := a.Str(0)
	if err != nil {
		return 0, err
	}
	fi, err := u.Files().Stat(path, follow)
	if err != nil {
		return 0, err
	}
	return 0, packStat(u, a.Uint(1), fi, wide)
}

func Fstat(u models.Usercorn, a *models.Args) (uint64, error)   { return fstat(u, a, false) }
func Fstat64(u models.Usercorn, a *models.Args) (uint64, error) { return fstat(u, a, true) }
func Stat(u models.Usercorn, a *models.Args) (uint64, error)    { return stat(u, a, true, false) }
func Stat64(u models.Usercorn, a *models.Args) (uint64, error)  { return stat(u, a, true, true) }
func Lstat(u models.Usercorn, a *models.Args) (uint64, error)   { return stat(u, a, false, false) }
func Lstat64(u models.Usercorn, a *models.Args) (uint64, error) { return stat(u, a, false, true) }

func Getcwd(u models.Usercorn, a *models.Args) (uint64, error) {
	var buf models.Obuf
	var size models.Len
	if err := a.Unpack(&buf, &size); err != nil {
		return 0, err
	}
	cwd := []byte(u.Files().Jail().Getcwd() + "\x00")
	if uint64(len(cwd)) > uint64(size) {
		return 0, syscall.ERANGE
	}
	if err := buf.Write(cwd); err != nil {
		return 0, err
	}
	return uint64(len(cwd)), nil
}

func Chdir(u models.Usercorn, a *models.Args) (uint64, error) {
	path, err := a.Str(0)
	if err != nil {
		return 0, err
	}
	return 0, u.Files().Jail().Chdir(path)
}
