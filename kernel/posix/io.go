package posix

import (
	"syscall"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
)

// longest single transfer; larger requests complete short, as a pipe would
const maxIO = 16 << 20

func clampLen(n models.Len) int {
	if n > maxIO {
		return maxIO
	}
	return int(n)
}

func Read(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var buf models.Obuf
	var size models.Len
	if err := a.Unpack(&fd, &buf, &size); err != nil {
		return 0, err
	}
	tmp := make([]byte, clampLen(size))
	if err := buf.Writable(uint64(len(tmp))); err != nil {
		return 0, err
	}
	n, err := u.Files().Read(int(fd), tmp)
	if err != nil {
		return 0, err
	}
	if err := buf.Write(tmp[:n]); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func Write(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var buf models.Buf
	var size models.Len
	if err := a.Unpack(&fd, &buf, &size); err != nil {
		return 0, err
	}
	tmp, err := buf.Read(uint64(clampLen(size)))
	if err != nil {
		return 0, err
	}
	n, err := u.Files().Write(int(fd), tmp)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func Pread64(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var buf models.Obuf
	var size models.Len
	var off models.Off
	if err := a.Unpack(&fd, &buf, &size, &off); err != nil {
		return 0, err
	}
	tmp := make([]byte, clampLen(size))
	if err := buf.Writable(uint64(len(tmp))); err != nil {
		return 0, err
	}
	n, err := u.Files().ReadAt(int(fd), tmp, int64(off))
	if err != nil {
		return 0, err
	}
	return uint64(n), buf.Write(tmp[:n])
}

func Pwrite64(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var buf models.Buf
	var size models.Len
	var off models.Off
	if err := a.Unpack(&fd, &buf, &size, &off); err != nil {
		return 0, err
	}
	tmp, err := buf.Read(uint64(clampLen(size)))
	if err != nil {
		return 0, err
	}
	n, err := u.Files().WriteAt(int(fd), tmp, int64(off))
	return uint64(n), err
}

type iovec32 struct {
	Base uint32
	Len  uint32
}

type iovec64 struct {
	Base uint64
	Len  uint64
}

// iovecs unpacks count {base, len} pairs from guest memory.
func iovecs(u models.Usercorn, addr uint64, count int) ([]iovec64, error) {
	if count < 0 || count > 1024 {
		return nil, syscall.EINVAL
	}
	s := u.StrucAt(addr)
	ret := make([]iovec64, count)
	for i := range ret {
		if u.Bits() == 64 {
			if err := s.Unpack(&ret[i]); err != nil {
				return nil, err
			}
		} else {
			var iov iovec32
			if err := s.Unpack(&iov); err != nil {
				return nil, err
			}
			ret[i] = iovec64{uint64(iov.Base), uint64(iov.Len)}
		}
	}
	return ret, nil
}

func Readv(u models.Usercorn, a *models.Args) (uint64, error) {
	iov, err := iovecs(u, a.Uint(1), int(a.Int(2)))
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, vec := range iov {
		tmp := make([]byte, clampLen(models.Len(vec.Len)))
		n, err := u.Files().Read(a.Fd(0), tmp)
		if err != nil {
			return 0, err
		}
		if err := u.MemWrite(vec.Base, tmp[:n]); err != nil {
			return 0, err
		}
		total += uint64(n)
		if n < len(tmp) {
			break
		}
	}
	return total, nil
}

func Writev(u models.Usercorn, a *models.Args) (uint64, error) {
	iov, err := iovecs(u, a.Uint(1), int(a.Int(2)))
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, vec := range iov {
		tmp, err := u.MemRead(vec.Base, vec.Len)
		if err != nil {
			return 0, err
		}
		n, err := u.Files().Write(a.Fd(0), tmp)
		if err != nil {
			return 0, err
		}
		total += uint64(n)
	}
	return total, nil
}

func Lseek(u models.Usercorn, a *models.Args) (uint64, error) {
	var fd models.Fd
	var off models.Off
	var whence int
	if err := a.Unpack(&fd, &off, &whence); err != nil {
		return 0, err
	}
	pos, err := u.Files().Seek(int(fd), int64(off), whence)
	return uint64(pos), err
}

// Llseek takes a split 64-bit offset and stores the result through a pointer.
func Llseek(u models.Usercorn, a *models.Args) (uint64, error) {
	off := int64(a.Uint(1)<<32 | a.Uint(2)&0xffffffff)
	pos, err := u.Files().Seek(a.Fd(0), off, int(a.Int(4)))
	if err != nil {
		return 0, err
	}
	if err := u.StrucAt(a.Uint(3)).Pack(&pos); err != nil {
		return 0, errors.Wrap(err, "writing _llseek result")
	}
	return 0, nil
}

func Ioctl(u models.Usercorn, a *models.Args) (uint64, error) {
	if _, err := u.Files().Get(a.Fd(0)); err != nil {
		return 0, err
	}
	return 0, syscall.ENOTTY
}
