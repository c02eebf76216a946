package linux

import "maps"

// Errno maps errno names to the generic Linux values shared by x86, ARM and ARM64.
var Errno = map[string]int{
	"EPERM":        1,
	"ENOENT":       2,
	"ESRCH":        3,
	"EINTR":        4,
	"EIO":          5,
	"ENXIO":        6,
	"E2BIG":        7,
	"ENOEXEC":      8,
	"EBADF":        9,
	"ECHILD":       10,
	"EAGAIN":       11,
	"ENOMEM":       12,
	"EACCES":       13,
	"EFAULT":       14,
	"EBUSY":        16,
	"EEXIST":       17,
	"EXDEV":        18,
	"ENODEV":       19,
	"ENOTDIR":      20,
	"EISDIR":       21,
	"EINVAL":       22,
	"ENFILE":       23,
	"EMFILE":       24,
	"ENOTTY":       25,
	"EFBIG":        27,
	"ENOSPC":       28,
	"ESPIPE":       29,
	"EROFS":        30,
	"EMLINK":       31,
	"EPIPE":        32,
	"ERANGE":       34,
	"EDEADLK":      35,
	"ENAMETOOLONG": 36,
	"ENOSYS":       38,
	"ENOTEMPTY":    39,
	"ELOOP":        40,
}

// MipsErrno carries the MIPS o32 values, which diverge from 35 up.
var MipsErrno = withOverrides(Errno, map[string]int{
	"EDEADLK":      45,
	"ENAMETOOLONG": 78,
	"ENOSYS":       89,
	"ENOTEMPTY":    93,
	"ELOOP":        90,
})

func withOverrides(base, over map[string]int) map[string]int {
	ret := maps.Clone(base)
	maps.Copy(ret, over)
	return ret
}
