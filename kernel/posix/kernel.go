package posix

import (
	"github.com/lunixbochs/sandcorn/models"
)

// Kernel returns the default handlers by canonical name. Each call builds a
// fresh table, so OS descriptors can replace entries without sharing.
func Kernel() map[string]*models.Syscall {
	list := []*models.Syscall{
		// I/O
		models.Sys("read", Read, models.LEN, models.FD, models.OBUF, models.LEN),
		models.Sys("write", Write, models.LEN, models.FD, models.BUF, models.LEN),
		models.Sys("readv", Readv, models.LEN, models.FD, models.PTR, models.INT),
		models.Sys("writev", Writev, models.LEN, models.FD, models.PTR, models.INT),
		models.Sys("pread64", Pread64, models.LEN, models.FD, models.OBUF, models.LEN, models.OFF),
		models.Sys("pwrite64", Pwrite64, models.LEN, models.FD, models.BUF, models.LEN, models.OFF),
		models.Sys("lseek", Lseek, models.OFF, models.FD, models.OFF, models.ENUM),
		models.Sys("_llseek", Llseek, models.INT, models.FD, models.INT, models.INT, models.PTR, models.ENUM),

		// files
		models.Sys("open", Open, models.FD, models.STR, models.ENUM, models.INT),
		models.Sys("openat", Openat, models.FD, models.FD, models.STR, models.ENUM, models.INT),
		models.Sys("creat", Creat, models.FD, models.STR, models.INT),
		models.Sys("close", Close, models.INT, models.FD),
		models.Sys("unlink", Unlink, models.INT, models.STR),
		models.Sys("unlinkat", Unlinkat, models.INT, models.FD, models.STR, models.ENUM),
		models.Sys("truncate", Truncate, models.INT, models.STR, models.OFF),
		models.Sys("ftruncate", Ftruncate, models.INT, models.FD, models.OFF),
		models.Sys("access", Access, models.INT, models.STR, models.ENUM),
		models.Sys("faccessat", Faccessat, models.INT, models.FD, models.STR, models.ENUM),

		// descriptors
		models.Sys("dup", Dup, models.FD, models.FD),
		models.Sys("dup2", Dup2, models.FD, models.FD, models.FD),
		models.Sys("dup3", Dup3, models.FD, models.FD, models.FD, models.ENUM),
		models.Sys("pipe", Pipe, models.INT, models.PTR),
		models.Sys("pipe2", Pipe, models.INT, models.PTR, models.ENUM),

		// metadata
		models.Sys("fstat", Fstat, models.INT, models.FD, models.PTR),
		models.Sys("stat", Stat, models.INT, models.STR, models.PTR),
		models.Sys("lstat", Lstat, models.INT, models.STR, models.PTR),
		models.Sys("fstat64", Fstat64, models.INT, models.FD, models.PTR),
		models.Sys("stat64", Stat64, models.INT, models.STR, models.PTR),
		models.Sys("lstat64", Lstat64, models.INT, models.STR, models.PTR),

		// directories
		models.Sys("getcwd", Getcwd, models.LEN, models.OBUF, models.LEN),
		models.Sys("chdir", Chdir, models.INT, models.STR),

		// process
		models.Sys("exit", Exit, models.INT, models.INT),
		models.Sys("exit_group", Exit, models.INT, models.INT),
		models.Sys("execve", Execve, models.INT, models.STR, models.PTR, models.PTR),
		models.Sys("getpid", Getpid, models.PID),
		models.Sys("getppid", Getppid, models.PID),
		models.Sys("gettid", Getpid, models.PID),
		models.Sys("getuid", Getuid, models.INT),
		models.Sys("geteuid", Geteuid, models.INT),
		models.Sys("getgid", Getgid, models.INT),
		models.Sys("getegid", Getegid, models.INT),

		// memory
		models.Sys("brk", Brk, models.PTR, models.PTR),
		models.Sys("mmap", Mmap, models.PTR, models.PTR, models.LEN, models.ENUM, models.ENUM, models.FD, models.OFF),
		models.Sys("mmap2", Mmap2, models.PTR, models.PTR, models.LEN, models.ENUM, models.ENUM, models.FD, models.OFF),
		models.Sys("munmap", Munmap, models.INT, models.PTR, models.LEN),
		models.Sys("mprotect", Mprotect, models.INT, models.PTR, models.LEN, models.ENUM),

		// system
		models.Sys("uname", Uname, models.INT, models.PTR),
		models.Sys("ioctl", Ioctl, models.INT, models.FD, models.ENUM, models.PTR),
		models.Sys("set_tid_address", SetTidAddress, models.PID, models.PTR),
		models.Sys("set_thread_area", Nop, models.INT, models.PTR),
		models.Sys("rt_sigaction", Nop, models.INT, models.INT, models.PTR, models.PTR),
		models.Sys("rt_sigprocmask", Nop, models.INT, models.ENUM, models.PTR, models.PTR),
		models.Sys("sigaction", Nop, models.INT, models.INT, models.PTR, models.PTR),
		models.Sys("sigprocmask", Nop, models.INT, models.ENUM, models.PTR, models.PTR),
		models.Sys("madvise", Nop, models.INT, models.PTR, models.LEN, models.ENUM),
	}
	ret := make(map[string]*models.Syscall, len(list))
	for _, s := range list {
		ret[s.Name] = s
	}
	return ret
}

// Nop accepts the call and reports success.
func Nop(u models.Usercorn, a *models.Args) (uint64, error) {
	return 0, nil
}

// DropArg wraps fn for ABIs that pad 64-bit arguments to an even register
// pair, removing the padding word at index i.
func DropArg(i int, sys *models.Syscall) *models.Syscall {
	fn := sys.Func
	wrapped := func(u models.Usercorn, a *models.Args) (uint64, error) {
		shifted := *a
		if i < len(a.Raw) {
			shifted.Raw = append(append([]uint64(nil), a.Raw[:i]...), a.Raw[i+1:]...)
		}
		return fn(u, &shifted)
	}
	args := append(append([]int(nil), sys.Args[:i]...), models.INT)
	args = append(args, sys.Args[i:]...)
	return &models.Syscall{Name: sys.Name, Args: args, Ret: sys.Ret, Func: wrapped}
}
