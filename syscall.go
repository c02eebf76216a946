package sandcorn

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models"
	"github.com/lunixbochs/sandcorn/models/cpu"
	"github.com/lunixbochs/sandcorn/models/fs"
	"github.com/lunixbochs/sandcorn/models/trace"
)

// used for overrides and unknown numbers with no default kinds
var defaultKinds = []int{models.INT, models.INT, models.INT, models.INT, models.INT, models.INT}

// lookup returns the active entry for num: the override, then the ABI default.
// The entry is nil for unimplemented numbers.
func (s *Session) lookup(num int) (string, *models.Syscall) {
	if sys, ok := s.bindings[num]; ok {
		return sys.Name, sys
	}
	return s.os.Lookup(num)
}

// SetSyscall overrides the handler for num and returns the previously active entry,
// so the override can delegate to it. prev is nil if num had no handler.
func (s *Session) SetSyscall(num int, fn models.SyscallFunc) (prev *models.Syscall, err error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	name, prev := s.lookup(num)
	kinds, ret := defaultKinds, models.INT
	if prev != nil {
		kinds, ret = prev.Args, prev.Ret
	} else if def := s.DefaultSyscall(num); def != nil {
		kinds, ret = def.Args, def.Ret
	}
	s.bindings[num] = models.Sys(name, fn, ret, kinds...)
	return prev, nil
}

// SetSyscallEntry binds num to sys with explicit argument kinds.
func (s *Session) SetSyscallEntry(num int, sys *models.Syscall) (prev *models.Syscall, err error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if sys == nil || sys.Func == nil {
		return nil, errors.Errorf("syscall %d: nil handler", num)
	}
	_, prev = s.lookup(num)
	if sys.Name == "" {
		entry := *sys
		entry.Name = s.SyscallName(num)
		sys = &entry
	}
	s.bindings[num] = sys
	return prev, nil
}

// AddSyscallOverride is SetSyscall for callers that do not delegate.
func (s *Session) AddSyscallOverride(num int, fn models.SyscallFunc) error {
	_, err := s.SetSyscall(num, fn)
	return err
}

// ResetSyscall drops any override for num.
func (s *Session) ResetSyscall(num int) error {
	if err := s.check(); err != nil {
		return err
	}
	delete(s.bindings, num)
	return nil
}

// DefaultSyscall returns the ABI's own handler for num, or nil.
func (s *Session) DefaultSyscall(num int) *models.Syscall {
	_, sys := s.os.Lookup(num)
	return sys
}

func (s *Session) SyscallName(num int) string {
	if sys, ok := s.bindings[num]; ok {
		return sys.Name
	}
	return s.os.SyscallName(num)
}

// syscallArgs reads count arguments from ArgRegs, then from the stack if the ABI allows it.
func (s *Session) syscallArgs(count int) ([]uint64, error) {
	regs := s.os.ArgRegs
	if count < len(regs) {
		regs = regs[:count]
	}
	vals, err := s.ReadRegs(regs)
	if err != nil {
		return nil, err
	}
	if extra := count - len(vals); extra > 0 && s.os.StackArgs {
		sp, err := s.RegRead(s.arch.SP)
		if err != nil {
			return nil, err
		}
		width := uint64(s.bsz)
		for i := 0; i < extra; i++ {
			buf, err := s.MemRead(sp+s.os.StackSkip+uint64(i)*width, width)
			if err != nil {
				return nil, errors.Wrap(err, "reading stack argument")
			}
			vals = append(vals, s.UnpackAddr(buf))
		}
	}
	for len(vals) < count {
		vals = append(vals, 0)
	}
	return vals, nil
}

func callHandler(sys *models.Syscall, u models.Usercorn, a *models.Args) (ret uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s: panic: %v", a.Name, r)
		}
	}()
	return sys.Func(u, a)
}

// errnoName classifies a handler error into a symbolic errno.
func errnoName(err error) string {
	var errno syscall.Errno
	switch {
	case errors.Is(err, cpu.ErrAccessViolation):
		return "EFAULT"
	case errors.Is(err, fs.ErrBadDescriptor), errors.Is(err, fs.ErrDescriptorInUse):
		return "EBADF"
	case errors.Is(err, fs.ErrPathEscapesJail):
		return "EACCES"
	case errors.Is(err, fs.ErrNotSeekable):
		return "ESPIPE"
	case errors.Is(err, fs.ErrNotTruncatable):
		return "EINVAL"
	case errors.Is(err, models.ErrUnimplementedSyscall):
		return "ENOSYS"
	case errors.As(err, &errno):
		if name := models.ErrnoName(errno); name != "" {
			return name
		}
	}
	return "EIO"
}

// guestErrno maps an errno name into the guest table. Small tables fall back to EIO, then EINVAL.
func (s *Session) guestErrno(name string) int {
	for _, n := range []string{name, "EIO", "EINVAL"} {
		if v, ok := s.os.Errno[n]; ok {
			return v
		}
	}
	return 1
}

// Syscall dispatches the syscall the guest is currently making.
// It returns an error only when the session faults.
func (s *Session) Syscall() error {
	if err := s.check(); err != nil {
		return err
	}
	raw, err := s.RegRead(s.os.SyscallReg)
	if err != nil {
		s.fault(err)
		return err
	}
	num := int(raw)
	if s.os.SyscallNum != nil {
		num = s.os.SyscallNum(s, raw)
	}
	name, sys := s.lookup(num)

	ev := &SyscallEvent{Num: num, Name: name}
	s.fireSyscall(ev)
	if s.err != nil {
		return s.err
	}

	kinds, retKind := defaultKinds, models.INT
	if sys != nil {
		kinds, retKind = sys.Args, sys.Ret
	}
	a := &models.Args{Num: num, Name: name, Kinds: kinds, U: s}
	var ret uint64
	a.Raw, err = s.syscallArgs(len(kinds))
	switch {
	case ev.skip:
		ret, err = ev.ret, nil
	case err != nil:
	case sys == nil:
		err = errors.Wrapf(models.ErrUnimplementedSyscall, "%s (%d)", name, num)
	default:
		ret, err = callHandler(sys, s, a)
	}
	return s.finishSyscall(a, retKind, ret, err)
}

// finishSyscall applies the result policy, then records the call.
func (s *Session) finishSyscall(a *models.Args, retKind int, ret uint64, err error) error {
	var (
		errno  string
		exit   models.ExitStatus
		exited bool
		fatal  error
	)
	switch {
	case err == nil:
		fatal = s.os.SetReturn(s, ret, 0)
	case errors.As(err, &exit):
		if !s.exited {
			s.Exit(int(exit))
		}
		exited = true
	default:
		if e, ok := err.(syscall.Errno); ok {
			errno = models.ErrnoName(e)
		} else {
			errno = errnoName(err)
			s.sysLog.Warn("syscall failed", "num", a.Num, "name", a.Name, "errno", errno, "err", err)
			if s.config.Fatal(a.Num, errors.Is(err, models.ErrUnimplementedSyscall)) {
				fatal = err
				break
			}
		}
		fatal = s.os.SetReturn(s, 0, s.guestErrno(errno))
	}
	if s.config.TraceSys || s.trace != nil {
		s.record(a, retKind, ret, errno, exited)
	}
	if fatal != nil {
		s.fault(fatal)
		return fatal
	}
	return nil
}

func (s *Session) record(a *models.Args, retKind int, ret uint64, errno string, exited bool) {
	if s.config.TraceSys {
		fmt.Fprintln(s.straceOut, s.strace(a, retKind, ret, errno, exited, s.config.Color))
	}
	if s.trace != nil {
		frame := &trace.Frame{
			Num:  uint32(a.Num),
			Ret:  ret,
			Args: a.Raw,
			Name: a.Name,
			Desc: s.strace(a, retKind, ret, errno, exited, false),
		}
		if errno != "" {
			frame.Errno = int32(s.guestErrno(errno))
		}
		if err := s.trace.Pack(frame); err != nil {
			s.sysLog.Error("trace write failed, disabling trace", "err", err)
			s.trace.Close()
			s.trace = nil
		}
	}
}
