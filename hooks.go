package sandcorn

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/lunixbochs/sandcorn/models/cpu"
)

type (
	CodeHook    func(s *Session, addr uint64, size uint32, ctx interface{}) error
	MemHook     func(s *Session, access int, addr uint64, size int, val int64, ctx interface{}) error
	SyscallHook func(s *Session, ev *SyscallEvent, ctx interface{}) error
	ExecHook    func(s *Session, ctx interface{}) error
)

// hook kinds, one ordered list each
const (
	hookCode = iota
	hookBlock
	hookMem
	hookSyscall
	hookExec
	hookKinds
)

var hookKindNames = [hookKinds]string{"code", "block", "mem", "syscall", "exec"}

// SyscallEvent is passed to syscall hooks before the handler runs.
type SyscallEvent struct {
	Num  int
	Name string

	skip bool
	ret  uint64
}

// Skip suppresses the handler and returns ret to the guest instead.
func (e *SyscallEvent) Skip(ret uint64) {
	e.skip = true
	e.ret = ret
}

func (e *SyscallEvent) Skipped() bool {
	return e.skip
}

type Hook struct {
	id         int
	kind       int
	begin, end uint64
	// cpu.HOOK_MEM_READ and/or cpu.HOOK_MEM_WRITE
	access int
	nums   map[int]bool
	cb     interface{}
	ctx    interface{}

	enabled bool
	removed bool
	s       *Session
}

func (h *Hook) Id() int {
	return h.id
}

func (h *Hook) Enable() {
	h.enabled = true
}

func (h *Hook) Disable() {
	h.enabled = false
}

func (h *Hook) Enabled() bool {
	return h.enabled && !h.removed
}

// Remove unregisters the hook. It is safe to call from inside any hook.
func (h *Hook) Remove() error {
	if h.removed {
		return nil
	}
	h.removed = true
	list := h.s.hooks[h.kind]
	// dispatch may be ranging over the old slice, so build a new one
	h.s.hooks[h.kind] = slices.DeleteFunc(slices.Clone(list), func(o *Hook) bool { return o == h })
	return nil
}

// start > end covers the whole address space
func (h *Hook) contains(addr uint64) bool {
	return h.begin > h.end || addr >= h.begin && addr <= h.end
}

func (s *Session) addHook(kind int, cb, ctx interface{}, begin, end uint64) (*Hook, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	if err := s.installEngineHook(kind); err != nil {
		return nil, err
	}
	s.hookId++
	h := &Hook{
		id:      s.hookId,
		kind:    kind,
		begin:   begin,
		end:     end,
		cb:      cb,
		ctx:     ctx,
		enabled: true,
		s:       s,
	}
	s.hooks[kind] = append(slices.Clone(s.hooks[kind]), h)
	return h, nil
}

// installEngineHook adds the single engine hook that fans out to a kind's list.
func (s *Session) installEngineHook(kind int) error {
	if s.engineHooks[kind] != nil {
		return nil
	}
	var (
		hh  cpu.Hook
		err error
	)
	switch kind {
	case hookCode:
		hh, err = s.engine.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
			s.fireCode(hookCode, addr, size)
		}, 1, 0)
	case hookBlock:
		hh, err = s.engine.HookAdd(cpu.HOOK_BLOCK, func(_ cpu.Cpu, addr uint64, size uint32) {
			s.fireCode(hookBlock, addr, size)
		}, 1, 0)
	case hookMem:
		hh, err = s.engine.HookAdd(cpu.HOOK_MEM_READ|cpu.HOOK_MEM_WRITE, func(_ cpu.Cpu, access int, addr uint64, size int, val int64) {
			s.fireMem(access, addr, size, val)
		}, 1, 0)
	default:
		// syscall and exec hooks are fired by the session itself
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "installing %s hook", hookKindNames[kind])
	}
	s.engineHooks[kind] = hh
	return nil
}

// runHook calls one callback, turning panics into errors. Failures are logged
// and only fault the session under FatalErrors.
func (s *Session) runHook(h *Hook, call func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("panic: %v", r)
			}
		}()
		return call()
	}()
	if err == nil {
		return
	}
	s.hookLog.Warn("hook failed", "id", h.id, "kind", hookKindNames[h.kind], "err", err)
	if s.config.FatalErrors {
		s.fault(errors.Wrapf(err, "%s hook %d", hookKindNames[h.kind], h.id))
	}
}

func (s *Session) fireCode(kind int, addr uint64, size uint32) {
	if kind == hookCode && s.stepping {
		if s.stepCount++; s.stepCount > 1 {
			s.engine.Stop()
			return
		}
	}
	for _, h := range s.hooks[kind] {
		if !h.Enabled() || !h.contains(addr) {
			continue
		}
		cb := h.cb.(CodeHook)
		s.runHook(h, func() error { return cb(s, addr, size, h.ctx) })
	}
}

func (s *Session) fireMem(access int, addr uint64, size int, val int64) {
	var want int
	switch access {
	case cpu.MEM_READ:
		want = cpu.HOOK_MEM_READ
	case cpu.MEM_WRITE:
		want = cpu.HOOK_MEM_WRITE
	default:
		// instruction fetches go to code hooks
		return
	}
	for _, h := range s.hooks[hookMem] {
		if !h.Enabled() || !h.contains(addr) || h.access&want == 0 {
			continue
		}
		cb := h.cb.(MemHook)
		s.runHook(h, func() error { return cb(s, access, addr, size, val, h.ctx) })
	}
}

func (s *Session) fireSyscall(ev *SyscallEvent) {
	for _, h := range s.hooks[hookSyscall] {
		if !h.Enabled() || len(h.nums) > 0 && !h.nums[ev.Num] {
			continue
		}
		cb := h.cb.(SyscallHook)
		s.runHook(h, func() error { return cb(s, ev, h.ctx) })
	}
}

func (s *Session) fireExec() {
	for _, h := range s.hooks[hookExec] {
		if !h.Enabled() {
			continue
		}
		cb := h.cb.(ExecHook)
		s.runHook(h, func() error { return cb(s, h.ctx) })
	}
}

// HookCode fires before each instruction in [begin, end]. begin > end means everywhere.
func (s *Session) HookCode(cb CodeHook, ctx interface{}, begin, end uint64) (*Hook, error) {
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	return s.addHook(hookCode, cb, ctx, begin, end)
}

func (s *Session) HookCodeAll(cb CodeHook, ctx interface{}) (*Hook, error) {
	return s.HookCode(cb, ctx, 1, 0)
}

// HookBlock fires at the start of each basic block.
func (s *Session) HookBlock(cb CodeHook, ctx interface{}, begin, end uint64) (*Hook, error) {
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	return s.addHook(hookBlock, cb, ctx, begin, end)
}

// HookMem fires on guest reads and/or writes. kinds is a mask of cpu.HOOK_MEM_READ and cpu.HOOK_MEM_WRITE.
func (s *Session) HookMem(kinds int, cb MemHook, ctx interface{}, begin, end uint64) (*Hook, error) {
	if kinds&(cpu.HOOK_MEM_READ|cpu.HOOK_MEM_WRITE) == 0 {
		return nil, errors.Errorf("bad memory hook kinds %#x", kinds)
	}
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	h, err := s.addHook(hookMem, cb, ctx, begin, end)
	if err != nil {
		return nil, err
	}
	h.access = kinds
	return h, nil
}

// HookSyscall fires on entry to the listed syscall numbers, or every syscall if none are given.
func (s *Session) HookSyscall(cb SyscallHook, ctx interface{}, nums ...int) (*Hook, error) {
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	h, err := s.addHook(hookSyscall, cb, ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(nums) > 0 {
		h.nums = make(map[int]bool, len(nums))
		for _, n := range nums {
			h.nums[n] = true
		}
	}
	return h, nil
}

// HookExec fires after execve replaces the image.
func (s *Session) HookExec(cb ExecHook, ctx interface{}) (*Hook, error) {
	if cb == nil {
		return nil, errors.New("nil hook callback")
	}
	return s.addHook(hookExec, cb, ctx, 1, 0)
}
