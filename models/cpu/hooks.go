package cpu

import (
	"github.com/pkg/errors"
)

// callback shapes accepted by HookAdd, matching the Unicorn adapter
type (
	CodeCb     = func(Cpu, uint64, uint32)
	IntrCb     = func(Cpu, uint32)
	MemCb      = func(Cpu, int, uint64, int, int64)
	MemFaultCb = func(Cpu, int, uint64, int, int64) bool
)

var ErrHookType = errors.New("unsupported hook type")

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end covers the whole address space
func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type codeHook struct {
	hookInfo
	cb CodeCb
}

type intrHook struct {
	hookInfo
	cb IntrCb
}

type memHook struct {
	hookInfo
	cb MemCb
}

type memFaultHook struct {
	hookInfo
	cb MemFaultCb
}

// Hooks implements HookAdd/HookDel and event fan-out for interpreter engines.
type Hooks struct {
	cpu Cpu

	code     []*codeHook
	block    []*codeHook
	intr     []*intrHook
	mem      []*memHook
	memFault []*memFaultHook
}

// NewHooks optionally attaches to a *Mem so memory accesses dispatch hooks automatically.
func NewHooks(cpu Cpu, mem *Mem) *Hooks {
	h := &Hooks{cpu: cpu}
	if mem != nil {
		mem.hooks = h
	}
	return h
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (Hook, error) {
	info := hookInfo{htype, start, end}
	var hook Hook
	var ok bool
	switch htype {
	case HOOK_BLOCK:
		hh := &codeHook{hookInfo: info}
		if hh.cb, ok = cb.(CodeCb); ok {
			h.block, hook = append(h.block, hh), hh
		}
	case HOOK_CODE:
		hh := &codeHook{hookInfo: info}
		if hh.cb, ok = cb.(CodeCb); ok {
			h.code, hook = append(h.code, hh), hh
		}
	case HOOK_INTR:
		hh := &intrHook{hookInfo: info}
		if hh.cb, ok = cb.(IntrCb); ok {
			h.intr, hook = append(h.intr, hh), hh
		}
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		hh := &memHook{hookInfo: info}
		if hh.cb, ok = cb.(MemCb); ok {
			h.mem, hook = append(h.mem, hh), hh
		}
	case HOOK_MEM_ERR:
		hh := &memFaultHook{hookInfo: info}
		if hh.cb, ok = cb.(MemFaultCb); ok {
			h.memFault, hook = append(h.memFault, hh), hh
		}
	default:
		return nil, errors.Wrapf(ErrHookType, "hook type %d", htype)
	}
	if !ok {
		return nil, errors.Errorf("bad callback type %T for hook type %d", cb, htype)
	}
	return hook, nil
}

func without[T comparable](list []T, v T) []T {
	tmp := make([]T, 0, len(list))
	for _, e := range list {
		if e != v {
			tmp = append(tmp, e)
		}
	}
	return tmp
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch info.Type() {
	case HOOK_BLOCK:
		h.block = without(h.block, hh.(*codeHook))
	case HOOK_CODE:
		h.code = without(h.code, hh.(*codeHook))
	case HOOK_INTR:
		h.intr = without(h.intr, hh.(*intrHook))
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		h.mem = without(h.mem, hh.(*memHook))
	case HOOK_MEM_ERR:
		h.memFault = without(h.memFault, hh.(*memFaultHook))
	}
	return nil
}

func (h *Hooks) OnBlock(addr uint64, size uint32) {
	for _, v := range h.block {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnIntr(intno uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, intno)
	}
}

func (h *Hooks) OnMem(access int, addr uint64, size int, val int64) {
	for _, v := range h.mem {
		if !v.Contains(addr) {
			continue
		}
		switch {
		case access == MEM_FETCH:
		case access == MEM_WRITE && v.htype&HOOK_MEM_WRITE == 0:
		case access == MEM_READ && v.htype&HOOK_MEM_READ == 0:
		default:
			v.cb(h.cpu, access, addr, size, val)
		}
	}
}

func (h *Hooks) OnFault(access int, addr uint64, size int, val int64) bool {
	for _, v := range h.memFault {
		if v.Contains(addr) {
			if v.cb(h.cpu, access, addr, size, val) {
				return true
			}
		}
	}
	return false
}
