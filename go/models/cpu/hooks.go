package cpu

import (
	"github.com/pkg/errors"
)

type CodeCb func(Cpu, uint64, uint32)
type IntrCb func(Cpu, uint32)
type MemCb func(Cpu, int, uint64, int, int64)
type MemFaultCb func(Cpu, int, uint64, int, int64) bool

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end hooks the whole address space
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

// Hooks fans cpu events out to registered callbacks. A Cpu embeds it to get
// HookAdd/HookDel.
type Hooks struct {
	cpu Cpu

	code     []*codeHook
	intr     []*intrHook
	mem      []*memHook
	memFault []*memFaultHook

	skipCode bool
}

// creates &Hooks{}, optionally attaching to a *Mem instance so it reports faults here
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
	switch htype {
	case HOOK_CODE:
		fn, ok := asCodeCb(cb)
		if !ok {
			return nil, errors.Errorf("HOOK_CODE: bad callback type %T", cb)
		}
		hh := &codeHook{info, fn}
		h.code, hook = append(h.code, hh), hh

	case HOOK_INTR:
		fn, ok := asIntrCb(cb)
		if !ok {
			return nil, errors.Errorf("HOOK_INTR: bad callback type %T", cb)
		}
		hh := &intrHook{info, fn}
		h.intr, hook = append(h.intr, hh), hh

	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		fn, ok := asMemCb(cb)
		if !ok {
			return nil, errors.Errorf("HOOK_MEM: bad callback type %T", cb)
		}
		hh := &memHook{info, fn}
		h.mem, hook = append(h.mem, hh), hh

	case HOOK_MEM_ERR:
		fn, ok := asMemFaultCb(cb)
		if !ok {
			return nil, errors.Errorf("HOOK_MEM_ERR: bad callback type %T", cb)
		}
		hh := &memFaultHook{info, fn}
		h.memFault, hook = append(h.memFault, hh), hh

	default:
		return nil, errors.New("Unknown hook type.")
	}
	return hook, nil
}

func asCodeCb(cb interface{}) (CodeCb, bool) {
	switch fn := cb.(type) {
	case CodeCb:
		return fn, true
	case func(Cpu, uint64, uint32):
		return fn, true
	}
	return nil, false
}

func asIntrCb(cb interface{}) (IntrCb, bool) {
	switch fn := cb.(type) {
	case IntrCb:
		return fn, true
	case func(Cpu, uint32):
		return fn, true
	}
	return nil, false
}

func asMemCb(cb interface{}) (MemCb, bool) {
	switch fn := cb.(type) {
	case MemCb:
		return fn, true
	case func(Cpu, int, uint64, int, int64):
		return fn, true
	}
	return nil, false
}

func asMemFaultCb(cb interface{}) (MemFaultCb, bool) {
	switch fn := cb.(type) {
	case MemFaultCb:
		return fn, true
	case func(Cpu, int, uint64, int, int64) bool:
		return fn, true
	}
	return nil, false
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch info.Type() {
	case HOOK_CODE:
		h.code = removeHook(h.code, hh)
	case HOOK_INTR:
		h.intr = removeHook(h.intr, hh)
	case HOOK_MEM_READ, HOOK_MEM_WRITE, HOOK_MEM_READ | HOOK_MEM_WRITE:
		h.mem = removeHook(h.mem, hh)
	case HOOK_MEM_ERR:
		h.memFault = removeHook(h.memFault, hh)
	}
	return nil
}

func removeHook[T comparable](list []T, hh Hook) []T {
	var tmp []T
	for _, v := range list {
		if Hook(v) != hh {
			tmp = append(tmp, v)
		}
	}
	return tmp
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	h.skipCode = false
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
			if h.skipCode {
				return
			}
		}
	}
}

// SkipCode keeps the code hooks after the calling one from seeing this
// instruction. Used when a hook stops the cpu before the fetch.
func (h *Hooks) SkipCode() {
	h.skipCode = true
}

func (h *Hooks) OnIntr(intno uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, intno)
	}
}

func (h *Hooks) OnMem(access int, addr uint64, size int, val int64) {
	for _, v := range h.mem {
		if v.htype == HOOK_MEM_READ && access == MEM_WRITE || v.htype == HOOK_MEM_WRITE && access != MEM_WRITE {
			continue
		}
		if v.Contains(addr) {
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

// Empty reports whether no hook of any kind is installed.
func (h *Hooks) Empty() bool {
	return len(h.code) == 0 && len(h.intr) == 0 && len(h.mem) == 0 && len(h.memFault) == 0
}
