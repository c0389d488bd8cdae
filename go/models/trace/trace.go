package trace

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

type coreHook struct {
	core models.Core
	hook cpu.Hook
}

// Trace records what every core of a machine does, one frame per
// instruction. Frames go to the trace file, if any, and to listeners.
type Trace struct {
	m        models.Machine
	config   *models.TraceConfig
	regEnums []int
	pcRegs   map[int]bool

	w  io.WriteCloser
	tf *TraceWriter

	hooks     []coreHook
	num       map[models.Core]int
	regs      map[models.Core][]uint64
	cur       models.Core
	frame     *OpFrame
	listeners []func(op Op)
	attached  bool
}

func NewTrace(m models.Machine, config *models.TraceConfig) (*Trace, error) {
	arch := m.Arch()
	t := &Trace{
		m:        m,
		config:   config,
		regEnums: arch.RegEnums(),
		pcRegs:   map[int]bool{arch.PC: true},
		num:      make(map[models.Core]int),
		regs:     make(map[models.Core][]uint64),
	}
	// the previous pc moves with every step, like pc
	if ppc, ok := arch.RegLookup("ppc"); ok {
		t.pcRegs[ppc] = true
	}
	var err error
	t.w = config.TraceWriter
	if t.w == nil && config.Tracefile != "" {
		if t.w, err = os.Create(config.Tracefile); err != nil {
			return nil, errors.Wrapf(err, "failed to create tracefile '%s'", config.Tracefile)
		}
	}
	if t.w != nil {
		if t.tf, err = NewWriter(t.w, arch.Name, len(m.Cores())); err != nil {
			return nil, errors.Wrap(err, "failed to create trace writer")
		}
	}
	return t, nil
}

// Listen registers cb for every top level op, in order.
func (t *Trace) Listen(cb func(op Op)) {
	t.listeners = append(t.listeners, cb)
}

func (t *Trace) hook(c models.Core, htype int, cb interface{}) error {
	hh, err := c.HookAdd(htype, cb, 1, 0)
	if err != nil {
		return errors.Wrap(err, "HookAdd failed")
	}
	t.hooks = append(t.hooks, coreHook{c, hh})
	return nil
}

func (t *Trace) Attach() error {
	if t.attached {
		return nil
	}
	t.attached = true
	kf := &OpKeyframe{}
	for i, c := range t.m.Cores() {
		t.num[c] = i
		t.regs[c] = make([]uint64, len(t.regEnums))
		kf.Ops = append(kf.Ops, &OpCore{Num: uint8(i), Name: c.Name()})
		for j, enum := range t.regEnums {
			val, _ := c.RegRead(enum)
			t.regs[c][j] = val
			kf.Ops = append(kf.Ops, &OpReg{Num: uint8(enum), Val: uint16(val)})
		}
	}
	for _, p := range t.m.Mem().Mappings() {
		kf.Ops = append(kf.Ops, &OpMemMap{Addr: uint32(p.Addr), Size: uint32(p.Size), Prot: uint8(p.Prot), Desc: p.Desc})
	}
	t.send(kf)

	all := t.tf != nil
	for _, c := range t.m.Cores() {
		c := c
		if all || t.config.Ins || t.config.Reg {
			if err := t.hook(c, cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
				t.OnStep(c, addr, size)
			}); err != nil {
				return err
			}
		}
		if all || t.config.Mem {
			if err := t.hook(c, cpu.HOOK_MEM_READ|cpu.HOOK_MEM_WRITE, func(_ cpu.Cpu, access int, addr uint64, size int, val int64) {
				t.OnMem(c, access, addr, val)
			}); err != nil {
				return err
			}
		}
		if all || t.config.Intr {
			if err := t.hook(c, cpu.HOOK_INTR, func(_ cpu.Cpu, intno uint32) {
				t.OnIntr(c, intno)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Detach flushes the last frame, ends the trace and closes the file.
func (t *Trace) Detach() error {
	if !t.attached {
		return nil
	}
	t.attached = false
	t.flush()
	t.send(&OpExit{})
	for _, h := range t.hooks {
		h.core.HookDel(h.hook)
	}
	t.hooks = nil
	if t.tf != nil {
		err := t.tf.Close()
		t.tf = nil
		return err
	}
	return nil
}

func (t *Trace) send(op Op) {
	if t.tf != nil {
		if err := t.tf.Pack(op); err != nil {
			t.m.Log().WithError(err).Error("trace write failed, closing trace file")
			t.tf.Close()
			t.tf = nil
		}
	}
	for _, cb := range t.listeners {
		cb(op)
	}
}

// append adds op to the current frame, switching cores first if needed.
func (t *Trace) append(c models.Core, op Op) {
	if c != t.cur {
		t.flush()
		now := t.m.Sched().Now()
		t.send(&OpTime{Sec: now.Sec, Atto: now.Atto})
		t.send(&OpCore{Num: uint8(t.num[c]), Name: c.Name()})
		t.cur = c
	}
	if t.frame == nil {
		t.frame = &OpFrame{}
	}
	t.frame.Ops = append(t.frame.Ops, op)
}

// flush lags one instruction behind, because steps are seen before they
// execute. Register changes are collected here.
func (t *Trace) flush() {
	if t.frame == nil {
		return
	}
	if t.cur != nil {
		t.frame.Ops = append(t.frame.Ops, t.regUpdate(t.cur)...)
	}
	t.send(t.frame)
	t.frame = nil
}

func (t *Trace) regUpdate(c models.Core) []Op {
	var ops []Op
	regs := t.regs[c]
	for i, enum := range t.regEnums {
		val, _ := c.RegRead(enum)
		if regs[i] != val {
			regs[i] = val
			if !t.pcRegs[enum] {
				ops = append(ops, &OpReg{Num: uint8(enum), Val: uint16(val)})
			}
		}
	}
	return ops
}

func (t *Trace) OnStep(c models.Core, addr uint64, size uint32) {
	if c == t.cur {
		t.flush()
	}
	ins, _ := c.MemRead(addr, uint64(size))
	t.append(c, &OpStep{Addr: uint16(addr), Ins: ins})
}

func (t *Trace) OnMem(c models.Core, access int, addr uint64, val int64) {
	switch access {
	case cpu.MEM_READ:
		t.append(c, &OpMemRead{Addr: uint16(addr), Val: uint8(val)})
	case cpu.MEM_WRITE:
		t.append(c, &OpMemWrite{Addr: uint16(addr), Val: uint8(val)})
	}
}

func (t *Trace) OnIntr(c models.Core, intno uint32) {
	t.append(c, &OpIntr{Line: uint8(intno)})
}
