package hc11corn

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/hc11corn/go/arch/hc11"
	core "github.com/lunixbochs/hc11corn/go/cpu/hc11"
	"github.com/lunixbochs/hc11corn/go/loader"
	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/models/cpu"
	"github.com/lunixbochs/hc11corn/go/models/trace"
	"github.com/lunixbochs/hc11corn/go/sched"
)

// ErrIdle ends a run where every core waits on something that will never
// happen.
var ErrIdle = errors.New("every core is suspended and no timer is pending")

type Options struct {
	// one entry per core, in scheduling order. Empty means a single "cpu0".
	Cores []loader.CoreSpec
	ROMs  []loader.ROMSpec
	RAMs  []loader.RAMSpec
	// part description shared by every core. Clock is overridden per core
	// by CoreSpec.Clock.
	CPU *core.Config

	// seconds between pulses of IRQLine on every core, 0 for none
	IRQPeriod float64
	IRQLine   int

	// base of a shared mailbox, 0 for none. See mailbox.go.
	Mailbox uint64

	// PORTB output of every core
	Console io.Writer
}

type coreState struct {
	*core.HC11
	index int
	exec  *sched.Exec
	// instructions seen by the monitor hook
	ins uint64
	// first instruction of a run, exempt from breakpoints
	exempt uint64
}

// Machine is a set of HC11 cores sharing a program space, driven by one
// scheduler.
type Machine struct {
	arch   *models.Arch
	config *models.Config
	log    *logrus.Logger
	sched  *sched.Scheduler
	mem    *cpu.Mem

	cores    []*coreState
	byCore   map[models.Core]*coreState
	selected *coreState
	images   []loader.Image
	console  io.Writer
	irqTimer *sched.Timer

	trace *trace.Trace

	breakpoints []*models.Breakpoint
	hit         *models.Breakpoint
	hitCore     *coreState
	stepping    *coreState
	stepStart   uint64
	stop        int32
}

func NewMachine(config *models.Config, opts *Options) (*Machine, error) {
	config = config.Init()
	if opts == nil {
		opts = &Options{}
	}
	log := config.Logger()
	m := &Machine{
		arch:    hc11.Arch,
		config:  config,
		log:     log,
		sched:   sched.New(log),
		mem:     cpu.NewMem(16, binary.BigEndian),
		byCore:  make(map[models.Core]*coreState),
		console: opts.Console,
	}
	if m.console == nil {
		m.console = ioutil.Discard
	}
	if config.Quantum > 0 {
		m.sched.SetQuantum(sched.FromSeconds(config.Quantum))
	}
	if err := m.mapLayout(opts); err != nil {
		m.Close()
		return nil, err
	}
	specs := opts.Cores
	if len(specs) == 0 {
		specs = []loader.CoreSpec{{Name: "cpu0"}}
	}
	for i, spec := range specs {
		if err := m.addCore(i, spec, opts.CPU); err != nil {
			m.Close()
			return nil, err
		}
	}
	m.selected = m.cores[0]
	if err := m.Reset(); err != nil {
		m.Close()
		return nil, err
	}
	if opts.IRQPeriod > 0 {
		line := opts.IRQLine
		m.irqTimer = m.sched.TimerPulse(sched.FromSeconds(opts.IRQPeriod), func() {
			for _, c := range m.cores {
				m.sched.SetIRQLine(c.HC11, line, cpu.HOLD_LINE)
			}
		})
	}
	if config.Trace.Any() {
		if err := m.attachTrace(); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}

// mapLayout maps RAM first, so ROM images win where they overlap.
func (m *Machine) mapLayout(opts *Options) error {
	for _, r := range opts.RAMs {
		if err := m.mem.MemMapData(r.Addr, make([]byte, r.Size), cpu.PROT_ALL, "ram"); err != nil {
			return errors.Wrapf(err, "mapping ram at $%04x", r.Addr)
		}
	}
	for _, spec := range opts.ROMs {
		img, err := spec.Load()
		if err != nil {
			return err
		}
		m.images = append(m.images, img)
		for _, seg := range img.Segments() {
			if err := m.mem.MemMapData(seg.Addr, seg.Data, cpu.PROT_READ|cpu.PROT_EXEC, img.Name()); err != nil {
				return errors.Wrapf(err, "%s: mapping $%04x", img.Name(), seg.Addr)
			}
		}
		m.log.WithFields(logrus.Fields{"rom": img.Name(), "segments": len(img.Segments())}).Debug("rom mapped")
	}
	if opts.Mailbox != 0 {
		mb := &mailbox{base: opts.Mailbox, sched: m.sched}
		if err := m.mem.MemMapHandler(opts.Mailbox, MAILBOX_SIZE, cpu.PROT_READ|cpu.PROT_WRITE, mb, "mailbox"); err != nil {
			return errors.Wrapf(err, "mapping mailbox at $%04x", opts.Mailbox)
		}
	}
	return nil
}

func (m *Machine) addCore(i int, spec loader.CoreSpec, tmpl *core.Config) error {
	cfg := core.DefaultConfig()
	if tmpl != nil {
		*cfg = *tmpl
	}
	if spec.Clock != 0 {
		cfg.Clock = spec.Clock
	}
	c, err := core.New(spec.Name, cfg, m.mem, cpu.NewIOSpace())
	if err != nil {
		return errors.Wrap(err, spec.Name)
	}
	c.SetLogger(m.log.WithField("cpu", spec.Name))
	exec, err := m.sched.Add(c)
	if err != nil {
		return err
	}
	cs := &coreState{HC11: c, index: i, exec: exec}
	m.wirePorts(cs)
	// installed before any tracer, so a stop can hide the instruction from it
	if _, err := c.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
		m.monitor(cs, addr)
	}, 1, 0); err != nil {
		return errors.Wrap(err, "HookAdd failed")
	}
	m.cores = append(m.cores, cs)
	m.byCore[c] = cs
	return nil
}

func (m *Machine) attachTrace() error {
	t, err := trace.NewTrace(m, &m.config.Trace)
	if err != nil {
		return err
	}
	tc := m.config.Trace
	if tc.Ins || tc.Mem || tc.Reg || tc.Intr {
		p := trace.NewPrinter(m.config.Output, m.arch, &m.config.Trace)
		t.Listen(p.Feed)
	}
	if err := t.Attach(); err != nil {
		t.Detach()
		return err
	}
	m.trace = t
	return nil
}

// Reset resets every core. Images without a reset vector start at their
// recorded entry point.
func (m *Machine) Reset() error {
	if err := m.sched.Reset(); err != nil {
		return err
	}
	if _, ok := m.mem.Peek8(core.VEC_RESET); ok {
		return nil
	}
	for _, img := range m.images {
		if entry, ok := img.Entry(); ok {
			for _, c := range m.cores {
				c.RegWrite(core.PC, entry)
			}
			m.log.WithField("entry", fmt.Sprintf("$%04x", entry)).Debug("no reset vector, using image entry")
			break
		}
	}
	return nil
}

func (m *Machine) Arch() *models.Arch                { return m.arch }
func (m *Machine) Config() *models.Config            { return m.config }
func (m *Machine) Log() logrus.FieldLogger           { return m.log }
func (m *Machine) Sched() *sched.Scheduler           { return m.sched }
func (m *Machine) Mem() *cpu.Mem                     { return m.mem }
func (m *Machine) Trace() *trace.Trace               { return m.trace }
func (m *Machine) Core() models.Core                 { return m.selected.HC11 }
func (m *Machine) Hit() *models.Breakpoint           { return m.hit }
func (m *Machine) Breakpoints() []*models.Breakpoint { return m.breakpoints }

func (m *Machine) Cores() []models.Core {
	out := make([]models.Core, len(m.cores))
	for i, c := range m.cores {
		out[i] = c.HC11
	}
	return out
}

// HitCore is the core that reached Hit.
func (m *Machine) HitCore() models.Core {
	if m.hitCore == nil {
		return nil
	}
	return m.hitCore.HC11
}

func (m *Machine) find(name string) *coreState {
	for _, c := range m.cores {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (m *Machine) FindCore(name string) models.Core {
	if c := m.find(name); c != nil {
		return c.HC11
	}
	return nil
}

func (m *Machine) Select(name string) error {
	c := m.find(name)
	if c == nil {
		return errors.Errorf("no core named %q", name)
	}
	m.selected = c
	return nil
}

func (m *Machine) BreakAdd(desc string) (*models.Breakpoint, error) {
	b, err := models.ParseBreakpoint(desc)
	if err != nil {
		return nil, err
	}
	if b.Core != "" && m.find(b.Core) == nil {
		return nil, errors.Errorf("no core named %q", b.Core)
	}
	m.breakpoints = append(m.breakpoints, b)
	return b, nil
}

func (m *Machine) BreakDel(b *models.Breakpoint) error {
	for i, v := range m.breakpoints {
		if v == b {
			m.breakpoints = append(m.breakpoints[:i], m.breakpoints[i+1:]...)
			return nil
		}
	}
	return errors.Errorf("breakpoint %s not found", b)
}

// Stop ends the current Run or Step after the running slice. Safe to call
// from any goroutine.
func (m *Machine) Stop() {
	atomic.StoreInt32(&m.stop, 1)
}

func (m *Machine) stopped() bool {
	return atomic.LoadInt32(&m.stop) != 0
}

// monitor sees every instruction of every core before it is fetched.
func (m *Machine) monitor(c *coreState, addr uint64) {
	c.ins++
	if m.stepping == c && c.ins > m.stepStart+1 {
		m.halt(c)
		return
	}
	if len(m.breakpoints) == 0 || c.ins == c.exempt {
		return
	}
	for _, b := range m.breakpoints {
		if b.Match(c.Name(), addr) {
			m.hit, m.hitCore = b, c
			m.log.WithFields(logrus.Fields{"cpu": c.Name(), "break": b.String()}).Debug("breakpoint")
			m.halt(c)
			return
		}
	}
}

// halt stops c before the current instruction and hides it from the hooks
// after the monitor.
func (m *Machine) halt(c *coreState) {
	c.SkipCode()
	m.sched.AbortTimeslice()
}

// begin clears the stop state and lets every core leave the address it
// sits on, even when that is a breakpoint.
func (m *Machine) begin() {
	atomic.StoreInt32(&m.stop, 0)
	m.hit, m.hitCore = nil, nil
	for _, c := range m.cores {
		c.exempt = c.ins + 1
	}
}

// Run advances emulated time by d. It returns early on Stop, a breakpoint,
// or when nothing is left that could run.
func (m *Machine) Run(d sched.Time) error {
	m.begin()
	end := m.sched.Now().Add(d)
	for m.sched.Now().Less(end) {
		if m.stopped() || m.hit != nil {
			break
		}
		if m.sched.Idle() {
			return ErrIdle
		}
		m.sched.TimesliceUntil(end)
	}
	return nil
}

// Step runs the scheduler until the selected core has executed one
// instruction. Other cores keep pace with it.
func (m *Machine) Step() error {
	c := m.selected
	if !c.exec.Runnable() {
		return errors.Errorf("%s is suspended (%s)", c.Name(), sched.SuspendString(c.exec.Suspended()))
	}
	m.begin()
	m.stepping, m.stepStart = c, c.ins
	defer func() { m.stepping = nil }()
	for c.ins <= m.stepStart+1 {
		if m.stopped() || m.hit != nil {
			break
		}
		// the instruction put the core to sleep
		if c.ins > m.stepStart && !c.exec.Runnable() {
			break
		}
		if m.sched.Idle() {
			return ErrIdle
		}
		m.sched.Timeslice()
	}
	return nil
}

// Instructions is how many instructions c has started.
func (m *Machine) Instructions(c models.Core) uint64 {
	if cs, ok := m.byCore[c]; ok {
		return cs.ins
	}
	return 0
}

// Save snapshots the machine. See models.Save.
func (m *Machine) Save() ([]byte, error) {
	return models.Save(m)
}

func (m *Machine) Load(p []byte) error {
	return models.Load(m, p)
}

// Close ends the trace and releases the ROM images.
func (m *Machine) Close() error {
	var first error
	if m.trace != nil {
		first = m.trace.Detach()
		m.trace = nil
	}
	if m.irqTimer != nil {
		m.irqTimer.Cancel()
	}
	for _, img := range m.images {
		if err := img.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.images = nil
	return first
}
