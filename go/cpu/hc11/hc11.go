package hc11

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

type Builder struct {
	Config *Config
}

func (b *Builder) New() (cpu.Cpu, error) {
	return New("hc11", b.Config, nil, nil)
}

// HC11 is one MC68HC11 core. It owns its register file, internal RAM and
// window positions. Everything outside the two windows goes to Mem.
type HC11 struct {
	*cpu.Hooks

	name string
	cfg  Config
	log  logrus.FieldLogger
	mem  *cpu.Mem
	io   *cpu.IOSpace

	d, ix, iy uint16
	sp        uint16
	pc, ppc   uint16
	ccr       uint8

	adctl     uint8
	adChannel int
	tflg1     uint8
	// last value written to each register, for the ones that read back
	latch [256]uint8

	irqState  [2]int
	waitState int
	stopState int

	regPosition int
	ramPosition int
	internalRAM []byte

	icount      int
	ir          uint16
	stopRequest bool
	irqCallback cpu.IRQCallback
}

// New creates a core attached to mem and io. A nil cfg selects
// DefaultConfig, nil mem and io get fresh empty spaces.
func New(name string, cfg *Config, mem *cpu.Mem, io *cpu.IOSpace) (*HC11, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mem == nil {
		mem = cpu.NewMem(16, binary.BigEndian)
	}
	if io == nil {
		io = cpu.NewIOSpace()
	}
	c := &HC11{
		name:        name,
		cfg:         *cfg,
		log:         logrus.StandardLogger().WithField("cpu", name),
		mem:         mem,
		io:          io,
		internalRAM: make([]byte, cfg.InternalRAMSize),
	}
	c.Hooks = cpu.NewHooks(c, mem)
	c.defaultWindows()
	return c, nil
}

func (c *HC11) defaultWindows() {
	c.regPosition = 0x1000
	c.ramPosition = 0x0000
	c.latch[REG_INIT] = 0x01
}

func (c *HC11) SetLogger(log logrus.FieldLogger) {
	c.log = log
}

func (c *HC11) Name() string        { return c.name }
func (c *HC11) Clock() uint64       { return c.cfg.Clock }
func (c *HC11) Config() Config      { return c.cfg }
func (c *HC11) Mem() *cpu.Mem       { return c.mem }
func (c *HC11) IO() *cpu.IOSpace    { return c.io }
func (c *HC11) RegPosition() uint16 { return uint16(c.regPosition) }
func (c *HC11) RAMPosition() uint16 { return uint16(c.ramPosition) }

func (c *HC11) a() uint8 { return uint8(c.d >> 8) }
func (c *HC11) b() uint8 { return uint8(c.d) }

func (c *HC11) setA(v uint8) { c.d = c.d&0x00ff | uint16(v)<<8 }
func (c *HC11) setB(v uint8) { c.d = c.d&0xff00 | uint16(v) }

func (c *HC11) SetIRQCallback(cb cpu.IRQCallback) {
	c.irqCallback = cb
}

func (c *HC11) Close() error {
	return nil
}
