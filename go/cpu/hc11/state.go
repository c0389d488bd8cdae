package hc11

import (
	"bytes"
	"fmt"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models"
)

var RegNames = map[string]int{
	"pc":  PC,
	"sp":  SP,
	"a":   A,
	"b":   B,
	"d":   D,
	"ix":  IX,
	"iy":  IY,
	"ccr": CCR,
	"ppc": PPC,
}

func (c *HC11) RegRead(reg int) (uint64, error) {
	switch reg {
	case PC:
		return uint64(c.pc), nil
	case SP:
		return uint64(c.sp), nil
	case A:
		return uint64(c.a()), nil
	case B:
		return uint64(c.b()), nil
	case D:
		return uint64(c.d), nil
	case IX:
		return uint64(c.ix), nil
	case IY:
		return uint64(c.iy), nil
	case CCR:
		return uint64(c.ccr), nil
	case PPC:
		return uint64(c.ppc), nil
	}
	return 0, errors.Errorf("invalid register: %d", reg)
}

func (c *HC11) RegWrite(reg int, val uint64) error {
	switch reg {
	case PC:
		c.pc = uint16(val)
	case SP:
		c.sp = uint16(val)
	case A:
		c.setA(uint8(val))
	case B:
		c.setB(uint8(val))
	case D:
		c.d = uint16(val)
	case IX:
		c.ix = uint16(val)
	case IY:
		c.iy = uint16(val)
	case CCR:
		c.ccr = uint8(val)
	case PPC:
		c.ppc = uint16(val)
	default:
		return errors.Errorf("invalid register: %d", reg)
	}
	return nil
}

// FlagsString renders CCR as "SXHINZVC", with '.' for clear bits.
func (c *HC11) FlagsString() string {
	return models.FlagString(CCR_NAMES, uint64(c.ccr))
}

func (c *HC11) RegString(reg int) string {
	val, err := c.RegRead(reg)
	if err != nil {
		return ""
	}
	switch reg {
	case PC:
		return fmt.Sprintf("PC:%04X", val)
	case SP:
		return fmt.Sprintf("SP:%04X", val)
	case A:
		return fmt.Sprintf("A:%02X", val)
	case B:
		return fmt.Sprintf("B:%02X", val)
	case D:
		return fmt.Sprintf("D:%04X", val)
	case IX:
		return fmt.Sprintf("IX:%04X", val)
	case IY:
		return fmt.Sprintf("IY:%04X", val)
	case CCR:
		return "CCR:" + c.FlagsString()
	case PPC:
		return fmt.Sprintf("PPC:%04X", val)
	}
	return ""
}

// Context is everything needed to resume a core. It is packed with struc
// for save-states.
type Context struct {
	D, IX, IY   uint16
	SP, PC, PPC uint16
	CCR         uint8

	ADCTL     uint8
	ADChannel uint8
	TFLG1     uint8
	Latch     [256]byte

	IRQ0, IRQ1 uint8
	WaitState  uint8
	StopState  uint8

	RegPosition uint16
	RAMPosition uint16
	RAMSize     uint16 `struc:"uint16,sizeof=RAM"`
	RAM         []byte
}

func (c *HC11) ContextSave(reuse interface{}) (interface{}, error) {
	ctx, ok := reuse.(*Context)
	if reuse != nil && !ok {
		return nil, errors.Errorf("incorrect context type: %T", reuse)
	}
	if ctx == nil {
		ctx = &Context{}
	}
	*ctx = Context{
		D: c.d, IX: c.ix, IY: c.iy,
		SP: c.sp, PC: c.pc, PPC: c.ppc,
		CCR: c.ccr,

		ADCTL:     c.adctl,
		ADChannel: uint8(c.adChannel),
		TFLG1:     c.tflg1,
		Latch:     c.latch,

		IRQ0:      uint8(c.irqState[IRQ_LINE]),
		IRQ1:      uint8(c.irqState[XIRQ_LINE]),
		WaitState: uint8(c.waitState),
		StopState: uint8(c.stopState),

		RegPosition: uint16(c.regPosition),
		RAMPosition: uint16(c.ramPosition),
		RAM:         append(ctx.RAM[:0], c.internalRAM...),
	}
	return ctx, nil
}

func (c *HC11) ContextRestore(v interface{}) error {
	ctx, ok := v.(*Context)
	if !ok {
		return errors.Errorf("incorrect context type: %T", v)
	}
	if len(ctx.RAM) != len(c.internalRAM) {
		return errors.Errorf("internal ram size mismatch: %d != %d", len(ctx.RAM), len(c.internalRAM))
	}
	c.d, c.ix, c.iy = ctx.D, ctx.IX, ctx.IY
	c.sp, c.pc, c.ppc = ctx.SP, ctx.PC, ctx.PPC
	c.ccr = ctx.CCR
	c.adctl = ctx.ADCTL
	c.adChannel = int(ctx.ADChannel)
	c.tflg1 = ctx.TFLG1
	c.latch = ctx.Latch
	c.irqState[IRQ_LINE] = int(ctx.IRQ0)
	c.irqState[XIRQ_LINE] = int(ctx.IRQ1)
	c.waitState = int(ctx.WaitState)
	c.stopState = int(ctx.StopState)
	c.regPosition = int(ctx.RegPosition)
	c.ramPosition = int(ctx.RAMPosition)
	copy(c.internalRAM, ctx.RAM)
	return nil
}

// ContextSize is the packed size of a Context for this core.
func (c *HC11) ContextSize() int {
	ctx := &Context{RAM: make([]byte, len(c.internalRAM))}
	size, err := struc.Sizeof(ctx)
	if err != nil {
		return 0
	}
	return size
}

// PackContext serializes the current state.
func (c *HC11) PackContext() ([]byte, error) {
	ctx, err := c.ContextSave(nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := struc.Pack(&buf, ctx); err != nil {
		return nil, errors.Wrap(err, "failed to pack context")
	}
	return buf.Bytes(), nil
}

func (c *HC11) UnpackContext(p []byte) error {
	var ctx Context
	if err := struc.Unpack(bytes.NewReader(p), &ctx); err != nil {
		return errors.Wrap(err, "failed to unpack context")
	}
	return c.ContextRestore(&ctx)
}
