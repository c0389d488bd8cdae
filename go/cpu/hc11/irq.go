package hc11

import (
	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// stacks PC, IY, IX, A, B, CCR
func (c *HC11) pushFrame() {
	c.push16(c.pc)
	c.push16(c.iy)
	c.push16(c.ix)
	c.push8(c.a())
	c.push8(c.b())
	c.push8(c.ccr)
}

func (c *HC11) pullFrame() {
	ccr := c.pull8()
	// X can be cleared by RTI but never set
	c.ccr = ccr&^CC_X | ccr&c.ccr&CC_X
	c.setB(c.pull8())
	c.setA(c.pull8())
	c.ix = c.pull16()
	c.iy = c.pull16()
	c.pc = c.pull16()
}

// CheckIRQLines takes at most one pending interrupt. XIRQ wins over IRQ.
// Calling it again right away does nothing, as the mask bits are now set.
func (c *HC11) CheckIRQLines() {
	var line int
	var vector uint16
	switch {
	case c.irqState[XIRQ_LINE] != cpu.CLEAR_LINE && c.ccr&CC_X == 0:
		line, vector = XIRQ_LINE, VEC_XIRQ
	case c.irqState[IRQ_LINE] != cpu.CLEAR_LINE && c.ccr&CC_I == 0:
		line, vector = IRQ_LINE, VEC_IRQ
	default:
		return
	}
	// STOP holds PC on its own opcode, resume after it
	if c.stopState == 1 {
		c.pc++
	}
	// WAI already stacked the frame
	if c.waitState != 1 {
		c.pushFrame()
	}
	c.pc = c.Read16(vector)
	c.ccr |= CC_I
	if line == XIRQ_LINE {
		c.ccr |= CC_X
	}
	if c.waitState == 1 {
		c.waitState = 2
	}
	if c.stopState == 1 {
		c.stopState = 2
	}
	if c.irqCallback != nil {
		c.irqCallback(c, line)
	}
	c.OnIntr(uint32(line))
}

// SetIRQLine latches a line level. Asserting it checks for an interrupt
// right away instead of at the next instruction boundary.
func (c *HC11) SetIRQLine(line, state int) {
	if line < 0 || line >= len(c.irqState) {
		c.log.WithField("line", line).Warn("irq line out of range")
		return
	}
	c.irqState[line] = state
	if state == cpu.CLEAR_LINE {
		return
	}
	c.CheckIRQLines()
}

func (c *HC11) IRQLine(line int) int {
	if line < 0 || line >= len(c.irqState) {
		return cpu.CLEAR_LINE
	}
	return c.irqState[line]
}
