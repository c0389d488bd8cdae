package hc11

// Reset puts the windows back where they start out, masks interrupts and
// loads PC from the reset vector. Internal RAM survives.
func (c *HC11) Reset() error {
	c.defaultWindows()
	c.ccr = CC_X | CC_I | CC_S
	c.waitState, c.stopState = 0, 0
	c.adctl, c.adChannel, c.tflg1 = 0, 0, 0
	c.pc = c.Read16(VEC_RESET)
	c.ppc = c.pc
	return nil
}

// Execute runs whole instructions until the budget is spent or Stop is
// called, and returns the number of cycles used. This may exceed cycles by
// the tail of the last instruction.
func (c *HC11) Execute(cycles int) int {
	c.icount = cycles
	c.stopRequest = false
	for c.icount > 0 && !c.stopRequest {
		c.step()
	}
	return cycles - c.icount
}

// Step runs exactly one instruction and returns its cost.
func (c *HC11) Step() int {
	c.stopRequest = false
	c.icount = 1
	c.step()
	return 1 - c.icount
}

func (c *HC11) step() {
	c.CheckIRQLines()
	c.ppc = c.pc
	if !c.Hooks.Empty() {
		c.OnCode(uint64(c.pc), uint32(c.insLen(c.pc)))
		// hooks may stop us before fetch
		if c.stopRequest {
			return
		}
	}
	c.dispatch(PAGE_0, c.fetch8())
}

// Stop ends Execute after the current instruction.
func (c *HC11) Stop() error {
	c.stopRequest = true
	return nil
}

// Burn eats cycles without executing anything.
func (c *HC11) Burn(cycles int) {
	c.icount -= cycles
}

// Cycles left in the current Execute call.
func (c *HC11) ICount() int {
	return c.icount
}

// insLen sizes the instruction at addr without side effects.
func (c *HC11) insLen(addr uint16) int {
	page, size := PAGE_0, 1
	op, _ := c.peek8(addr)
	switch op {
	case 0x18:
		page = PAGE_18
	case 0x1a:
		page = PAGE_1A
	case 0xcd:
		page = PAGE_CD
	}
	if page != PAGE_0 {
		op, _ = c.peek8(addr + 1)
		size++
	}
	return size + modeSize[optables[page][op].mode]
}
