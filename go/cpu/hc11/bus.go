package hc11

import (
	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

type Target int

const (
	TARGET_REG Target = iota
	TARGET_RAM
	TARGET_EXT
)

func (t Target) String() string {
	switch t {
	case TARGET_REG:
		return "reg"
	case TARGET_RAM:
		return "ram"
	default:
		return "ext"
	}
}

// Resolve picks where addr goes right now. The register window is checked
// before the RAM window, so it wins where they overlap. The offset is
// relative to the chosen window, or addr itself for the external bus.
func (c *HC11) Resolve(addr uint16) (Target, int) {
	a := int(addr)
	if a >= c.regPosition && a < c.regPosition+c.cfg.regWindow() {
		return TARGET_REG, a - c.regPosition
	}
	if a >= c.ramPosition && a < c.ramPosition+len(c.internalRAM) {
		return TARGET_RAM, a - c.ramPosition
	}
	return TARGET_EXT, a
}

func (c *HC11) read8(addr uint16, access int) uint8 {
	var v uint8
	switch target, off := c.Resolve(addr); target {
	case TARGET_REG:
		v = c.regRead(off)
	case TARGET_RAM:
		v = c.internalRAM[off]
	default:
		v = c.mem.Read8(uint64(addr), cpu.PROT_READ)
	}
	c.OnMem(access, uint64(addr), 1, int64(v))
	return v
}

func (c *HC11) Read8(addr uint16) uint8 {
	return c.read8(addr, cpu.MEM_READ)
}

func (c *HC11) Write8(addr uint16, val uint8) {
	c.OnMem(cpu.MEM_WRITE, uint64(addr), 1, int64(val))
	switch target, off := c.Resolve(addr); target {
	case TARGET_REG:
		c.regWrite(off, val)
	case TARGET_RAM:
		c.internalRAM[off] = val
	default:
		c.mem.Write8(uint64(addr), val, cpu.PROT_WRITE)
	}
}

func (c *HC11) Read16(addr uint16) uint16 {
	hi := c.Read8(addr)
	return uint16(hi)<<8 | uint16(c.Read8(addr+1))
}

func (c *HC11) Write16(addr uint16, val uint16) {
	c.Write8(addr, uint8(val>>8))
	c.Write8(addr+1, uint8(val))
}

func (c *HC11) fetch8() uint8 {
	v := c.read8(c.pc, cpu.MEM_FETCH)
	c.pc++
	return v
}

func (c *HC11) fetch16() uint16 {
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(c.fetch8())
}

// stores at SP, then decrements
func (c *HC11) push8(v uint8) {
	c.Write8(c.sp, v)
	c.sp--
}

func (c *HC11) push16(v uint16) {
	c.push8(uint8(v))
	c.push8(uint8(v >> 8))
}

func (c *HC11) pull8() uint8 {
	c.sp++
	return c.Read8(c.sp)
}

func (c *HC11) pull16() uint16 {
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(c.pull8())
}

// peek8 reads without side effects: no hooks, no port reads, no faults.
// Register window addresses return the last written value.
func (c *HC11) peek8(addr uint16) (uint8, bool) {
	switch target, off := c.Resolve(addr); target {
	case TARGET_REG:
		return c.latch[off], true
	case TARGET_RAM:
		return c.internalRAM[off], true
	default:
		return c.mem.Peek8(uint64(addr))
	}
}

// MemRead is the debugger's view of the bus.
func (c *HC11) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	for i := range p {
		a := uint16(addr + uint64(i))
		v, ok := c.peek8(a)
		if !ok {
			return nil, &cpu.MemError{Addr: uint64(a), Size: 1, Enum: cpu.MEM_READ_UNMAPPED}
		}
		p[i] = v
	}
	return p, nil
}

// MemWrite patches memory for the debugger and loaders. External writes
// bypass page protections so ROM can be patched.
func (c *HC11) MemWrite(addr uint64, p []byte) error {
	for i, v := range p {
		a := uint16(addr + uint64(i))
		switch target, off := c.Resolve(a); target {
		case TARGET_REG:
			c.regWrite(off, v)
		case TARGET_RAM:
			c.internalRAM[off] = v
		default:
			if err := c.mem.MemWrite(uint64(a), []byte{v}); err != nil {
				return err
			}
		}
	}
	return nil
}
