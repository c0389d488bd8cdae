package hc11

func bit(cond bool, flag uint8) uint8 {
	if cond {
		return flag
	}
	return 0
}

func (c *HC11) carry() uint8 {
	return c.ccr & CC_C
}

func (c *HC11) acc(n int) uint8 {
	if n == 0 {
		return c.a()
	}
	return c.b()
}

func (c *HC11) setAcc(n int, v uint8) {
	if n == 0 {
		c.setA(v)
	} else {
		c.setB(v)
	}
}

// N, Z from v, V cleared
func (c *HC11) logic8(v uint8) {
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V) | bit(v&0x80 != 0, CC_N) | bit(v == 0, CC_Z)
}

func (c *HC11) logic16(v uint16) {
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V) | bit(v&0x8000 != 0, CC_N) | bit(v == 0, CC_Z)
}

// a + b + carry, updating H N Z V C
func (c *HC11) add8(a, b, carry uint8) uint8 {
	r := a + b + carry
	cy := a&b | b&^r | ^r&a
	ov := a&b&^r | ^a&^b&r
	c.ccr = c.ccr&^(CC_H|CC_N|CC_Z|CC_V|CC_C) |
		bit(cy&0x08 != 0, CC_H) |
		bit(r&0x80 != 0, CC_N) |
		bit(r == 0, CC_Z) |
		bit(ov&0x80 != 0, CC_V) |
		bit(cy&0x80 != 0, CC_C)
	return r
}

// a - b - borrow, updating N Z V C
func (c *HC11) sub8(a, b, borrow uint8) uint8 {
	r := a - b - borrow
	cy := ^a&b | b&r | r&^a
	ov := a&^b&^r | ^a&b&r
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) |
		bit(r&0x80 != 0, CC_N) |
		bit(r == 0, CC_Z) |
		bit(ov&0x80 != 0, CC_V) |
		bit(cy&0x80 != 0, CC_C)
	return r
}

func (c *HC11) add16(a, b uint16) uint16 {
	r := a + b
	cy := a&b | b&^r | ^r&a
	ov := a&b&^r | ^a&^b&r
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) |
		bit(r&0x8000 != 0, CC_N) |
		bit(r == 0, CC_Z) |
		bit(ov&0x8000 != 0, CC_V) |
		bit(cy&0x8000 != 0, CC_C)
	return r
}

func (c *HC11) sub16(a, b uint16) uint16 {
	r := a - b
	cy := ^a&b | b&r | r&^a
	ov := a&^b&^r | ^a&b&r
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) |
		bit(r&0x8000 != 0, CC_N) |
		bit(r == 0, CC_Z) |
		bit(ov&0x8000 != 0, CC_V) |
		bit(cy&0x8000 != 0, CC_C)
	return r
}

// shifts and rotates set V = N ^ C
func (c *HC11) shiftFlags(r uint8, carry bool) {
	n := r&0x80 != 0
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) |
		bit(n, CC_N) |
		bit(r == 0, CC_Z) |
		bit(n != carry, CC_V) |
		bit(carry, CC_C)
}

// read-modify-write bodies, shared by the accumulator and memory forms
type rmwFn func(c *HC11, m uint8) uint8

func rmwNeg(c *HC11, m uint8) uint8 {
	r := -m
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) |
		bit(r&0x80 != 0, CC_N) |
		bit(r == 0, CC_Z) |
		bit(r == 0x80, CC_V) |
		bit(r != 0, CC_C)
	return r
}

func rmwCom(c *HC11, m uint8) uint8 {
	r := ^m
	c.logic8(r)
	c.ccr |= CC_C
	return r
}

func rmwLsr(c *HC11, m uint8) uint8 {
	r := m >> 1
	c.shiftFlags(r, m&1 != 0)
	return r
}

func rmwRor(c *HC11, m uint8) uint8 {
	r := m>>1 | c.carry()<<7
	c.shiftFlags(r, m&1 != 0)
	return r
}

func rmwAsr(c *HC11, m uint8) uint8 {
	r := m>>1 | m&0x80
	c.shiftFlags(r, m&1 != 0)
	return r
}

func rmwAsl(c *HC11, m uint8) uint8 {
	r := m << 1
	c.shiftFlags(r, m&0x80 != 0)
	return r
}

func rmwRol(c *HC11, m uint8) uint8 {
	r := m<<1 | c.carry()
	c.shiftFlags(r, m&0x80 != 0)
	return r
}

func rmwDec(c *HC11, m uint8) uint8 {
	r := m - 1
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V) | bit(r&0x80 != 0, CC_N) | bit(r == 0, CC_Z) | bit(m == 0x80, CC_V)
	return r
}

func rmwInc(c *HC11, m uint8) uint8 {
	r := m + 1
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_V) | bit(r&0x80 != 0, CC_N) | bit(r == 0, CC_Z) | bit(m == 0x7f, CC_V)
	return r
}

func rmwTst(c *HC11, m uint8) uint8 {
	c.logic8(m)
	c.ccr &^= CC_C
	return m
}

func rmwClr(c *HC11, m uint8) uint8 {
	c.ccr = c.ccr&^(CC_N|CC_V|CC_C) | CC_Z
	return 0
}

// accumulator ALU bodies: return the new accumulator value
type aluFn func(c *HC11, acc, m uint8) uint8

func aluSub(c *HC11, acc, m uint8) uint8 { return c.sub8(acc, m, 0) }
func aluSbc(c *HC11, acc, m uint8) uint8 { return c.sub8(acc, m, c.carry()) }
func aluAdd(c *HC11, acc, m uint8) uint8 { return c.add8(acc, m, 0) }
func aluAdc(c *HC11, acc, m uint8) uint8 { return c.add8(acc, m, c.carry()) }
func aluCmp(c *HC11, acc, m uint8) uint8 { c.sub8(acc, m, 0); return acc }
func aluBit(c *HC11, acc, m uint8) uint8 { c.logic8(acc & m); return acc }
func aluLda(c *HC11, acc, m uint8) uint8 { c.logic8(m); return m }

func aluAnd(c *HC11, acc, m uint8) uint8 {
	r := acc & m
	c.logic8(r)
	return r
}

func aluEor(c *HC11, acc, m uint8) uint8 {
	r := acc ^ m
	c.logic8(r)
	return r
}

func aluOra(c *HC11, acc, m uint8) uint8 {
	r := acc | m
	c.logic8(r)
	return r
}

func (c *HC11) daa() {
	a := c.a()
	lo, hi := a&0x0f, a>>4
	carry := c.ccr&CC_C != 0
	var adj uint8
	if c.ccr&CC_H != 0 || lo > 9 {
		adj |= 0x06
	}
	if carry || hi > 9 || hi > 8 && lo > 9 {
		adj |= 0x60
		carry = true
	}
	r := a + adj
	c.setA(r)
	c.ccr = c.ccr&^(CC_N|CC_Z|CC_C) | bit(r&0x80 != 0, CC_N) | bit(r == 0, CC_Z) | bit(carry, CC_C)
}

func (c *HC11) mul() {
	c.d = uint16(c.a()) * uint16(c.b())
	c.ccr = c.ccr&^CC_C | bit(c.d&0x80 != 0, CC_C)
}

// D / IX: quotient to IX, remainder to D
func (c *HC11) idiv() {
	num, den := c.d, c.ix
	c.ccr &^= CC_Z | CC_V | CC_C
	if den == 0 {
		c.ix = 0xffff
		c.ccr |= CC_C
		return
	}
	c.ix, c.d = num/den, num%den
	c.ccr |= bit(c.ix == 0, CC_Z)
}

// fractional D / IX, for D < IX
func (c *HC11) fdiv() {
	num, den := c.d, c.ix
	c.ccr &^= CC_Z | CC_V | CC_C
	if den == 0 {
		c.ix = 0xffff
		c.ccr |= CC_C
		return
	}
	if den <= num {
		c.ix = 0xffff
		c.ccr |= CC_V
		return
	}
	n := uint32(num) << 16
	c.ix, c.d = uint16(n/uint32(den)), uint16(n%uint32(den))
	c.ccr |= bit(c.ix == 0, CC_Z)
}
