package hc11

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type opFn func(c *HC11, ea uint16)

type op struct {
	name   string
	mode   int
	cycles int
	fn     opFn
}

// optables are filled once by init and shared read-only by every core.
var optables [4][256]op

var invalidOp = op{"invalid", MODE_INH, 1, opInvalid}

func opInvalid(c *HC11, _ uint16) {
	c.log.WithFields(logrus.Fields{
		"pc":     fmt.Sprintf("%04x", c.ppc),
		"opcode": fmt.Sprintf("%04x", c.ir),
	}).Warn("invalid opcode")
}

// dispatch charges the cycle cost, fetches the operand address and runs
// the handler. PC is past the opcode (and prebyte) on entry.
func (c *HC11) dispatch(page int, opcode uint8) {
	o := &optables[page][opcode]
	c.ir = uint16(prebytes[page])<<8 | uint16(opcode)
	c.icount -= o.cycles
	var ea uint16
	switch o.mode {
	case MODE_IMM8:
		ea = c.pc
		c.pc++
	case MODE_IMM16:
		ea = c.pc
		c.pc += 2
	case MODE_DIR, MODE_BIT_DIR, MODE_BRA_DIR:
		ea = uint16(c.fetch8())
	case MODE_EXT:
		ea = c.fetch16()
	case MODE_INDX, MODE_BIT_INDX, MODE_BRA_INDX:
		ea = c.ix + uint16(c.fetch8())
	case MODE_INDY, MODE_BIT_INDY, MODE_BRA_INDY:
		ea = c.iy + uint16(c.fetch8())
	case MODE_REL:
		off := int8(c.fetch8())
		ea = c.pc + uint16(off)
	}
	o.fn(c, ea)
}

type form struct {
	page   int
	code   uint8
	mode   int
	cycles int
}

func f(page int, code uint8, mode, cycles int) form {
	return form{page, code, mode, cycles}
}

func family(name string, fn opFn, forms ...form) {
	for _, v := range forms {
		if optables[v.page][v.code].name != "invalid" {
			panic(fmt.Sprintf("opcode %02x:%02x assigned twice", prebytes[v.page], v.code))
		}
		optables[v.page][v.code] = op{name, v.mode, v.cycles, fn}
	}
}

func inherent(code uint8, name string, cycles int, fn func(c *HC11)) {
	family(name, func(c *HC11, _ uint16) { fn(c) }, f(PAGE_0, code, MODE_INH, cycles))
}

func inherent18(code uint8, name string, cycles int, fn func(c *HC11)) {
	family(name, func(c *HC11, _ uint16) { fn(c) }, f(PAGE_18, code, MODE_INH, cycles))
}

func init() {
	for p := range optables {
		for i := range optables[p] {
			optables[p][i] = invalidOp
		}
	}
	prebyte := func(code uint8, page int) {
		optables[PAGE_0][code] = op{fmt.Sprintf("page%x", code), MODE_INH, 0, func(c *HC11, _ uint16) {
			c.dispatch(page, c.fetch8())
		}}
	}
	prebyte(0x18, PAGE_18)
	prebyte(0x1a, PAGE_1A)
	prebyte(0xcd, PAGE_CD)

	initALU()
	initRMW()
	initBranches()
	initWide()
	initInherent()
	initBitOps()
}

var aluOps = []struct {
	low  uint8
	name string
	fn   aluFn
}{
	{0x0, "sub", aluSub},
	{0x1, "cmp", aluCmp},
	{0x2, "sbc", aluSbc},
	{0x4, "and", aluAnd},
	{0x5, "bit", aluBit},
	{0x6, "lda", aluLda},
	{0x8, "eor", aluEor},
	{0x9, "adc", aluAdc},
	{0xa, "ora", aluOra},
	{0xb, "add", aluAdd},
}

// 8-bit accumulator ops: A in columns 8-B, B in columns C-F
func initALU() {
	for n, r := range []string{"a", "b"} {
		n := n
		base := uint8(0x80 + 0x40*n)
		for _, v := range aluOps {
			alu := v.fn
			family(v.name+r, func(c *HC11, ea uint16) {
				c.setAcc(n, alu(c, c.acc(n), c.Read8(ea)))
			},
				f(PAGE_0, base|v.low, MODE_IMM8, 2),
				f(PAGE_0, (base+0x10)|v.low, MODE_DIR, 3),
				f(PAGE_0, (base+0x20)|v.low, MODE_INDX, 4),
				f(PAGE_0, (base+0x30)|v.low, MODE_EXT, 4),
				f(PAGE_18, (base+0x20)|v.low, MODE_INDY, 5),
			)
		}
		family("sta"+r, func(c *HC11, ea uint16) {
			v := c.acc(n)
			c.Write8(ea, v)
			c.logic8(v)
		},
			f(PAGE_0, (base+0x10)|0x7, MODE_DIR, 3),
			f(PAGE_0, (base+0x20)|0x7, MODE_INDX, 4),
			f(PAGE_0, (base+0x30)|0x7, MODE_EXT, 4),
			f(PAGE_18, (base+0x20)|0x7, MODE_INDY, 5),
		)
	}
}

var rmwOps = []struct {
	low   uint8
	name  string
	fn    rmwFn
	store bool
}{
	{0x0, "neg", rmwNeg, true},
	{0x3, "com", rmwCom, true},
	{0x4, "lsr", rmwLsr, true},
	{0x6, "ror", rmwRor, true},
	{0x7, "asr", rmwAsr, true},
	{0x8, "asl", rmwAsl, true},
	{0x9, "rol", rmwRol, true},
	{0xa, "dec", rmwDec, true},
	{0xc, "inc", rmwInc, true},
	{0xd, "tst", rmwTst, false},
	{0xf, "clr", rmwClr, true},
}

func initRMW() {
	for _, v := range rmwOps {
		fn, store := v.fn, v.store
		family(v.name+"a", func(c *HC11, _ uint16) { c.setA(fn(c, c.a())) }, f(PAGE_0, 0x40|v.low, MODE_INH, 2))
		family(v.name+"b", func(c *HC11, _ uint16) { c.setB(fn(c, c.b())) }, f(PAGE_0, 0x50|v.low, MODE_INH, 2))
		family(v.name, func(c *HC11, ea uint16) {
			r := fn(c, c.Read8(ea))
			if store {
				c.Write8(ea, r)
			}
		},
			f(PAGE_0, 0x60|v.low, MODE_INDX, 6),
			f(PAGE_0, 0x70|v.low, MODE_EXT, 6),
			f(PAGE_18, 0x60|v.low, MODE_INDY, 7),
		)
	}
	family("jmp", func(c *HC11, ea uint16) { c.pc = ea },
		f(PAGE_0, 0x6e, MODE_INDX, 3),
		f(PAGE_0, 0x7e, MODE_EXT, 3),
		f(PAGE_18, 0x6e, MODE_INDY, 4),
	)
}

var branchOps = []struct {
	name string
	cond func(ccr uint8) bool
}{
	{"bra", func(ccr uint8) bool { return true }},
	{"brn", func(ccr uint8) bool { return false }},
	{"bhi", func(ccr uint8) bool { return ccr&(CC_C|CC_Z) == 0 }},
	{"bls", func(ccr uint8) bool { return ccr&(CC_C|CC_Z) != 0 }},
	{"bcc", func(ccr uint8) bool { return ccr&CC_C == 0 }},
	{"bcs", func(ccr uint8) bool { return ccr&CC_C != 0 }},
	{"bne", func(ccr uint8) bool { return ccr&CC_Z == 0 }},
	{"beq", func(ccr uint8) bool { return ccr&CC_Z != 0 }},
	{"bvc", func(ccr uint8) bool { return ccr&CC_V == 0 }},
	{"bvs", func(ccr uint8) bool { return ccr&CC_V != 0 }},
	{"bpl", func(ccr uint8) bool { return ccr&CC_N == 0 }},
	{"bmi", func(ccr uint8) bool { return ccr&CC_N != 0 }},
	{"bge", func(ccr uint8) bool { return nxorv(ccr) == 0 }},
	{"blt", func(ccr uint8) bool { return nxorv(ccr) != 0 }},
	{"bgt", func(ccr uint8) bool { return ccr&CC_Z == 0 && nxorv(ccr) == 0 }},
	{"ble", func(ccr uint8) bool { return ccr&CC_Z != 0 || nxorv(ccr) != 0 }},
}

func nxorv(ccr uint8) uint8 {
	return (ccr>>3 ^ ccr>>1) & 1
}

func initBranches() {
	for i, v := range branchOps {
		cond := v.cond
		family(v.name, func(c *HC11, ea uint16) {
			if cond(c.ccr) {
				c.pc = ea
			}
		}, f(PAGE_0, 0x20+uint8(i), MODE_REL, 3))
	}
	family("bsr", func(c *HC11, ea uint16) {
		c.push16(c.pc)
		c.pc = ea
	}, f(PAGE_0, 0x8d, MODE_REL, 6))
	family("jsr", func(c *HC11, ea uint16) {
		c.push16(c.pc)
		c.pc = ea
	},
		f(PAGE_0, 0x9d, MODE_DIR, 5),
		f(PAGE_0, 0xad, MODE_INDX, 6),
		f(PAGE_0, 0xbd, MODE_EXT, 6),
		f(PAGE_18, 0xad, MODE_INDY, 7),
	)
}

// 16-bit register accessors for the wide load/store/compare families
type wideReg struct {
	name string
	get  func(c *HC11) uint16
	set  func(c *HC11, v uint16)
}

var (
	regD  = wideReg{"d", func(c *HC11) uint16 { return c.d }, func(c *HC11, v uint16) { c.d = v }}
	regX  = wideReg{"x", func(c *HC11) uint16 { return c.ix }, func(c *HC11, v uint16) { c.ix = v }}
	regY  = wideReg{"y", func(c *HC11) uint16 { return c.iy }, func(c *HC11, v uint16) { c.iy = v }}
	regSP = wideReg{"s", func(c *HC11) uint16 { return c.sp }, func(c *HC11, v uint16) { c.sp = v }}
)

func load16(r wideReg) opFn {
	return func(c *HC11, ea uint16) {
		v := c.Read16(ea)
		r.set(c, v)
		c.logic16(v)
	}
}

func store16(r wideReg) opFn {
	return func(c *HC11, ea uint16) {
		v := r.get(c)
		c.Write16(ea, v)
		c.logic16(v)
	}
}

func compare16(r wideReg) opFn {
	return func(c *HC11, ea uint16) {
		c.sub16(r.get(c), c.Read16(ea))
	}
}

func initWide() {
	family("subd", func(c *HC11, ea uint16) { c.d = c.sub16(c.d, c.Read16(ea)) },
		f(PAGE_0, 0x83, MODE_IMM16, 4),
		f(PAGE_0, 0x93, MODE_DIR, 5),
		f(PAGE_0, 0xa3, MODE_INDX, 6),
		f(PAGE_0, 0xb3, MODE_EXT, 6),
		f(PAGE_18, 0xa3, MODE_INDY, 7),
	)
	family("addd", func(c *HC11, ea uint16) { c.d = c.add16(c.d, c.Read16(ea)) },
		f(PAGE_0, 0xc3, MODE_IMM16, 4),
		f(PAGE_0, 0xd3, MODE_DIR, 5),
		f(PAGE_0, 0xe3, MODE_INDX, 6),
		f(PAGE_0, 0xf3, MODE_EXT, 6),
		f(PAGE_18, 0xe3, MODE_INDY, 7),
	)
	family("cpd", compare16(regD),
		f(PAGE_1A, 0x83, MODE_IMM16, 5),
		f(PAGE_1A, 0x93, MODE_DIR, 6),
		f(PAGE_1A, 0xa3, MODE_INDX, 7),
		f(PAGE_1A, 0xb3, MODE_EXT, 7),
		f(PAGE_CD, 0xa3, MODE_INDY, 7),
	)
	family("cpx", compare16(regX),
		f(PAGE_0, 0x8c, MODE_IMM16, 4),
		f(PAGE_0, 0x9c, MODE_DIR, 5),
		f(PAGE_0, 0xac, MODE_INDX, 6),
		f(PAGE_0, 0xbc, MODE_EXT, 6),
		f(PAGE_CD, 0xac, MODE_INDY, 7),
	)
	family("cpy", compare16(regY),
		f(PAGE_18, 0x8c, MODE_IMM16, 5),
		f(PAGE_18, 0x9c, MODE_DIR, 6),
		f(PAGE_1A, 0xac, MODE_INDX, 7),
		f(PAGE_18, 0xac, MODE_INDY, 7),
		f(PAGE_18, 0xbc, MODE_EXT, 7),
	)
	family("lds", load16(regSP),
		f(PAGE_0, 0x8e, MODE_IMM16, 3),
		f(PAGE_0, 0x9e, MODE_DIR, 4),
		f(PAGE_0, 0xae, MODE_INDX, 5),
		f(PAGE_0, 0xbe, MODE_EXT, 5),
		f(PAGE_18, 0xae, MODE_INDY, 6),
	)
	family("sts", store16(regSP),
		f(PAGE_0, 0x9f, MODE_DIR, 4),
		f(PAGE_0, 0xaf, MODE_INDX, 5),
		f(PAGE_0, 0xbf, MODE_EXT, 5),
		f(PAGE_18, 0xaf, MODE_INDY, 6),
	)
	family("ldd", load16(regD),
		f(PAGE_0, 0xcc, MODE_IMM16, 3),
		f(PAGE_0, 0xdc, MODE_DIR, 4),
		f(PAGE_0, 0xec, MODE_INDX, 5),
		f(PAGE_0, 0xfc, MODE_EXT, 5),
		f(PAGE_18, 0xec, MODE_INDY, 6),
	)
	family("std", store16(regD),
		f(PAGE_0, 0xdd, MODE_DIR, 4),
		f(PAGE_0, 0xed, MODE_INDX, 5),
		f(PAGE_0, 0xfd, MODE_EXT, 5),
		f(PAGE_18, 0xed, MODE_INDY, 6),
	)
	family("ldx", load16(regX),
		f(PAGE_0, 0xce, MODE_IMM16, 3),
		f(PAGE_0, 0xde, MODE_DIR, 4),
		f(PAGE_0, 0xee, MODE_INDX, 5),
		f(PAGE_0, 0xfe, MODE_EXT, 5),
		f(PAGE_CD, 0xee, MODE_INDY, 6),
	)
	family("stx", store16(regX),
		f(PAGE_0, 0xdf, MODE_DIR, 4),
		f(PAGE_0, 0xef, MODE_INDX, 5),
		f(PAGE_0, 0xff, MODE_EXT, 5),
		f(PAGE_CD, 0xef, MODE_INDY, 6),
	)
	family("ldy", load16(regY),
		f(PAGE_18, 0xce, MODE_IMM16, 4),
		f(PAGE_18, 0xde, MODE_DIR, 5),
		f(PAGE_1A, 0xee, MODE_INDX, 6),
		f(PAGE_18, 0xee, MODE_INDY, 6),
		f(PAGE_18, 0xfe, MODE_EXT, 6),
	)
	family("sty", store16(regY),
		f(PAGE_18, 0xdf, MODE_DIR, 5),
		f(PAGE_1A, 0xef, MODE_INDX, 6),
		f(PAGE_18, 0xef, MODE_INDY, 6),
		f(PAGE_18, 0xff, MODE_EXT, 6),
	)
}

func initInherent() {
	inherent(0x01, "nop", 2, func(c *HC11) {})
	inherent(0x02, "idiv", 41, (*HC11).idiv)
	inherent(0x03, "fdiv", 41, (*HC11).fdiv)
	inherent(0x04, "lsrd", 3, func(c *HC11) {
		carry := c.d&1 != 0
		c.d >>= 1
		c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) | bit(c.d == 0, CC_Z) | bit(carry, CC_V|CC_C)
	})
	inherent(0x05, "asld", 3, func(c *HC11) {
		carry := c.d&0x8000 != 0
		c.d <<= 1
		n := c.d&0x8000 != 0
		c.ccr = c.ccr&^(CC_N|CC_Z|CC_V|CC_C) | bit(n, CC_N) | bit(c.d == 0, CC_Z) | bit(n != carry, CC_V) | bit(carry, CC_C)
	})
	inherent(0x06, "tap", 2, func(c *HC11) {
		a := c.a()
		// X can be cleared but not set from software
		c.ccr = a&^CC_X | a&c.ccr&CC_X
	})
	inherent(0x07, "tpa", 2, func(c *HC11) { c.setA(c.ccr) })
	inherent(0x08, "inx", 3, func(c *HC11) {
		c.ix++
		c.ccr = c.ccr&^CC_Z | bit(c.ix == 0, CC_Z)
	})
	inherent(0x09, "dex", 3, func(c *HC11) {
		c.ix--
		c.ccr = c.ccr&^CC_Z | bit(c.ix == 0, CC_Z)
	})
	inherent(0x0a, "clv", 2, func(c *HC11) { c.ccr &^= CC_V })
	inherent(0x0b, "sev", 2, func(c *HC11) { c.ccr |= CC_V })
	inherent(0x0c, "clc", 2, func(c *HC11) { c.ccr &^= CC_C })
	inherent(0x0d, "sec", 2, func(c *HC11) { c.ccr |= CC_C })
	inherent(0x0e, "cli", 2, func(c *HC11) { c.ccr &^= CC_I })
	inherent(0x0f, "sei", 2, func(c *HC11) { c.ccr |= CC_I })
	inherent(0x10, "sba", 2, func(c *HC11) { c.setA(c.sub8(c.a(), c.b(), 0)) })
	inherent(0x11, "cba", 2, func(c *HC11) { c.sub8(c.a(), c.b(), 0) })
	inherent(0x16, "tab", 2, func(c *HC11) {
		c.setB(c.a())
		c.logic8(c.b())
	})
	inherent(0x17, "tba", 2, func(c *HC11) {
		c.setA(c.b())
		c.logic8(c.a())
	})
	inherent(0x19, "daa", 2, (*HC11).daa)
	inherent(0x1b, "aba", 2, func(c *HC11) { c.setA(c.add8(c.a(), c.b(), 0)) })

	inherent(0x30, "tsx", 3, func(c *HC11) { c.ix = c.sp + 1 })
	inherent(0x31, "ins", 3, func(c *HC11) { c.sp++ })
	inherent(0x32, "pula", 4, func(c *HC11) { c.setA(c.pull8()) })
	inherent(0x33, "pulb", 4, func(c *HC11) { c.setB(c.pull8()) })
	inherent(0x34, "des", 3, func(c *HC11) { c.sp-- })
	inherent(0x35, "txs", 3, func(c *HC11) { c.sp = c.ix - 1 })
	inherent(0x36, "psha", 3, func(c *HC11) { c.push8(c.a()) })
	inherent(0x37, "pshb", 3, func(c *HC11) { c.push8(c.b()) })
	inherent(0x38, "pulx", 5, func(c *HC11) { c.ix = c.pull16() })
	inherent(0x39, "rts", 5, func(c *HC11) { c.pc = c.pull16() })
	inherent(0x3a, "abx", 3, func(c *HC11) { c.ix += uint16(c.b()) })
	inherent(0x3b, "rti", 12, func(c *HC11) {
		c.pullFrame()
		c.waitState, c.stopState = 0, 0
	})
	inherent(0x3c, "pshx", 4, func(c *HC11) { c.push16(c.ix) })
	inherent(0x3d, "mul", 10, (*HC11).mul)
	inherent(0x3e, "wai", 14, opWai)
	inherent(0x3f, "swi", 14, func(c *HC11) {
		c.pushFrame()
		c.ccr |= CC_I
		c.pc = c.Read16(VEC_SWI)
		c.OnIntr(INTR_SWI)
	})
	inherent(0x8f, "xgdx", 3, func(c *HC11) { c.d, c.ix = c.ix, c.d })
	inherent(0xcf, "stop", 2, opStop)

	inherent18(0x08, "iny", 4, func(c *HC11) {
		c.iy++
		c.ccr = c.ccr&^CC_Z | bit(c.iy == 0, CC_Z)
	})
	inherent18(0x09, "dey", 4, func(c *HC11) {
		c.iy--
		c.ccr = c.ccr&^CC_Z | bit(c.iy == 0, CC_Z)
	})
	inherent18(0x30, "tsy", 4, func(c *HC11) { c.iy = c.sp + 1 })
	inherent18(0x35, "tys", 4, func(c *HC11) { c.sp = c.iy - 1 })
	inherent18(0x38, "puly", 6, func(c *HC11) { c.iy = c.pull16() })
	inherent18(0x3a, "aby", 4, func(c *HC11) { c.iy += uint16(c.b()) })
	inherent18(0x3c, "pshy", 5, func(c *HC11) { c.push16(c.iy) })
	inherent18(0x8f, "xgdy", 4, func(c *HC11) { c.d, c.iy = c.iy, c.d })
}

// WAI stacks the frame once, then parks on its own opcode until an
// interrupt is taken, giving up the rest of the budget each time round.
func opWai(c *HC11) {
	if c.waitState == 2 {
		c.waitState = 0
	}
	if c.waitState == 0 {
		c.waitState = 1
		c.pushFrame()
	}
	c.pc = c.ppc
	if c.icount > 0 {
		c.icount = 0
	}
}

// STOP is a NOP while S is set. Otherwise it parks like WAI without
// stacking; the interrupt pushes the address after it.
func opStop(c *HC11) {
	if c.ccr&CC_S != 0 {
		return
	}
	if c.stopState == 2 {
		c.stopState = 0
	}
	if c.stopState == 0 {
		c.stopState = 1
	}
	c.pc = c.ppc
	if c.icount > 0 {
		c.icount = 0
	}
}

func initBitOps() {
	bset := func(c *HC11, ea uint16) {
		mask := c.fetch8()
		v := c.Read8(ea) | mask
		c.Write8(ea, v)
		c.logic8(v)
	}
	bclr := func(c *HC11, ea uint16) {
		mask := c.fetch8()
		v := c.Read8(ea) &^ mask
		c.Write8(ea, v)
		c.logic8(v)
	}
	brset := func(c *HC11, ea uint16) {
		m := c.Read8(ea)
		mask := c.fetch8()
		off := int8(c.fetch8())
		if ^m&mask == 0 {
			c.pc += uint16(off)
		}
	}
	brclr := func(c *HC11, ea uint16) {
		m := c.Read8(ea)
		mask := c.fetch8()
		off := int8(c.fetch8())
		if m&mask == 0 {
			c.pc += uint16(off)
		}
	}
	family("brset", brset,
		f(PAGE_0, 0x12, MODE_BRA_DIR, 6),
		f(PAGE_0, 0x1e, MODE_BRA_INDX, 7),
		f(PAGE_18, 0x1e, MODE_BRA_INDY, 8),
	)
	family("brclr", brclr,
		f(PAGE_0, 0x13, MODE_BRA_DIR, 6),
		f(PAGE_0, 0x1f, MODE_BRA_INDX, 7),
		f(PAGE_18, 0x1f, MODE_BRA_INDY, 8),
	)
	family("bset", bset,
		f(PAGE_0, 0x14, MODE_BIT_DIR, 6),
		f(PAGE_0, 0x1c, MODE_BIT_INDX, 7),
		f(PAGE_18, 0x1c, MODE_BIT_INDY, 8),
	)
	family("bclr", bclr,
		f(PAGE_0, 0x15, MODE_BIT_DIR, 6),
		f(PAGE_0, 0x1d, MODE_BIT_INDX, 7),
		f(PAGE_18, 0x1d, MODE_BIT_INDY, 8),
	)
}
