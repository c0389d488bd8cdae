package hc11

import (
	"testing"

	"github.com/sirupsen/logrus"
)

// every entry of every page costs at least one cycle, and the cost the
// core charges is the one in the table
func TestDispatchAll(t *testing.T) {
	c, hook := newTestCPU(t, nil)
	for page := range optables {
		for opcode := 0; opcode < 256; opcode++ {
			o := optables[page][opcode]
			if page == PAGE_0 && (opcode == 0x18 || opcode == 0x1a || opcode == 0xcd) {
				continue
			}
			c.Reset()
			c.sp = 0x04ff
			c.ix, c.iy = 0x2000, 0x2100
			code := []byte{uint8(opcode), 0x10, 0x20, 0x30, 0x40}
			if page != PAGE_0 {
				code = append([]byte{prebytes[page]}, code...)
			}
			c.mem.MemWrite(0x2000, code)
			c.pc = 0x2000
			hook.Reset()

			cycles := c.Step()
			if cycles < 1 {
				t.Errorf("%02x:%02x (%s) took %d cycles", prebytes[page], opcode, o.name, cycles)
			}
			if cycles != o.cycles {
				t.Errorf("%02x:%02x (%s) took %d cycles, table says %d", prebytes[page], opcode, o.name, cycles, o.cycles)
			}
			if o.name == "invalid" {
				entry := hook.LastEntry()
				if entry == nil || entry.Level != logrus.WarnLevel {
					t.Errorf("%02x:%02x invalid opcode not logged", prebytes[page], opcode)
				}
				want := uint16(0x2001)
				if page != PAGE_0 {
					want++
				}
				if c.pc != want {
					t.Errorf("%02x:%02x invalid opcode left pc at %04x", prebytes[page], opcode, c.pc)
				}
			}
		}
	}
}

func TestOpcodeCoverage(t *testing.T) {
	// prebytes count as entries on page 0
	want := [4]int{235, 64, 7, 4}
	var count [4]int
	for page := range optables {
		for _, o := range optables[page] {
			if o.name != "invalid" {
				count[page]++
			}
		}
	}
	for page := range want {
		if count[page] != want[page] {
			t.Errorf("page %02x has %d opcodes, want %d", prebytes[page], count[page], want[page])
		}
	}
	for _, code := range []uint8{0x00, 0x41, 0x4e, 0x6b, 0x87, 0xc7} {
		if optables[PAGE_0][code].name != "invalid" {
			t.Errorf("%02x should be invalid, got %s", code, optables[PAGE_0][code].name)
		}
	}
}

func TestAdd8(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	for carry := 0; carry < 2; carry++ {
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				c.ccr = 0
				r := c.add8(uint8(a), uint8(b), uint8(carry))
				sum := a + b + carry
				ssum := int(int8(a)) + int(int8(b)) + carry
				if int(r) != sum&0xff {
					t.Fatalf("%02x+%02x+%d = %02x", a, b, carry, r)
				}
				want := bit(sum > 0xff, CC_C) |
					bit(sum&0xff == 0, CC_Z) |
					bit(sum&0x80 != 0, CC_N) |
					bit(ssum < -128 || ssum > 127, CC_V) |
					bit(a&0xf+b&0xf+carry > 0xf, CC_H)
				if c.ccr != want {
					t.Fatalf("%02x+%02x+%d: ccr %02x, want %02x", a, b, carry, c.ccr, want)
				}
			}
		}
	}
}

func TestSub8(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	for borrow := 0; borrow < 2; borrow++ {
		for a := 0; a < 256; a++ {
			for b := 0; b < 256; b++ {
				c.ccr = CC_H
				r := c.sub8(uint8(a), uint8(b), uint8(borrow))
				diff := a - b - borrow
				sdiff := int(int8(a)) - int(int8(b)) - borrow
				if int(r) != diff&0xff {
					t.Fatalf("%02x-%02x-%d = %02x", a, b, borrow, r)
				}
				// H is left alone by subtraction
				want := uint8(CC_H) |
					bit(diff < 0, CC_C) |
					bit(diff&0xff == 0, CC_Z) |
					bit(diff&0x80 != 0, CC_N) |
					bit(sdiff < -128 || sdiff > 127, CC_V)
				if c.ccr != want {
					t.Fatalf("%02x-%02x-%d: ccr %02x, want %02x", a, b, borrow, c.ccr, want)
				}
			}
		}
	}
}

func TestWide(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	tests := []struct {
		a, b uint16
		sub  bool
		r    uint16
		ccr  uint8
	}{
		{0x1234, 0x1111, false, 0x2345, 0},
		{0xffff, 0x0001, false, 0x0000, CC_Z | CC_C},
		{0x7fff, 0x0001, false, 0x8000, CC_N | CC_V},
		{0x0000, 0x0001, true, 0xffff, CC_N | CC_C},
		{0x8000, 0x0001, true, 0x7fff, CC_V},
		{0x1234, 0x1234, true, 0x0000, CC_Z},
	}
	for _, v := range tests {
		c.ccr = 0
		var r uint16
		if v.sub {
			r = c.sub16(v.a, v.b)
		} else {
			r = c.add16(v.a, v.b)
		}
		if r != v.r || c.ccr != v.ccr {
			t.Errorf("%04x op %04x (sub=%v) = %04x ccr=%02x, want %04x ccr=%02x", v.a, v.b, v.sub, r, c.ccr, v.r, v.ccr)
		}
	}
}

func TestRMW(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	tests := []struct {
		name  string
		fn    rmwFn
		in    uint8
		cin   uint8
		out   uint8
		flags uint8
	}{
		{"neg", rmwNeg, 0x01, 0, 0xff, CC_N | CC_C},
		{"neg", rmwNeg, 0x80, 0, 0x80, CC_N | CC_V | CC_C},
		{"neg", rmwNeg, 0x00, CC_C, 0x00, CC_Z},
		{"com", rmwCom, 0x0f, 0, 0xf0, CC_N | CC_C},
		{"lsr", rmwLsr, 0x01, 0, 0x00, CC_Z | CC_V | CC_C},
		{"ror", rmwRor, 0x02, CC_C, 0x81, CC_N | CC_V},
		{"asr", rmwAsr, 0x81, 0, 0xc0, CC_N | CC_C},
		{"asl", rmwAsl, 0x80, 0, 0x00, CC_Z | CC_V | CC_C},
		{"rol", rmwRol, 0x40, CC_C, 0x81, CC_N | CC_V},
		{"dec", rmwDec, 0x80, CC_C, 0x7f, CC_V | CC_C},
		{"inc", rmwInc, 0x7f, 0, 0x80, CC_N | CC_V},
		{"inc", rmwInc, 0xff, 0, 0x00, CC_Z},
		{"tst", rmwTst, 0x80, CC_C | CC_V, 0x80, CC_N},
		{"clr", rmwClr, 0x55, CC_C | CC_N, 0x00, CC_Z},
	}
	for _, v := range tests {
		c.ccr = v.cin
		out := v.fn(c, v.in)
		if out != v.out || c.ccr != v.flags {
			t.Errorf("%s %02x (c=%02x) = %02x ccr=%02x, want %02x ccr=%02x", v.name, v.in, v.cin, out, c.ccr, v.out, v.flags)
		}
	}
}

func TestBranches(t *testing.T) {
	tests := []struct {
		opcode uint8
		ccr    uint8
		taken  bool
	}{
		{0x20, 0, true},
		{0x21, 0xff, false},
		{0x22, 0, true},
		{0x22, CC_Z, false},
		{0x23, CC_C, true},
		{0x24, CC_C, false},
		{0x25, CC_C, true},
		{0x26, CC_Z, false},
		{0x27, CC_Z, true},
		{0x28, CC_V, false},
		{0x29, CC_V, true},
		{0x2a, CC_N, false},
		{0x2b, CC_N, true},
		{0x2c, CC_N | CC_V, true},
		{0x2c, CC_N, false},
		{0x2d, CC_V, true},
		{0x2e, 0, true},
		{0x2e, CC_Z, false},
		{0x2f, CC_N, true},
		{0x2f, 0, false},
	}
	for _, v := range tests {
		c, _ := newTestCPU(t, nil, v.opcode, 0x10)
		c.ccr = v.ccr
		c.Step()
		want := uint16(0x8002)
		if v.taken {
			want = 0x8012
		}
		if c.pc != want {
			t.Errorf("%s with ccr=%02x: pc=%04x, want %04x", optables[0][v.opcode].name, v.ccr, c.pc, want)
		}
	}
	// backwards
	c, _ := newTestCPU(t, nil, 0x20, 0x80)
	c.Step()
	if c.pc != 0x7f82 {
		t.Errorf("bra -128: pc=%04x", c.pc)
	}
}

func TestSubroutines(t *testing.T) {
	// jsr $8010; nop ... $8010: bsr +1; nop; rts ... rts
	c, _ := newTestCPU(t, nil, 0xbd, 0x80, 0x10, 0x01)
	c.mem.MemWrite(0x8010, []byte{0x8d, 0x01, 0x01, 0x39, 0x39})
	sp := c.sp
	c.Step()
	if c.pc != 0x8010 || c.sp != sp-2 {
		t.Fatalf("jsr: pc=%04x sp=%04x", c.pc, c.sp)
	}
	c.Step()
	if c.pc != 0x8013 || c.sp != sp-4 {
		t.Fatalf("bsr: pc=%04x sp=%04x", c.pc, c.sp)
	}
	c.Step()
	if c.pc != 0x8012 {
		t.Fatalf("rts from bsr: pc=%04x", c.pc)
	}
	c.Step()
	c.Step()
	if c.pc != 0x8003 || c.sp != sp {
		t.Errorf("rts from jsr: pc=%04x sp=%04x", c.pc, c.sp)
	}
}

func TestBitOps(t *testing.T) {
	// bset $10 #$81; bclr $10 #$01; brset $10 #$80 +4; ... brclr $10 #$80 +0
	c, _ := newTestCPU(t, nil,
		0x14, 0x10, 0x81,
		0x15, 0x10, 0x01,
		0x12, 0x10, 0x80, 0x04,
	)
	c.Step()
	if c.internalRAM[0x10] != 0x81 || c.ccr&CC_N == 0 {
		t.Fatalf("bset: %02x ccr=%02x", c.internalRAM[0x10], c.ccr)
	}
	c.Step()
	if c.internalRAM[0x10] != 0x80 {
		t.Fatalf("bclr: %02x", c.internalRAM[0x10])
	}
	c.Step()
	if c.pc != 0x800e {
		t.Fatalf("brset: pc=%04x", c.pc)
	}
	// brclr through Y
	c.mem.MemWrite(0x800e, []byte{0x18, 0x1f, 0x00, 0x80, 0x10})
	c.iy = 0x0010
	if n := c.Step(); n != 8 {
		t.Errorf("brclr,y took %d cycles", n)
	}
	if c.pc != 0x8013 {
		t.Errorf("brclr taken on a set bit: pc=%04x", c.pc)
	}
}

func TestIndexedY(t *testing.T) {
	// ldy #$2000; ldaa $05,y; staa $06,y; cpd $06,y
	c, _ := newTestCPU(t, nil,
		0x18, 0xce, 0x20, 0x00,
		0x18, 0xa6, 0x05,
		0x18, 0xa7, 0x06,
		0xcd, 0xa3, 0x06,
	)
	c.mem.MemWrite(0x2005, []byte{0x9a})
	if n := c.Step(); n != 4 || c.iy != 0x2000 {
		t.Fatalf("ldy: %d cycles, iy=%04x", n, c.iy)
	}
	if n := c.Step(); n != 5 || c.a() != 0x9a {
		t.Fatalf("ldaa ,y: %d cycles, a=%02x", n, c.a())
	}
	c.Step()
	if v, _ := c.mem.Peek8(0x2006); v != 0x9a {
		t.Fatalf("staa ,y wrote %02x", v)
	}
	c.d = 0x9a00
	if n := c.Step(); n != 7 || c.ccr&CC_Z == 0 {
		t.Errorf("cpd ,y: %d cycles, ccr=%02x", n, c.ccr)
	}
}

func TestDivide(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	c.d, c.ix = 1000, 7
	c.idiv()
	if c.ix != 142 || c.d != 6 || c.ccr&(CC_Z|CC_V|CC_C) != 0 {
		t.Errorf("idiv: ix=%d d=%d ccr=%02x", c.ix, c.d, c.ccr)
	}
	c.d, c.ix = 5, 0
	c.idiv()
	if c.ix != 0xffff || c.ccr&CC_C == 0 {
		t.Errorf("idiv by zero: ix=%04x ccr=%02x", c.ix, c.ccr)
	}
	c.d, c.ix = 3, 7
	c.idiv()
	if c.ix != 0 || c.d != 3 || c.ccr&CC_Z == 0 {
		t.Errorf("idiv small: ix=%d d=%d ccr=%02x", c.ix, c.d, c.ccr)
	}

	c.d, c.ix = 0x4000, 0x8000
	c.fdiv()
	if c.ix != 0x8000 || c.d != 0 || c.ccr&(CC_Z|CC_V|CC_C) != 0 {
		t.Errorf("fdiv: ix=%04x d=%04x ccr=%02x", c.ix, c.d, c.ccr)
	}
	c.d, c.ix = 0x8000, 0x4000
	c.fdiv()
	if c.ix != 0xffff || c.ccr&CC_V == 0 {
		t.Errorf("fdiv overflow: ix=%04x ccr=%02x", c.ix, c.ccr)
	}
	c.d, c.ix = 1, 0
	c.fdiv()
	if c.ix != 0xffff || c.ccr&CC_C == 0 {
		t.Errorf("fdiv by zero: ix=%04x ccr=%02x", c.ix, c.ccr)
	}
}

func TestMul(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	c.setA(0x10)
	c.setB(0x08)
	c.mul()
	if c.d != 0x80 || c.ccr&CC_C == 0 {
		t.Errorf("mul: d=%04x ccr=%02x", c.d, c.ccr)
	}
}

func TestDAA(t *testing.T) {
	// adda; daa for every pair of BCD bytes
	c, _ := newTestCPU(t, nil)
	for x := 0; x < 100; x++ {
		for y := 0; y < 100; y++ {
			bx := uint8(x/10<<4 | x%10)
			by := uint8(y/10<<4 | y%10)
			c.ccr = 0
			c.setA(c.add8(bx, by, 0))
			c.daa()
			sum := x + y
			want := uint8((sum%100)/10<<4 | sum%10)
			if c.a() != want {
				t.Fatalf("%02x+%02x: daa gave %02x, want %02x", bx, by, c.a(), want)
			}
			if (c.ccr&CC_C != 0) != (sum >= 100) {
				t.Fatalf("%02x+%02x: carry %v", bx, by, c.ccr&CC_C != 0)
			}
		}
	}
}

func TestTransfers(t *testing.T) {
	c, _ := newTestCPU(t, nil)
	c.sp = 0x01ff
	c.ix = 0x1234
	c.d = 0xabcd
	exec := func(code ...byte) {
		c.mem.MemWrite(0x2000, code)
		c.pc = 0x2000
		c.Step()
	}
	exec(0x30)
	if c.ix != 0x0200 {
		t.Errorf("tsx: ix=%04x", c.ix)
	}
	exec(0x18, 0x35)
	if c.sp != c.iy-1 {
		t.Errorf("tys: sp=%04x iy=%04x", c.sp, c.iy)
	}
	exec(0x8f)
	if c.ix != 0xabcd || c.d != 0x0200 {
		t.Errorf("xgdx: ix=%04x d=%04x", c.ix, c.d)
	}
	// tap can clear X but not set it
	c.ccr = 0
	c.setA(0xff)
	exec(0x06)
	if c.ccr != 0xff&^CC_X {
		t.Errorf("tap set X: ccr=%02x", c.ccr)
	}
	c.setA(0)
	exec(0x06)
	if c.ccr != 0 {
		t.Errorf("tap: ccr=%02x", c.ccr)
	}
	c.setB(0x10)
	c.ix = 0xfff8
	exec(0x3a)
	if c.ix != 0x0008 {
		t.Errorf("abx: ix=%04x", c.ix)
	}
}

func BenchmarkExecute(b *testing.B) {
	// ldaa #1; adda #1; staa $10; bra $8000
	c, _ := newTestCPU(b, nil, 0x86, 0x01, 0x8b, 0x01, 0x97, 0x10, 0x20, 0xf8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Execute(1000)
	}
}
